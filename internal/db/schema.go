package db

import "fmt"

// All tables are created up front in one pass; new columns go through
// schemaUpdates below so existing deployments pick them up on restart.
const schema = `
CREATE TABLE IF NOT EXISTS artists (
	id                     TEXT PRIMARY KEY,
	name                   TEXT NOT NULL,
	sort_name              TEXT NOT NULL DEFAULT '',
	disambiguation         TEXT NOT NULL DEFAULT '',
	type                   TEXT,
	country                TEXT,
	gender                 TEXT,
	begin_date             TEXT,
	end_date               TEXT,
	ended                  BOOLEAN NOT NULL DEFAULT FALSE,
	status                 TEXT NOT NULL DEFAULT 'active',
	aliases                TEXT[] NOT NULL DEFAULT '{}',
	tags                   TEXT[] NOT NULL DEFAULT '{}',
	genres                 TEXT[] NOT NULL DEFAULT '{}',
	rating_value           DOUBLE PRECISION,
	rating_count           INTEGER NOT NULL DEFAULT 0,
	overview               TEXT,
	access_count           INTEGER NOT NULL DEFAULT 0,
	last_accessed_at       TIMESTAMPTZ,
	last_updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	ttl_expires_at         TIMESTAMPTZ,
	fetch_complete         BOOLEAN NOT NULL DEFAULT FALSE,
	releases_fetched_count INTEGER NOT NULL DEFAULT 0,
	last_fetch_attempt     TIMESTAMPTZ,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS release_groups (
	id                 TEXT PRIMARY KEY,
	title              TEXT NOT NULL,
	disambiguation     TEXT NOT NULL DEFAULT '',
	primary_type       TEXT,
	secondary_types    TEXT[] NOT NULL DEFAULT '{}',
	first_release_date TEXT,
	artist_credit      JSONB NOT NULL DEFAULT '[]',
	aliases            TEXT[] NOT NULL DEFAULT '{}',
	tags               TEXT[] NOT NULL DEFAULT '{}',
	genres             TEXT[] NOT NULL DEFAULT '{}',
	rating_value       DOUBLE PRECISION,
	rating_count       INTEGER NOT NULL DEFAULT 0,
	overview           TEXT,
	access_count       INTEGER NOT NULL DEFAULT 0,
	last_accessed_at   TIMESTAMPTZ,
	last_updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	ttl_expires_at     TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS releases (
	id               TEXT PRIMARY KEY,
	release_group_id TEXT NOT NULL REFERENCES release_groups(id) ON DELETE CASCADE,
	title            TEXT NOT NULL,
	status           TEXT,
	release_date     TEXT,
	country          TEXT,
	barcode          TEXT,
	labels           JSONB NOT NULL DEFAULT '[]',
	artist_credit    JSONB NOT NULL DEFAULT '[]',
	media_count      INTEGER NOT NULL DEFAULT 0,
	track_count      INTEGER NOT NULL DEFAULT 0,
	disambiguation   TEXT NOT NULL DEFAULT '',
	media            JSONB NOT NULL DEFAULT '[]',
	last_updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS recordings (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	disambiguation  TEXT NOT NULL DEFAULT '',
	length_ms       INTEGER,
	last_updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tracks (
	id            TEXT PRIMARY KEY,
	release_id    TEXT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
	recording_id  TEXT NOT NULL REFERENCES recordings(id) ON DELETE CASCADE,
	medium_number INTEGER NOT NULL DEFAULT 1,
	position      INTEGER NOT NULL DEFAULT 0,
	number        TEXT NOT NULL DEFAULT '',
	title         TEXT NOT NULL,
	length_ms     INTEGER,
	artist_credit JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS artist_release_groups (
	artist_id        TEXT NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
	release_group_id TEXT NOT NULL REFERENCES release_groups(id) ON DELETE CASCADE,
	position         INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (artist_id, release_group_id)
);

CREATE TABLE IF NOT EXISTS links (
	id          BIGSERIAL PRIMARY KEY,
	entity_type TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	link_type   TEXT NOT NULL,
	url         TEXT NOT NULL,
	UNIQUE (entity_id, link_type, url)
);

CREATE TABLE IF NOT EXISTS images (
	id                  UUID PRIMARY KEY,
	entity_type         TEXT NOT NULL,
	entity_id           TEXT NOT NULL,
	cover_type          TEXT NOT NULL,
	provider            TEXT NOT NULL,
	url                 TEXT NOT NULL,
	local_path          TEXT,
	cached              BOOLEAN NOT NULL DEFAULT FALSE,
	cache_failed        BOOLEAN NOT NULL DEFAULT FALSE,
	cache_failed_reason TEXT,
	user_uploaded       BOOLEAN NOT NULL DEFAULT FALSE,
	last_verified_at    TIMESTAMPTZ,
	cached_at           TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (entity_id, cover_type, provider)
);

CREATE TABLE IF NOT EXISTS jobs (
	id            UUID PRIMARY KEY,
	job_type      TEXT NOT NULL,
	entity_type   TEXT NOT NULL,
	entity_id     TEXT NOT NULL,
	priority      INTEGER NOT NULL DEFAULT 0,
	status        TEXT NOT NULL DEFAULT 'pending',
	attempts      INTEGER NOT NULL DEFAULT 0,
	max_attempts  INTEGER NOT NULL DEFAULT 5,
	metadata      JSONB,
	error_message TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	started_at    TIMESTAMPTZ,
	completed_at  TIMESTAMPTZ,
	UNIQUE (job_type, entity_id)
);

CREATE TABLE IF NOT EXISTS bulk_refreshes (
	id                UUID PRIMARY KEY,
	started_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at      TIMESTAMPTZ,
	status            TEXT NOT NULL DEFAULT 'running',
	artists_refreshed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_jobs_claim ON jobs (status, priority DESC, created_at ASC);
CREATE INDEX IF NOT EXISTS idx_jobs_type_entity ON jobs (job_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_images_entity ON images (entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_images_pending ON images (last_verified_at ASC) WHERE cached = FALSE AND cache_failed = FALSE;
CREATE INDEX IF NOT EXISTS idx_links_entity ON links (entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_releases_group ON releases (release_group_id);
CREATE INDEX IF NOT EXISTS idx_tracks_release ON tracks (release_id);
CREATE INDEX IF NOT EXISTS idx_arg_artist ON artist_release_groups (artist_id, position);
CREATE INDEX IF NOT EXISTS idx_artists_ttl ON artists (ttl_expires_at) WHERE ttl_expires_at IS NOT NULL;
`

// schemaUpdates are idempotent ALTERs for columns added after first release.
var schemaUpdates = []string{}

func Migrate(database *DB) error {
	if _, err := database.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	for _, stmt := range schemaUpdates {
		if _, err := database.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema update %q: %w", stmt, err)
		}
	}
	return nil
}
