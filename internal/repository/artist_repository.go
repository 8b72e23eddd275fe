package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

type ArtistRepository struct {
	db *sql.DB
}

func NewArtistRepository(db *sql.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

const artistColumns = `id, name, sort_name, disambiguation, type, country, gender,
	begin_date, end_date, ended, status, aliases, tags, genres,
	rating_value, rating_count, overview, access_count, last_accessed_at,
	last_updated_at, ttl_expires_at, fetch_complete, releases_fetched_count,
	last_fetch_attempt, created_at`

func scanArtist(row interface{ Scan(...interface{}) error }) (*models.Artist, error) {
	a := &models.Artist{}
	err := row.Scan(
		&a.ID, &a.Name, &a.SortName, &a.Disambiguation, &a.Type, &a.Country, &a.Gender,
		&a.BeginDate, &a.EndDate, &a.Ended, &a.Status, &a.Aliases, &a.Tags, &a.Genres,
		&a.RatingValue, &a.RatingCount, &a.Overview, &a.AccessCount, &a.LastAccessedAt,
		&a.LastUpdatedAt, &a.TTLExpiresAt, &a.FetchComplete, &a.ReleasesFetchedCount,
		&a.LastFetchAttempt, &a.CreatedAt,
	)
	return a, err
}

// FindArtist returns nil, nil when the artist is not cached yet.
func (r *ArtistRepository) FindArtist(id string) (*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = $1`
	a, err := scanArtist(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpsertArtist writes the canonical fields of an artist. The overview column
// belongs to the text providers and is only touched on a full upsert, and even
// then an existing overview is never blanked by a nil incoming one.
func (r *ArtistRepository) UpsertArtist(a *models.Artist, isFullData bool) error {
	query := `
		INSERT INTO artists (id, name, sort_name, disambiguation, type, country, gender,
		                     begin_date, end_date, ended, status, aliases, tags, genres,
		                     rating_value, rating_count, overview, ttl_expires_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name             = EXCLUDED.name,
			sort_name        = EXCLUDED.sort_name,
			disambiguation   = EXCLUDED.disambiguation,
			type             = EXCLUDED.type,
			country          = EXCLUDED.country,
			gender           = EXCLUDED.gender,
			begin_date       = EXCLUDED.begin_date,
			end_date         = EXCLUDED.end_date,
			ended            = EXCLUDED.ended,
			status           = EXCLUDED.status,
			aliases          = EXCLUDED.aliases,
			tags             = EXCLUDED.tags,
			genres           = EXCLUDED.genres,
			rating_value     = EXCLUDED.rating_value,
			rating_count     = EXCLUDED.rating_count,
			overview         = CASE WHEN $19 THEN COALESCE(EXCLUDED.overview, artists.overview)
			                        ELSE artists.overview END,
			ttl_expires_at   = GREATEST(artists.ttl_expires_at, EXCLUDED.ttl_expires_at),
			last_updated_at  = NOW()`
	_, err := r.db.Exec(query, a.ID, a.Name, a.SortName, a.Disambiguation, a.Type,
		a.Country, a.Gender, a.BeginDate, a.EndDate, a.Ended, a.Status,
		textArray(a.Aliases), textArray(a.Tags), textArray(a.Genres),
		a.RatingValue, a.RatingCount, a.Overview, a.TTLExpiresAt, isFullData)
	return err
}

// TouchAccess bumps the access counter on every consumer read.
func (r *ArtistRepository) TouchAccess(id string) error {
	_, err := r.db.Exec(`
		UPDATE artists SET access_count = access_count + 1, last_accessed_at = NOW()
		WHERE id = $1`, id)
	return err
}

// SetOverview stores a biography fetched from a text provider.
func (r *ArtistRepository) SetOverview(id, overview string) error {
	_, err := r.db.Exec(`
		UPDATE artists SET overview = $2, last_updated_at = NOW()
		WHERE id = $1`, id, overview)
	return err
}

// MarkFetchComplete records that the artist and its full album list landed,
// and arms the TTL for the next refresh cycle.
func (r *ArtistRepository) MarkFetchComplete(id string, releaseCount int, expires time.Time) error {
	_, err := r.db.Exec(`
		UPDATE artists
		SET fetch_complete = TRUE, releases_fetched_count = $2, ttl_expires_at = $3,
		    last_fetch_attempt = NOW(), last_updated_at = NOW()
		WHERE id = $1`, id, releaseCount, expires)
	return err
}

func (r *ArtistRepository) SetLastFetchAttempt(id string) error {
	_, err := r.db.Exec(`UPDATE artists SET last_fetch_attempt = NOW() WHERE id = $1`, id)
	return err
}

// ListExpired returns fully-fetched artists whose TTL has lapsed, oldest first.
func (r *ArtistRepository) ListExpired(now time.Time, limit int) ([]*models.Artist, error) {
	query := `
		SELECT ` + artistColumns + `
		FROM artists
		WHERE fetch_complete = TRUE AND ttl_expires_at IS NOT NULL AND ttl_expires_at < $1
		ORDER BY ttl_expires_at ASC
		LIMIT $2`
	rows, err := r.db.Query(query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artists []*models.Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

// ListArtistIDs returns every cached artist id, least recently updated first.
func (r *ArtistRepository) ListArtistIDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT id FROM artists ORDER BY last_updated_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindArtistsByIDs fetches a batch of artists keyed by id, for embedding into
// album responses without one query per credit.
func (r *ArtistRepository) FindArtistsByIDs(ids []string) (map[string]*models.Artist, error) {
	if len(ids) == 0 {
		return map[string]*models.Artist{}, nil
	}
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = ANY($1)`
	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	artists := make(map[string]*models.Artist, len(ids))
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists[a.ID] = a
	}
	return artists, rows.Err()
}

// textArray keeps nil slices out of NOT NULL text[] columns.
func textArray(v pq.StringArray) pq.StringArray {
	if v == nil {
		return pq.StringArray{}
	}
	return v
}
