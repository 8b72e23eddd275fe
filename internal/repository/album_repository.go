package repository

import (
	"database/sql"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

type AlbumRepository struct {
	db *sql.DB
}

func NewAlbumRepository(db *sql.DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

const releaseGroupColumns = `id, title, disambiguation, primary_type, secondary_types,
	first_release_date, artist_credit, aliases, tags, genres, rating_value,
	rating_count, overview, access_count, last_accessed_at, last_updated_at,
	ttl_expires_at, created_at`

func scanReleaseGroup(row interface{ Scan(...interface{}) error }) (*models.ReleaseGroup, error) {
	rg := &models.ReleaseGroup{}
	var credit []byte
	err := row.Scan(
		&rg.ID, &rg.Title, &rg.Disambiguation, &rg.PrimaryType, &rg.SecondaryTypes,
		&rg.FirstReleaseDate, &credit, &rg.Aliases, &rg.Tags, &rg.Genres, &rg.RatingValue,
		&rg.RatingCount, &rg.Overview, &rg.AccessCount, &rg.LastAccessedAt, &rg.LastUpdatedAt,
		&rg.TTLExpiresAt, &rg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fromJSON(credit, &rg.ArtistCredit); err != nil {
		return nil, err
	}
	return rg, nil
}

// FindReleaseGroup returns nil, nil when the album is not cached yet.
func (r *AlbumRepository) FindReleaseGroup(id string) (*models.ReleaseGroup, error) {
	query := `SELECT ` + releaseGroupColumns + ` FROM release_groups WHERE id = $1`
	rg, err := scanReleaseGroup(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rg, nil
}

// UpsertReleaseGroup writes an album and, when linkedArtistID is set, appends
// it to that artist's album list. The overview has the same ownership rule as
// on artists: text providers write it, canonical upserts never blank it.
func (r *AlbumRepository) UpsertReleaseGroup(rg *models.ReleaseGroup, linkedArtistID string, isFullData bool) error {
	credit, err := toJSON(rg.ArtistCredit)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO release_groups (id, title, disambiguation, primary_type, secondary_types,
		                            first_release_date, artist_credit, aliases, tags, genres,
		                            rating_value, rating_count, overview, ttl_expires_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		ON CONFLICT (id) DO UPDATE SET
			title              = EXCLUDED.title,
			disambiguation     = EXCLUDED.disambiguation,
			primary_type       = EXCLUDED.primary_type,
			secondary_types    = EXCLUDED.secondary_types,
			first_release_date = EXCLUDED.first_release_date,
			artist_credit      = EXCLUDED.artist_credit,
			aliases            = EXCLUDED.aliases,
			tags               = EXCLUDED.tags,
			genres             = EXCLUDED.genres,
			rating_value       = EXCLUDED.rating_value,
			rating_count       = EXCLUDED.rating_count,
			overview           = CASE WHEN $15 THEN COALESCE(EXCLUDED.overview, release_groups.overview)
			                          ELSE release_groups.overview END,
			ttl_expires_at     = GREATEST(release_groups.ttl_expires_at, EXCLUDED.ttl_expires_at),
			last_updated_at    = NOW()`
	_, err = r.db.Exec(query, rg.ID, rg.Title, rg.Disambiguation, rg.PrimaryType,
		textArray(rg.SecondaryTypes), rg.FirstReleaseDate, credit,
		textArray(rg.Aliases), textArray(rg.Tags), textArray(rg.Genres),
		rg.RatingValue, rg.RatingCount, rg.Overview, rg.TTLExpiresAt, isFullData)
	if err != nil {
		return err
	}
	if linkedArtistID == "" {
		return nil
	}
	_, err = r.db.Exec(`
		INSERT INTO artist_release_groups (artist_id, release_group_id, position)
		VALUES ($1, $2, COALESCE((SELECT MAX(position) + 1 FROM artist_release_groups WHERE artist_id = $1), 0))
		ON CONFLICT (artist_id, release_group_id) DO NOTHING`, linkedArtistID, rg.ID)
	return err
}

// LinkArtistToReleaseGroup pins an album at a fixed position in the artist's
// list, used when enumerating the full discography in upstream order.
func (r *AlbumRepository) LinkArtistToReleaseGroup(artistID, releaseGroupID string, position int) error {
	_, err := r.db.Exec(`
		INSERT INTO artist_release_groups (artist_id, release_group_id, position)
		VALUES ($1, $2, $3)
		ON CONFLICT (artist_id, release_group_id) DO UPDATE SET position = EXCLUDED.position`,
		artistID, releaseGroupID, position)
	return err
}

func (r *AlbumRepository) TouchAccess(id string) error {
	_, err := r.db.Exec(`
		UPDATE release_groups SET access_count = access_count + 1, last_accessed_at = NOW()
		WHERE id = $1`, id)
	return err
}

func (r *AlbumRepository) SetOverview(id, overview string) error {
	_, err := r.db.Exec(`
		UPDATE release_groups SET overview = $2, last_updated_at = NOW()
		WHERE id = $1`, id, overview)
	return err
}

// ListByArtist returns the artist's albums in discography order.
func (r *AlbumRepository) ListByArtist(artistID string) ([]*models.ReleaseGroup, error) {
	query := `
		SELECT rg.id, rg.title, rg.disambiguation, rg.primary_type, rg.secondary_types,
		       rg.first_release_date, rg.artist_credit, rg.aliases, rg.tags, rg.genres,
		       rg.rating_value, rg.rating_count, rg.overview, rg.access_count,
		       rg.last_accessed_at, rg.last_updated_at, rg.ttl_expires_at, rg.created_at
		FROM release_groups rg
		JOIN artist_release_groups arg ON arg.release_group_id = rg.id
		WHERE arg.artist_id = $1
		ORDER BY arg.position ASC`
	rows, err := r.db.Query(query, artistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*models.ReleaseGroup
	for rows.Next() {
		rg, err := scanReleaseGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, rg)
	}
	return groups, rows.Err()
}

// ListIDsByArtist returns just the linked album ids, for diffing a fresh
// upstream discography against what is already cached.
func (r *AlbumRepository) ListIDsByArtist(artistID string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT release_group_id FROM artist_release_groups
		WHERE artist_id = $1 ORDER BY position ASC`, artistID)
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
