package repository

import (
	"database/sql"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

type ReleaseRepository struct {
	db *sql.DB
}

func NewReleaseRepository(db *sql.DB) *ReleaseRepository {
	return &ReleaseRepository{db: db}
}

const releaseColumns = `id, release_group_id, title, status, release_date, country,
	barcode, labels, artist_credit, media_count, track_count, disambiguation,
	media, last_updated_at`

func scanRelease(row interface{ Scan(...interface{}) error }) (*models.Release, error) {
	rel := &models.Release{}
	var labels, credit, media []byte
	err := row.Scan(
		&rel.ID, &rel.ReleaseGroupID, &rel.Title, &rel.Status, &rel.ReleaseDate, &rel.Country,
		&rel.Barcode, &labels, &credit, &rel.MediaCount, &rel.TrackCount, &rel.Disambiguation,
		&media, &rel.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fromJSON(labels, &rel.Labels); err != nil {
		return nil, err
	}
	if err := fromJSON(credit, &rel.ArtistCredit); err != nil {
		return nil, err
	}
	if err := fromJSON(media, &rel.Media); err != nil {
		return nil, err
	}
	return rel, nil
}

// UpsertRelease stores one edition of an album, tracks embedded in the media
// blob. The parent release group row must already exist.
func (r *ReleaseRepository) UpsertRelease(rel *models.Release) error {
	labels, err := toJSON(rel.Labels)
	if err != nil {
		return err
	}
	credit, err := toJSON(rel.ArtistCredit)
	if err != nil {
		return err
	}
	media, err := toJSON(rel.Media)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO releases (id, release_group_id, title, status, release_date, country,
		                      barcode, labels, artist_credit, media_count, track_count,
		                      disambiguation, media, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (id) DO UPDATE SET
			release_group_id = EXCLUDED.release_group_id,
			title            = EXCLUDED.title,
			status           = EXCLUDED.status,
			release_date     = EXCLUDED.release_date,
			country          = EXCLUDED.country,
			barcode          = EXCLUDED.barcode,
			labels           = EXCLUDED.labels,
			artist_credit    = EXCLUDED.artist_credit,
			media_count      = EXCLUDED.media_count,
			track_count      = EXCLUDED.track_count,
			disambiguation   = EXCLUDED.disambiguation,
			media            = EXCLUDED.media,
			last_updated_at  = NOW()`
	_, err = r.db.Exec(query, rel.ID, rel.ReleaseGroupID, rel.Title, rel.Status,
		rel.ReleaseDate, rel.Country, rel.Barcode, labels, credit,
		rel.MediaCount, rel.TrackCount, rel.Disambiguation, media)
	return err
}

// ListByReleaseGroup returns all cached editions of an album, oldest first.
func (r *ReleaseRepository) ListByReleaseGroup(releaseGroupID string) ([]*models.Release, error) {
	query := `
		SELECT ` + releaseColumns + `
		FROM releases
		WHERE release_group_id = $1
		ORDER BY release_date ASC NULLS LAST, id ASC`
	rows, err := r.db.Query(query, releaseGroupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var releases []*models.Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		releases = append(releases, rel)
	}
	return releases, rows.Err()
}

// ──────────────────── Recordings & tracks ────────────────────

func (r *ReleaseRepository) UpsertRecording(rec *models.Recording) error {
	query := `
		INSERT INTO recordings (id, title, disambiguation, length_ms, last_updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			title           = EXCLUDED.title,
			disambiguation  = EXCLUDED.disambiguation,
			length_ms       = EXCLUDED.length_ms,
			last_updated_at = NOW()`
	_, err := r.db.Exec(query, rec.ID, rec.Title, rec.Disambiguation, rec.LengthMS)
	return err
}

// UpsertTrack stores one placement of a recording on a release. Both parent
// rows must exist first or the foreign keys will reject it.
func (r *ReleaseRepository) UpsertTrack(t *models.Track) error {
	credit, err := toJSON(t.ArtistCredit)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tracks (id, release_id, recording_id, medium_number, position,
		                    number, title, length_ms, artist_credit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			release_id    = EXCLUDED.release_id,
			recording_id  = EXCLUDED.recording_id,
			medium_number = EXCLUDED.medium_number,
			position      = EXCLUDED.position,
			number        = EXCLUDED.number,
			title         = EXCLUDED.title,
			length_ms     = EXCLUDED.length_ms,
			artist_credit = EXCLUDED.artist_credit`
	_, err = r.db.Exec(query, t.ID, t.ReleaseID, t.RecordingID, t.MediumNumber,
		t.Position, t.Number, t.Title, t.LengthMS, credit)
	return err
}
