package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

type ImageRepository struct {
	db *sql.DB
}

func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

const imageColumns = `id, entity_type, entity_id, cover_type, provider, url, local_path,
	cached, cache_failed, cache_failed_reason, user_uploaded, last_verified_at,
	cached_at, created_at`

func scanImage(row interface{ Scan(...interface{}) error }) (*models.Image, error) {
	img := &models.Image{}
	err := row.Scan(
		&img.ID, &img.EntityType, &img.EntityID, &img.CoverType, &img.Provider, &img.URL,
		&img.LocalPath, &img.Cached, &img.CacheFailed, &img.CacheFailedReason,
		&img.UserUploaded, &img.LastVerifiedAt, &img.CachedAt, &img.CreatedAt,
	)
	return img, err
}

// UpsertImageURL records a provider-discovered artwork URL. A row that still
// points at the same URL keeps its cached binary; a changed URL resets the
// cache flags so the downloader picks it up again. Disk failures also
// re-arm on re-verify, since the disk may be back. User uploads are never
// overwritten by provider rows.
func (r *ImageRepository) UpsertImageURL(img *models.Image) error {
	query := `
		INSERT INTO images (id, entity_type, entity_id, cover_type, provider, url, last_verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (entity_id, cover_type, provider) DO UPDATE SET
			url    = EXCLUDED.url,
			cached = CASE WHEN images.url = EXCLUDED.url THEN images.cached ELSE FALSE END,
			cache_failed = CASE
				WHEN images.url <> EXCLUDED.url THEN FALSE
				WHEN images.cache_failed_reason LIKE 'disk:%' THEN FALSE
				ELSE images.cache_failed END,
			cache_failed_reason = CASE
				WHEN images.url <> EXCLUDED.url THEN NULL
				WHEN images.cache_failed_reason LIKE 'disk:%' THEN NULL
				ELSE images.cache_failed_reason END,
			last_verified_at = NOW()
		WHERE images.user_uploaded = FALSE`
	_, err := r.db.Exec(query, img.ID, img.EntityType, img.EntityID, img.CoverType,
		img.Provider, img.URL)
	return err
}

// ClaimPendingDownload picks the image most overdue for a binary fetch,
// artists ahead of albums, and bumps its verification stamp so concurrent
// workers move on to the next row instead of doubling up.
func (r *ImageRepository) ClaimPendingDownload() (*models.Image, error) {
	query := `
		UPDATE images SET last_verified_at = NOW()
		WHERE id = (
			SELECT id FROM images
			WHERE cached = FALSE AND cache_failed = FALSE AND user_uploaded = FALSE
			ORDER BY (entity_type = 'artist') DESC, last_verified_at ASC NULLS FIRST
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + imageColumns
	img, err := scanImage(r.db.QueryRow(query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

// MarkCached records a successful binary download.
func (r *ImageRepository) MarkCached(id uuid.UUID, localPath string) error {
	_, err := r.db.Exec(`
		UPDATE images
		SET cached = TRUE, cache_failed = FALSE, cache_failed_reason = NULL,
		    local_path = $2, cached_at = NOW(), last_verified_at = NOW()
		WHERE id = $1`, id, localPath)
	return err
}

// MarkFailed parks an image after a permanent download failure. It stays
// parked until the URL changes or an operator clears the flag.
func (r *ImageRepository) MarkFailed(id uuid.UUID, reason string) error {
	_, err := r.db.Exec(`
		UPDATE images
		SET cache_failed = TRUE, cached = FALSE, cache_failed_reason = $2,
		    last_verified_at = NOW()
		WHERE id = $1`, id, reason)
	return err
}

func (r *ImageRepository) BumpVerified(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE images SET last_verified_at = NOW() WHERE id = $1`, id)
	return err
}

// FindByID returns nil, nil when the image row does not exist.
func (r *ImageRepository) FindByID(id uuid.UUID) (*models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = $1`
	img, err := scanImage(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (r *ImageRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM images WHERE id = $1`, id)
	return err
}

// InsertUserUpload stores operator-supplied artwork, already on disk, and
// displaces any provider row for the same slot.
func (r *ImageRepository) InsertUserUpload(img *models.Image) error {
	_, err := r.db.Exec(`
		DELETE FROM images WHERE entity_id = $1 AND cover_type = $2 AND user_uploaded = FALSE`,
		img.EntityID, img.CoverType)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO images (id, entity_type, entity_id, cover_type, provider, url, local_path,
		                    cached, user_uploaded, cached_at, last_verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, TRUE, NOW(), NOW())
		ON CONFLICT (entity_id, cover_type, provider) DO UPDATE SET
			url              = EXCLUDED.url,
			local_path       = EXCLUDED.local_path,
			cached           = TRUE,
			cache_failed     = FALSE,
			cached_at        = NOW(),
			last_verified_at = NOW()`
	_, err = r.db.Exec(query, img.ID, img.EntityType, img.EntityID, img.CoverType,
		img.Provider, img.URL, img.LocalPath)
	return err
}

func (r *ImageRepository) ListByEntity(entityType models.EntityType, entityID string) ([]*models.Image, error) {
	query := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY cover_type ASC, provider ASC`
	rows, err := r.db.Query(query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*models.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ListByEntityIDs fetches artwork rows for many entities at once, keyed by
// entity id.
func (r *ImageRepository) ListByEntityIDs(entityType models.EntityType, entityIDs []string) (map[string][]*models.Image, error) {
	out := make(map[string][]*models.Image, len(entityIDs))
	if len(entityIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE entity_type = $1 AND entity_id = ANY($2)
		ORDER BY entity_id ASC, cover_type ASC, provider ASC`
	rows, err := r.db.Query(query, entityType, pq.Array(entityIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out[img.EntityID] = append(out[img.EntityID], img)
	}
	return out, rows.Err()
}

// ListVerifiedBefore returns cached images whose URL has not been re-checked
// since the cutoff, for the periodic liveness sweep.
func (r *ImageRepository) ListVerifiedBefore(cutoff time.Time, limit int) ([]*models.Image, error) {
	query := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE cached = TRUE AND user_uploaded = FALSE
		  AND (last_verified_at IS NULL OR last_verified_at < $1)
		ORDER BY last_verified_at ASC NULLS FIRST
		LIMIT $2`
	rows, err := r.db.Query(query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*models.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
