package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

type BulkRefreshRepository struct {
	db *sql.DB
}

func NewBulkRefreshRepository(db *sql.DB) *BulkRefreshRepository {
	return &BulkRefreshRepository{db: db}
}

// Start opens a new bulk refresh run.
func (r *BulkRefreshRepository) Start() (*models.BulkRefresh, error) {
	br := &models.BulkRefresh{ID: uuid.New(), Status: "running"}
	query := `
		INSERT INTO bulk_refreshes (id, status)
		VALUES ($1, $2)
		RETURNING started_at`
	err := r.db.QueryRow(query, br.ID, br.Status).Scan(&br.StartedAt)
	if err != nil {
		return nil, err
	}
	return br, nil
}

// Finish closes a run with its final status and tally.
func (r *BulkRefreshRepository) Finish(id uuid.UUID, status string, artistsRefreshed int) error {
	_, err := r.db.Exec(`
		UPDATE bulk_refreshes
		SET status = $2, artists_refreshed = $3, completed_at = NOW()
		WHERE id = $1`, id, status, artistsRefreshed)
	return err
}

// Latest returns the most recent run, or nil, nil when none has happened.
func (r *BulkRefreshRepository) Latest() (*models.BulkRefresh, error) {
	br := &models.BulkRefresh{}
	query := `
		SELECT id, started_at, completed_at, status, artists_refreshed
		FROM bulk_refreshes
		ORDER BY started_at DESC
		LIMIT 1`
	err := r.db.QueryRow(query).Scan(&br.ID, &br.StartedAt, &br.CompletedAt, &br.Status, &br.ArtistsRefreshed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return br, nil
}

// Running reports whether a bulk refresh is currently in flight.
func (r *BulkRefreshRepository) Running() (bool, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM bulk_refreshes WHERE status = 'running'`).Scan(&n)
	return n > 0, err
}
