package repository

import (
	"database/sql"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// CacheStats counts what the cache currently holds, in one round trip.
func (r *StatsRepository) CacheStats() (*models.CacheStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM artists),
			(SELECT COUNT(*) FROM artists WHERE fetch_complete = TRUE),
			(SELECT COUNT(*) FROM release_groups),
			(SELECT COUNT(*) FROM releases),
			(SELECT COUNT(*) FROM recordings),
			(SELECT COUNT(*) FROM tracks),
			(SELECT COUNT(*) FROM images),
			(SELECT COUNT(*) FROM images WHERE cached = TRUE),
			(SELECT COUNT(*) FROM images WHERE cache_failed = TRUE)`
	stats := &models.CacheStats{}
	err := r.db.QueryRow(query).Scan(
		&stats.Artists, &stats.ArtistsFetched, &stats.Albums, &stats.Releases,
		&stats.Recordings, &stats.Tracks, &stats.ImagesTotal, &stats.ImagesCached,
		&stats.ImagesFailed,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// MostAccessedArtists returns the hottest cache entries for the dashboard.
func (r *StatsRepository) MostAccessedArtists(limit int) ([]*models.Artist, error) {
	query := `
		SELECT ` + artistColumns + `
		FROM artists
		WHERE access_count > 0
		ORDER BY access_count DESC, last_accessed_at DESC
		LIMIT $1`
	rows, err := r.db.Query(query, limit)
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
