package jobs

import (
	"context"
	"fmt"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

// ──────── Canonical handler ────────

// CanonicalHandler runs the queue-driven side of the orchestrator: the same
// fetch paths the HTTP hot path uses, minus the formatting.
type CanonicalHandler struct {
	fetcher CanonicalFetcher
}

func NewCanonicalHandler(fetcher CanonicalFetcher) *CanonicalHandler {
	return &CanonicalHandler{fetcher: fetcher}
}

func (h *CanonicalHandler) Handle(ctx context.Context, job *models.Job) error {
	switch job.JobType {
	case models.JobFetchArtist:
		return h.fetcher.FetchArtist(ctx, job.EntityID)
	case models.JobFetchArtistAlbums:
		return h.fetcher.FetchArtistAlbums(ctx, job.EntityID)
	case models.JobFetchRelease:
		return h.fetcher.FetchRelease(ctx, job.EntityID)
	case models.JobFetchAlbumFull:
		return h.fetcher.FetchAlbumFull(ctx, job.EntityID)
	case models.JobArtistFull, models.JobRefreshArtist:
		return h.fetcher.FetchArtistFull(ctx, job.EntityID)
	default:
		return fmt.Errorf("canonical handler got unexpected job type %q", job.JobType)
	}
}
