package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/JustinTDCT/TuneVault/internal/metadata"
	"github.com/JustinTDCT/TuneVault/internal/models"
)

// ──────── Text handler ────────

// TextHandler fills overviews from the encyclopedic providers. Providers are
// tried in registration order; the first one with text wins. A provider that
// simply has nothing is not an error.
type TextHandler struct {
	registry *metadata.Registry
	artists  OverviewStore
	albums   OverviewStore
}

func NewTextHandler(registry *metadata.Registry, artists, albums OverviewStore) *TextHandler {
	return &TextHandler{registry: registry, artists: artists, albums: albums}
}

func (h *TextHandler) Handle(ctx context.Context, job *models.Job) error {
	switch job.JobType {
	case models.JobFetchArtistText:
		return h.artistText(ctx, job.EntityID)
	case models.JobFetchAlbumText:
		return h.albumText(ctx, job.EntityID)
	default:
		return fmt.Errorf("text handler got unexpected job type %q", job.JobType)
	}
}

func (h *TextHandler) artistText(ctx context.Context, artistID string) error {
	scrapers := h.registry.ArtistTextScrapers()
	if len(scrapers) == 0 {
		return nil
	}
	var lastErr error
	for _, s := range scrapers {
		text, err := s.ArtistText(ctx, artistID)
		if err != nil {
			if metadata.IsNotFound(err) {
				continue
			}
			lastErr = err
			log.Printf("Text: %s artist %s: %v", s.Name(), artistID, err)
			continue
		}
		if text == "" {
			continue
		}
		return h.artists.SetOverview(artistID, text)
	}
	return lastErr
}

func (h *TextHandler) albumText(ctx context.Context, releaseGroupID string) error {
	scrapers := h.registry.AlbumTextScrapers()
	if len(scrapers) == 0 {
		return nil
	}
	var lastErr error
	for _, s := range scrapers {
		text, err := s.AlbumText(ctx, releaseGroupID)
		if err != nil {
			if metadata.IsNotFound(err) {
				continue
			}
			lastErr = err
			log.Printf("Text: %s album %s: %v", s.Name(), releaseGroupID, err)
			continue
		}
		if text == "" {
			continue
		}
		return h.albums.SetOverview(releaseGroupID, text)
	}
	return lastErr
}
