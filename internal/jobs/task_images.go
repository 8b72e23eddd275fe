package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/JustinTDCT/TuneVault/internal/metadata"
	"github.com/JustinTDCT/TuneVault/internal/models"
)

// ──────── Artwork URL handler ────────

// ImagesHandler asks every capable provider for artwork URLs and records them
// as image rows with cached=false. The binary downloader picks those up on
// its own clock; this handler never downloads anything.
type ImagesHandler struct {
	registry *metadata.Registry
	images   ImageStore
}

func NewImagesHandler(registry *metadata.Registry, images ImageStore) *ImagesHandler {
	return &ImagesHandler{registry: registry, images: images}
}

func (h *ImagesHandler) Handle(ctx context.Context, job *models.Job) error {
	switch job.JobType {
	case models.JobFetchArtistImages:
		return h.discover(ctx, models.EntityArtist, job.EntityID)
	case models.JobFetchAlbumImages:
		return h.discover(ctx, models.EntityAlbum, job.EntityID)
	default:
		return fmt.Errorf("images handler got unexpected job type %q", job.JobType)
	}
}

func (h *ImagesHandler) discover(ctx context.Context, entityType models.EntityType, entityID string) error {
	var scrapers []metadata.ImageScraper
	if entityType == models.EntityArtist {
		scrapers = h.registry.ArtistImageScrapers()
	} else {
		scrapers = h.registry.AlbumImageScrapers()
	}
	if len(scrapers) == 0 {
		return nil
	}

	found := 0
	var lastErr error
	for _, s := range scrapers {
		var remotes []models.RemoteImage
		var err error
		if entityType == models.EntityArtist {
			remotes, err = s.ArtistImages(ctx, entityID)
		} else {
			remotes, err = s.AlbumImages(ctx, entityID)
		}
		if err != nil {
			if metadata.IsNotFound(err) {
				continue
			}
			lastErr = err
			log.Printf("Images: %s %s %s: %v", s.Name(), entityType, entityID, err)
			continue
		}
		for _, remote := range remotes {
			img := &models.Image{
				ID:         uuid.New(),
				EntityType: entityType,
				EntityID:   entityID,
				CoverType:  remote.CoverType,
				Provider:   remote.Provider,
				URL:        remote.URL,
			}
			if err := h.images.UpsertImageURL(img); err != nil {
				return err
			}
			found++
		}
	}

	// One provider answering is enough; retry only when every provider was
	// down or erroring.
	if found == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}
