package metadata

import (
	"context"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

// Capability tags are advertised explicitly by each scraper; the registry
// and the orchestrator query them and never assume.
type Capability string

const (
	CapSearchArtist    Capability = "searchArtist"
	CapSearchAlbum     Capability = "searchAlbum"
	CapGetArtist       Capability = "getArtist"
	CapGetArtistAlbums Capability = "getArtistAlbums"
	CapGetReleaseGroup Capability = "getReleaseGroup"
	CapGetReleases     Capability = "getReleasesByReleaseGroup"
	CapGetRelease      Capability = "getRelease"
	CapArtistText      Capability = "getArtistText"
	CapAlbumText       Capability = "getAlbumText"
	CapArtistImages    Capability = "artistImages"
	CapAlbumImages     Capability = "albumImages"
)

type Scraper interface {
	Name() string
	Capabilities() []Capability
}

// CanonicalScraper is the authoritative metadata source. Exactly one is
// required; everything it returns is already normalized to the internal
// shape (padded dates, ordered artist credits, no provider field names).
type CanonicalScraper interface {
	Scraper
	SearchArtists(ctx context.Context, query string, limit int) ([]models.ArtistSearchResult, error)
	SearchAlbums(ctx context.Context, query string, limit int) ([]models.AlbumSearchResult, error)
	GetArtist(ctx context.Context, id string) (*models.Artist, error)
	GetArtistAlbums(ctx context.Context, artistID string) ([]*models.ReleaseGroup, error)
	GetReleaseGroup(ctx context.Context, id string) (*models.ReleaseGroup, error)
	GetReleasesByReleaseGroup(ctx context.Context, releaseGroupID string) ([]*models.Release, error)
	GetRelease(ctx context.Context, id string) (*models.Release, error)
}

// TextScraper supplies encyclopedic overview paragraphs.
type TextScraper interface {
	Scraper
	ArtistText(ctx context.Context, mbid string) (string, error)
	AlbumText(ctx context.Context, releaseGroupID string) (string, error)
}

// ImageScraper discovers artwork URLs; it never downloads binaries.
type ImageScraper interface {
	Scraper
	ArtistImages(ctx context.Context, mbid string) ([]models.RemoteImage, error)
	AlbumImages(ctx context.Context, releaseGroupID string) ([]models.RemoteImage, error)
}

// ──────────────────── Registry ────────────────────

type Registry struct {
	scrapers []Scraper
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(s Scraper) {
	r.scrapers = append(r.scrapers, s)
}

// Canonical returns the first registered canonical scraper, nil if none.
func (r *Registry) Canonical() CanonicalScraper {
	for _, s := range r.scrapers {
		if c, ok := s.(CanonicalScraper); ok {
			return c
		}
	}
	return nil
}

func (r *Registry) Supporting(cap Capability) []Scraper {
	var out []Scraper
	for _, s := range r.scrapers {
		for _, c := range s.Capabilities() {
			if c == cap {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func (r *Registry) HasCapability(cap Capability) bool {
	return len(r.Supporting(cap)) > 0
}

func (r *Registry) ArtistTextScrapers() []TextScraper {
	var out []TextScraper
	for _, s := range r.Supporting(CapArtistText) {
		if t, ok := s.(TextScraper); ok {
			out = append(out, t)
		}
	}
	return out
}

func (r *Registry) AlbumTextScrapers() []TextScraper {
	var out []TextScraper
	for _, s := range r.Supporting(CapAlbumText) {
		if t, ok := s.(TextScraper); ok {
			out = append(out, t)
		}
	}
	return out
}

func (r *Registry) ArtistImageScrapers() []ImageScraper {
	var out []ImageScraper
	for _, s := range r.Supporting(CapArtistImages) {
		if i, ok := s.(ImageScraper); ok {
			out = append(out, i)
		}
	}
	return out
}

func (r *Registry) AlbumImageScrapers() []ImageScraper {
	var out []ImageScraper
	for _, s := range r.Supporting(CapAlbumImages) {
		if i, ok := s.(ImageScraper); ok {
			out = append(out, i)
		}
	}
	return out
}
