package metadata

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

const caaBaseURL = "https://coverartarchive.org"

// CAAScraper resolves album cover URLs from the Cover Art Archive. No API
// key; release-group lookups redirect to the chosen release's index.
type CAAScraper struct {
	client  *http.Client
	gate    *Gate
	baseURL string
	retries int
	backoff time.Duration
}

func NewCAAScraper(baseURL string, minInterval time.Duration) *CAAScraper {
	if baseURL == "" {
		baseURL = caaBaseURL
	}
	if minInterval == 0 {
		minInterval = 1000 * time.Millisecond
	}
	return &CAAScraper{
		client:  &http.Client{Timeout: 10 * time.Second},
		gate:    NewGate(minInterval),
		baseURL: baseURL,
		retries: defaultRetryCount,
		backoff: defaultRetryBase,
	}
}

func (s *CAAScraper) Name() string { return "coverartarchive" }

func (s *CAAScraper) Capabilities() []Capability {
	return []Capability{CapAlbumImages}
}

type caaImage struct {
	Image      string   `json:"image"`
	Front      bool     `json:"front"`
	Back       bool     `json:"back"`
	Types      []string `json:"types"`
	Thumbnails struct {
		Large string `json:"large"`
	} `json:"thumbnails"`
}

func (s *CAAScraper) ArtistImages(ctx context.Context, mbid string) ([]models.RemoteImage, error) {
	return nil, ErrNotFound
}

func (s *CAAScraper) AlbumImages(ctx context.Context, releaseGroupID string) ([]models.RemoteImage, error) {
	u := fmt.Sprintf("%s/release-group/%s", s.baseURL, releaseGroupID)
	var result struct {
		Images []caaImage `json:"images"`
	}
	if err := getJSON(ctx, s.client, s.gate, "", u, &result, s.retries, s.backoff); err != nil {
		return nil, fmt.Errorf("coverartarchive %s: %w", releaseGroupID, err)
	}

	var images []models.RemoteImage
	seen := map[models.CoverType]bool{}
	for _, img := range result.Images {
		if img.Image == "" {
			continue
		}
		cover := caaCoverType(img)
		if cover == "" || seen[cover] {
			continue
		}
		seen[cover] = true
		images = append(images, models.RemoteImage{CoverType: cover, URL: img.Image, Provider: s.Name()})
	}
	return images, nil
}

func caaCoverType(img caaImage) models.CoverType {
	if img.Front {
		return models.CoverCover
	}
	for _, t := range img.Types {
		if t == "Medium" {
			return models.CoverDisc
		}
	}
	return ""
}
