package metadata

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

const fanartBaseURL = "https://webservice.fanart.tv/v3"

// FanartTVScraper discovers artist and album artwork URLs on fanart.tv.
// It requires a personal API key and never downloads binaries itself.
type FanartTVScraper struct {
	apiKey  string
	client  *http.Client
	gate    *Gate
	baseURL string
	retries int
	backoff time.Duration
}

func NewFanartTVScraper(apiKey, baseURL string, minInterval time.Duration) *FanartTVScraper {
	if baseURL == "" {
		baseURL = fanartBaseURL
	}
	if minInterval == 0 {
		minInterval = 500 * time.Millisecond
	}
	return &FanartTVScraper{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		gate:    NewGate(minInterval),
		baseURL: baseURL,
		retries: defaultRetryCount,
		backoff: defaultRetryBase,
	}
}

func (s *FanartTVScraper) Name() string { return "fanarttv" }

func (s *FanartTVScraper) Capabilities() []Capability {
	return []Capability{CapArtistImages, CapAlbumImages}
}

type fanartImage struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Likes string `json:"likes"`
	Lang  string `json:"lang"`
}

type fanartAlbum struct {
	AlbumCover []fanartImage `json:"albumcover"`
	CDArt      []fanartImage `json:"cdart"`
}

func (s *FanartTVScraper) ArtistImages(ctx context.Context, mbid string) ([]models.RemoteImage, error) {
	if s.apiKey == "" {
		return nil, Permanentf("fanart.tv API key not configured")
	}
	u := fmt.Sprintf("%s/music/%s?api_key=%s", s.baseURL, mbid, s.apiKey)

	var result struct {
		ArtistThumbs      []fanartImage `json:"artistthumb"`
		ArtistBackgrounds []fanartImage `json:"artistbackground"`
		HDMusicLogos      []fanartImage `json:"hdmusiclogo"`
		MusicLogos        []fanartImage `json:"musiclogo"`
		MusicBanners      []fanartImage `json:"musicbanner"`
	}
	if err := getJSON(ctx, s.client, s.gate, "", u, &result, s.retries, s.backoff); err != nil {
		return nil, fmt.Errorf("fanart.tv artist %s: %w", mbid, err)
	}

	var images []models.RemoteImage
	add := func(cover models.CoverType, sets ...[]fanartImage) {
		if url := firstFanartURL(sets...); url != "" {
			images = append(images, models.RemoteImage{CoverType: cover, URL: url, Provider: s.Name()})
		}
	}
	add(models.CoverPoster, result.ArtistThumbs)
	add(models.CoverFanart, result.ArtistBackgrounds)
	add(models.CoverLogo, result.HDMusicLogos, result.MusicLogos)
	add(models.CoverBanner, result.MusicBanners)
	return images, nil
}

func (s *FanartTVScraper) AlbumImages(ctx context.Context, releaseGroupID string) ([]models.RemoteImage, error) {
	if s.apiKey == "" {
		return nil, Permanentf("fanart.tv API key not configured")
	}
	u := fmt.Sprintf("%s/music/albums/%s?api_key=%s", s.baseURL, releaseGroupID, s.apiKey)

	var result struct {
		Albums map[string]fanartAlbum `json:"albums"`
	}
	if err := getJSON(ctx, s.client, s.gate, "", u, &result, s.retries, s.backoff); err != nil {
		return nil, fmt.Errorf("fanart.tv album %s: %w", releaseGroupID, err)
	}

	album, ok := result.Albums[releaseGroupID]
	if !ok {
		return nil, nil
	}
	var images []models.RemoteImage
	if url := firstFanartURL(album.AlbumCover); url != "" {
		images = append(images, models.RemoteImage{CoverType: models.CoverCover, URL: url, Provider: s.Name()})
	}
	if url := firstFanartURL(album.CDArt); url != "" {
		images = append(images, models.RemoteImage{CoverType: models.CoverDisc, URL: url, Provider: s.Name()})
	}
	return images, nil
}

// firstFanartURL picks one URL from the given sets, which are ordered by
// preference. English and untagged images win across all sets before any
// other language is considered.
func firstFanartURL(imageSets ...[]fanartImage) string {
	for _, images := range imageSets {
		for _, img := range images {
			if (img.Lang == "en" || img.Lang == "") && img.URL != "" {
				return img.URL
			}
		}
	}
	for _, images := range imageSets {
		if len(images) > 0 && images[0].URL != "" {
			return images[0].URL
		}
	}
	return ""
}
