package metadata

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

const audioDBBaseURL = "https://www.theaudiodb.com/api/v1/json"

// AudioDBScraper pulls encyclopedic overview text from TheAudioDB, looked
// up by MBID. It also exposes the artist thumbnail it happens to return,
// which makes it a useful artwork fallback when fanart.tv has nothing.
type AudioDBScraper struct {
	apiKey  string
	client  *http.Client
	gate    *Gate
	baseURL string
	retries int
	backoff time.Duration
}

func NewAudioDBScraper(apiKey, baseURL string, minInterval time.Duration) *AudioDBScraper {
	if apiKey == "" {
		apiKey = "2" // public test key
	}
	if baseURL == "" {
		baseURL = audioDBBaseURL
	}
	if minInterval == 0 {
		minInterval = 1000 * time.Millisecond
	}
	return &AudioDBScraper{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		gate:    NewGate(minInterval),
		baseURL: baseURL,
		retries: defaultRetryCount,
		backoff: defaultRetryBase,
	}
}

func (s *AudioDBScraper) Name() string { return "audiodb" }

func (s *AudioDBScraper) Capabilities() []Capability {
	return []Capability{CapArtistText, CapAlbumText, CapArtistImages, CapAlbumImages}
}

type audioDBArtist struct {
	Name        string `json:"strArtist"`
	Biography   string `json:"strBiographyEN"`
	Thumb       string `json:"strArtistThumb"`
	Banner      string `json:"strArtistBanner"`
	Logo        string `json:"strArtistLogo"`
	Clearart    string `json:"strArtistClearart"`
	WideThumb   string `json:"strArtistWideThumb"`
	Fanart      string `json:"strArtistFanart"`
}

type audioDBAlbum struct {
	Album       string `json:"strAlbum"`
	Description string `json:"strDescriptionEN"`
	Thumb       string `json:"strAlbumThumb"`
	CDart       string `json:"strAlbumCDart"`
}

func (s *AudioDBScraper) ArtistText(ctx context.Context, mbid string) (string, error) {
	artist, err := s.lookupArtist(ctx, mbid)
	if err != nil {
		return "", err
	}
	if artist.Biography == "" {
		return "", ErrNotFound
	}
	return artist.Biography, nil
}

func (s *AudioDBScraper) AlbumText(ctx context.Context, releaseGroupID string) (string, error) {
	album, err := s.lookupAlbum(ctx, releaseGroupID)
	if err != nil {
		return "", err
	}
	if album.Description == "" {
		return "", ErrNotFound
	}
	return album.Description, nil
}

func (s *AudioDBScraper) ArtistImages(ctx context.Context, mbid string) ([]models.RemoteImage, error) {
	artist, err := s.lookupArtist(ctx, mbid)
	if err != nil {
		return nil, err
	}
	var images []models.RemoteImage
	add := func(cover models.CoverType, url string) {
		if url != "" {
			images = append(images, models.RemoteImage{CoverType: cover, URL: url, Provider: s.Name()})
		}
	}
	add(models.CoverPoster, artist.Thumb)
	add(models.CoverBanner, artist.Banner)
	add(models.CoverLogo, artist.Logo)
	add(models.CoverClearart, artist.Clearart)
	add(models.CoverFanart, artist.Fanart)
	add(models.CoverThumb, artist.WideThumb)
	return images, nil
}

// AlbumImages surfaces the cover and CD art TheAudioDB attaches to its album
// records, as a fallback behind the dedicated artwork providers.
func (s *AudioDBScraper) AlbumImages(ctx context.Context, releaseGroupID string) ([]models.RemoteImage, error) {
	album, err := s.lookupAlbum(ctx, releaseGroupID)
	if err != nil {
		return nil, err
	}
	var images []models.RemoteImage
	add := func(cover models.CoverType, url string) {
		if url != "" {
			images = append(images, models.RemoteImage{CoverType: cover, URL: url, Provider: s.Name()})
		}
	}
	add(models.CoverCover, album.Thumb)
	add(models.CoverDisc, album.CDart)
	return images, nil
}

func (s *AudioDBScraper) lookupArtist(ctx context.Context, mbid string) (*audioDBArtist, error) {
	u := fmt.Sprintf("%s/%s/artist-mb.php?i=%s", s.baseURL, s.apiKey, mbid)
	var result struct {
		Artists []audioDBArtist `json:"artists"`
	}
	if err := getJSON(ctx, s.client, s.gate, "", u, &result, s.retries, s.backoff); err != nil {
		return nil, fmt.Errorf("audiodb artist %s: %w", mbid, err)
	}
	if len(result.Artists) == 0 {
		return nil, ErrNotFound
	}
	return &result.Artists[0], nil
}

func (s *AudioDBScraper) lookupAlbum(ctx context.Context, releaseGroupID string) (*audioDBAlbum, error) {
	u := fmt.Sprintf("%s/%s/album-mb.php?i=%s", s.baseURL, s.apiKey, releaseGroupID)
	var result struct {
		Album []audioDBAlbum `json:"album"`
	}
	if err := getJSON(ctx, s.client, s.gate, "", u, &result, s.retries, s.backoff); err != nil {
		return nil, fmt.Errorf("audiodb album %s: %w", releaseGroupID, err)
	}
	if len(result.Album) == 0 {
		return nil, ErrNotFound
	}
	return &result.Album[0], nil
}
