package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

func TestCAAAlbumImages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/release-group/rg-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"images": [
			{"image": "https://caa/front.jpg", "front": true, "types": ["Front"]},
			{"image": "https://caa/front2.jpg", "front": true, "types": ["Front"]},
			{"image": "https://caa/medium.jpg", "front": false, "types": ["Medium"]},
			{"image": "https://caa/back.jpg", "front": false, "types": ["Back"]},
			{"image": "", "front": true}
		]}`))
	}))
	defer ts.Close()

	s := NewCAAScraper(ts.URL, -1)
	s.backoff = 0

	images, err := s.AlbumImages(context.Background(), "rg-1")
	if err != nil {
		t.Fatalf("AlbumImages failed: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("got %d images, want 2 (front + medium, duplicates and backs dropped)", len(images))
	}

	byType := map[models.CoverType]string{}
	for _, img := range images {
		if img.Provider != "coverartarchive" {
			t.Errorf("provider = %q, want coverartarchive", img.Provider)
		}
		byType[img.CoverType] = img.URL
	}
	if byType[models.CoverCover] != "https://caa/front.jpg" {
		t.Errorf("cover = %q, want the first front image", byType[models.CoverCover])
	}
	if byType[models.CoverDisc] != "https://caa/medium.jpg" {
		t.Errorf("disc = %q", byType[models.CoverDisc])
	}
}

func TestCAAArtistImages(t *testing.T) {
	s := NewCAAScraper("http://unused", -1)
	if _, err := s.ArtistImages(context.Background(), "mbid-1"); !IsNotFound(err) {
		t.Errorf("ArtistImages returned %v, want not-found (CAA has no artist art)", err)
	}
}

func TestCAANotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	s := NewCAAScraper(ts.URL, -1)
	s.backoff = 0
	if _, err := s.AlbumImages(context.Background(), "rg-gone"); !IsNotFound(err) {
		t.Errorf("AlbumImages returned %v, want not-found", err)
	}
}
