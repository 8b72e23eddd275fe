package format

import (
	"testing"

	"github.com/JustinTDCT/TuneVault/internal/config"
	"github.com/JustinTDCT/TuneVault/internal/models"
)

// Counting sources: each records how often it was hit so the tests can pin
// the query fan-out of a formatter call, not just the shape of the result.

type fakeArtistSource struct {
	rows    map[string]*models.Artist
	calls   int
	lastIDs []string
}

func (f *fakeArtistSource) FindArtistsByIDs(ids []string) (map[string]*models.Artist, error) {
	f.calls++
	f.lastIDs = append([]string(nil), ids...)
	out := make(map[string]*models.Artist, len(ids))
	for _, id := range ids {
		if a, ok := f.rows[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

type fakeAlbumSource struct {
	rows  map[string][]*models.ReleaseGroup
	calls int
}

func (f *fakeAlbumSource) ListByArtist(artistID string) ([]*models.ReleaseGroup, error) {
	f.calls++
	return f.rows[artistID], nil
}

type fakeReleaseSource struct {
	rows  map[string][]*models.Release
	calls int
}

func (f *fakeReleaseSource) ListByReleaseGroup(releaseGroupID string) ([]*models.Release, error) {
	f.calls++
	return f.rows[releaseGroupID], nil
}

type fakeLinkSource struct {
	rows        map[string][]models.Link // keyed "entityType|entityID"
	entityCalls int
	batchCalls  int
}

func (f *fakeLinkSource) ListByEntity(entityType models.EntityType, entityID string) ([]models.Link, error) {
	f.entityCalls++
	return f.rows[string(entityType)+"|"+entityID], nil
}

func (f *fakeLinkSource) ListByEntityIDs(entityType models.EntityType, entityIDs []string) (map[string][]models.Link, error) {
	f.batchCalls++
	out := make(map[string][]models.Link, len(entityIDs))
	for _, id := range entityIDs {
		if rows, ok := f.rows[string(entityType)+"|"+id]; ok {
			out[id] = rows
		}
	}
	return out, nil
}

type fakeImageSource struct {
	rows        map[string][]*models.Image
	entityCalls int
	batchCalls  int
}

func (f *fakeImageSource) ListByEntity(entityType models.EntityType, entityID string) ([]*models.Image, error) {
	f.entityCalls++
	return f.rows[string(entityType)+"|"+entityID], nil
}

func (f *fakeImageSource) ListByEntityIDs(entityType models.EntityType, entityIDs []string) (map[string][]*models.Image, error) {
	f.batchCalls++
	out := make(map[string][]*models.Image, len(entityIDs))
	for _, id := range entityIDs {
		if rows, ok := f.rows[string(entityType)+"|"+id]; ok {
			out[id] = rows
		}
	}
	return out, nil
}

func TestFormatArtistJoinsStoredRows(t *testing.T) {
	overview := "Formed in a basement."
	artists := &fakeArtistSource{}
	albums := &fakeAlbumSource{rows: map[string][]*models.ReleaseGroup{
		"a-1": {
			{ID: "rg-1", Title: "First Light", PrimaryType: strPtr("Album")},
			{ID: "rg-2", Title: "Live at Home", PrimaryType: strPtr("Album"), SecondaryTypes: []string{"Live"}},
		},
	}}
	links := &fakeLinkSource{rows: map[string][]models.Link{
		"artist|a-1": {
			{LinkType: "official", URL: "https://example.com"},
			{LinkType: "discogs", URL: "https://discogs.example/a-1"},
		},
	}}
	images := &fakeImageSource{rows: map[string][]*models.Image{
		"artist|a-1": {
			{EntityType: models.EntityArtist, EntityID: "a-1", CoverType: models.CoverPoster, URL: "https://remote/poster.jpg"},
		},
	}}
	f := New(&config.Config{}, artists, albums, &fakeReleaseSource{}, links, images)

	out, err := f.FormatArtist(&models.Artist{
		ID: "a-1", Name: "Sable Coast", SortName: "Coast, Sable",
		Status: "active", Overview: &overview,
	})
	if err != nil {
		t.Fatalf("FormatArtist failed: %v", err)
	}

	if out.Overview != overview {
		t.Errorf("Overview = %q", out.Overview)
	}
	if len(out.Links) != 2 || out.Links[0].Target != "https://example.com" || out.Links[0].Type != "official" {
		t.Errorf("Links = %+v", out.Links)
	}
	if len(out.Images) != 1 || out.Images[0].CoverType != "Poster" {
		t.Errorf("Images = %+v", out.Images)
	}
	if len(out.Albums) != 2 {
		t.Fatalf("Albums = %d, want 2", len(out.Albums))
	}
	if out.Albums[0].ID != "rg-1" || out.Albums[0].Type != "Album" {
		t.Errorf("Albums[0] = %+v", out.Albums[0])
	}
	if len(out.Albums[1].SecondaryTypes) != 1 || out.Albums[1].SecondaryTypes[0] != "Live" {
		t.Errorf("Albums[1].SecondaryTypes = %v", out.Albums[1].SecondaryTypes)
	}

	if links.entityCalls != 1 || images.entityCalls != 1 || albums.calls != 1 {
		t.Errorf("calls = links %d / images %d / albums %d, want 1 each",
			links.entityCalls, images.entityCalls, albums.calls)
	}
	if artists.calls != 0 {
		t.Errorf("FindArtistsByIDs called %d times on the artist path", artists.calls)
	}
}

// Three credits on an album must cost three batched queries total, one per
// source, no matter how many artists are credited.
func TestFormatAlbumBatchesArtistLookups(t *testing.T) {
	artists := &fakeArtistSource{rows: map[string]*models.Artist{
		"a-1": {ID: "a-1", Name: "Sable Coast", Status: "active"},
		"a-2": {ID: "a-2", Name: "Guest Singer", Status: "active"},
	}}
	links := &fakeLinkSource{rows: map[string][]models.Link{
		"album|rg-1": {{LinkType: "allmusic", URL: "https://allmusic.example/rg-1"}},
		"artist|a-1": {{LinkType: "official", URL: "https://example.com"}},
	}}
	images := &fakeImageSource{rows: map[string][]*models.Image{
		"album|rg-1": {
			{EntityType: models.EntityAlbum, EntityID: "rg-1", CoverType: models.CoverCover, URL: "https://remote/cover.jpg"},
		},
		"artist|a-2": {
			{EntityType: models.EntityArtist, EntityID: "a-2", CoverType: models.CoverPoster, URL: "https://remote/a-2.jpg"},
		},
	}}
	releases := &fakeReleaseSource{rows: map[string][]*models.Release{
		"rg-1": {
			{ID: "rel-1", Title: "First Light", Status: strPtr("Official"), TrackCount: 10},
			{ID: "rel-2", Title: "First Light (JP)", Status: strPtr("Official"), TrackCount: 11},
		},
	}}
	f := New(&config.Config{}, artists, &fakeAlbumSource{}, releases, links, images)

	out, err := f.FormatAlbum(&models.ReleaseGroup{
		ID: "rg-1", Title: "First Light", PrimaryType: strPtr("Album"),
		ArtistCredit: []models.ArtistCredit{
			{ArtistID: "a-1", Name: "Sable Coast"},
			{ArtistID: "a-2", Name: "Guest Singer"},
			{ArtistID: "a-9", Name: "Vanished"}, // credited but not stored
		},
	})
	if err != nil {
		t.Fatalf("FormatAlbum failed: %v", err)
	}

	if out.ArtistID != "a-1" {
		t.Errorf("ArtistID = %q, want the first credit", out.ArtistID)
	}
	if len(out.Links) != 1 || out.Links[0].Type != "allmusic" {
		t.Errorf("album Links = %+v", out.Links)
	}
	if len(out.Images) != 1 || out.Images[0].CoverType != "Cover" {
		t.Errorf("album Images = %+v", out.Images)
	}

	// embedded artists keep credit order; unknown credits are dropped
	if len(out.Artists) != 2 {
		t.Fatalf("Artists = %d, want 2", len(out.Artists))
	}
	if out.Artists[0].ID != "a-1" || out.Artists[1].ID != "a-2" {
		t.Errorf("artist order = %s, %s", out.Artists[0].ID, out.Artists[1].ID)
	}
	if len(out.Artists[0].Links) != 1 || out.Artists[0].Links[0].Type != "official" {
		t.Errorf("Artists[0].Links = %+v", out.Artists[0].Links)
	}
	if len(out.Artists[0].Images) != 0 {
		t.Errorf("Artists[0].Images = %+v, want none", out.Artists[0].Images)
	}
	if len(out.Artists[1].Images) != 1 || out.Artists[1].Images[0].CoverType != "Poster" {
		t.Errorf("Artists[1].Images = %+v", out.Artists[1].Images)
	}

	if len(out.Releases) != 2 || out.Releases[0].ID != "rel-1" || out.Releases[1].ID != "rel-2" {
		t.Errorf("Releases = %+v", out.Releases)
	}

	// one batched call per source covers every credit
	if artists.calls != 1 {
		t.Errorf("FindArtistsByIDs calls = %d, want 1", artists.calls)
	}
	if got := artists.lastIDs; len(got) != 3 || got[0] != "a-1" || got[1] != "a-2" || got[2] != "a-9" {
		t.Errorf("batched ids = %v", got)
	}
	if links.batchCalls != 1 || images.batchCalls != 1 {
		t.Errorf("batch calls = links %d / images %d, want 1 each", links.batchCalls, images.batchCalls)
	}
	if links.entityCalls != 1 || images.entityCalls != 1 {
		t.Errorf("entity calls = links %d / images %d, want 1 each (the album itself)",
			links.entityCalls, images.entityCalls)
	}
	if releases.calls != 1 {
		t.Errorf("ListByReleaseGroup calls = %d, want 1", releases.calls)
	}
}
