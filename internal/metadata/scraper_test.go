package metadata

import "testing"

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewMusicBrainzScraper("http://mb.local", 0, "test"))
	r.Register(NewAudioDBScraper("key", "http://adb.local", -1))
	r.Register(NewFanartTVScraper("key", "http://fanart.local", -1))
	r.Register(NewCAAScraper("http://caa.local", -1))
	return r
}

func TestRegistryCanonical(t *testing.T) {
	r := testRegistry()
	c := r.Canonical()
	if c == nil {
		t.Fatal("Canonical returned nil with musicbrainz registered")
	}
	if c.Name() != "musicbrainz" {
		t.Errorf("Canonical = %q, want musicbrainz", c.Name())
	}

	empty := NewRegistry()
	empty.Register(NewAudioDBScraper("key", "http://adb.local", -1))
	if empty.Canonical() != nil {
		t.Error("Canonical returned a non-canonical scraper")
	}
}

func TestRegistryCapabilities(t *testing.T) {
	r := testRegistry()

	if !r.HasCapability(CapArtistText) {
		t.Error("HasCapability(artist text) = false with audiodb registered")
	}
	if !r.HasCapability(CapAlbumImages) {
		t.Error("HasCapability(album images) = false with fanart and caa registered")
	}
	if NewRegistry().HasCapability(CapArtistText) {
		t.Error("empty registry claims a capability")
	}
}

func TestRegistryScraperSelection(t *testing.T) {
	r := testRegistry()

	names := func(ss []string) map[string]bool {
		m := map[string]bool{}
		for _, s := range ss {
			m[s] = true
		}
		return m
	}

	var artistImg []string
	for _, s := range r.ArtistImageScrapers() {
		artistImg = append(artistImg, s.Name())
	}
	got := names(artistImg)
	if !got["audiodb"] || !got["fanarttv"] {
		t.Errorf("ArtistImageScrapers = %v, want audiodb and fanarttv", artistImg)
	}
	if got["coverartarchive"] {
		t.Error("coverartarchive advertises no artist images but was selected")
	}

	var albumImg []string
	for _, s := range r.AlbumImageScrapers() {
		albumImg = append(albumImg, s.Name())
	}
	got = names(albumImg)
	if !got["fanarttv"] || !got["coverartarchive"] || !got["audiodb"] {
		t.Errorf("AlbumImageScrapers = %v, want fanarttv, coverartarchive and audiodb", albumImg)
	}
	if got["musicbrainz"] {
		t.Error("musicbrainz advertises no album images but was selected")
	}

	var text []string
	for _, s := range r.ArtistTextScrapers() {
		text = append(text, s.Name())
	}
	if len(text) != 1 || text[0] != "audiodb" {
		t.Errorf("ArtistTextScrapers = %v, want just audiodb", text)
	}
}
