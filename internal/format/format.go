package format

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/JustinTDCT/TuneVault/internal/config"
	"github.com/JustinTDCT/TuneVault/internal/models"
)

// ──────────────────── Wire shapes ────────────────────
//
// Field order is fixed so the same store state always serializes to the same
// bytes. The mixed casing is load-bearing: the consumer parses these exact
// keys.

type Rating struct {
	Count int      `json:"Count"`
	Value *float64 `json:"Value"`
}

type Link struct {
	Target string `json:"target"`
	Type   string `json:"type"`
}

type Image struct {
	CoverType string `json:"CoverType"`
	URL       string `json:"Url"`
}

// AlbumRef is the compact album entry embedded in an artist response.
type AlbumRef struct {
	ID              string   `json:"Id"`
	OldIDs          []string `json:"OldIds"`
	ReleaseStatuses []string `json:"ReleaseStatuses"`
	SecondaryTypes  []string `json:"SecondaryTypes"`
	Title           string   `json:"Title"`
	Type            string   `json:"Type"`
}

type Artist struct {
	ID             string     `json:"id"`
	ArtistName     string     `json:"artistname"`
	SortName       string     `json:"sortname"`
	Disambiguation string     `json:"disambiguation"`
	Type           *string    `json:"type"`
	Status         string     `json:"status"`
	Overview       string     `json:"overview"`
	Rating         Rating     `json:"rating"`
	Genres         []string   `json:"genres"`
	ArtistAliases  []string   `json:"artistaliases"`
	Links          []Link     `json:"links"`
	Images         []Image    `json:"images"`
	Albums         []AlbumRef `json:"Albums,omitempty"`
}

type Track struct {
	ID            string `json:"id"`
	TrackName     string `json:"trackname"`
	RecordingID   string `json:"recordingid"`
	ArtistID      string `json:"artistid"`
	DurationMS    int    `json:"durationms"`
	TrackNumber   string `json:"tracknumber"`
	TrackPosition int    `json:"trackposition"`
	MediumNumber  int    `json:"mediumnumber"`
}

type Medium struct {
	Format   string `json:"Format"`
	Name     string `json:"Name"`
	Position int    `json:"Position"`
}

type Release struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Status      string   `json:"status"`
	ReleaseDate string   `json:"releasedate"`
	Country     []string `json:"country"`
	Label       []string `json:"label"`
	Media       []Medium `json:"media"`
	TrackCount  int      `json:"track_count"`
	Tracks      []Track  `json:"tracks"`
}

type Album struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Type           string    `json:"type"`
	SecondaryTypes []string  `json:"secondarytypes"`
	Disambiguation string    `json:"disambiguation"`
	Overview       string    `json:"overview"`
	ReleaseDate    string    `json:"releasedate"`
	ArtistID       string    `json:"artistid"`
	Artists        []*Artist `json:"artists"`
	Releases       []Release `json:"releases"`
	Rating         Rating    `json:"rating"`
	Genres         []string  `json:"genres"`
	Links          []Link    `json:"links"`
	Images         []Image   `json:"images"`
	Aliases        []string  `json:"aliases"`
	OldIDs         []string  `json:"oldids"`
}

// SearchResult is one flat entry of a /search response: exactly one of the
// two objects is set.
type SearchResult struct {
	Album  *Album  `json:"album"`
	Artist *Artist `json:"artist"`
	Score  int     `json:"score"`
}

// ──────────────────── Formatter ────────────────────

// The read side the formatter needs from the store. Declared here so tests
// can substitute in-memory fakes; *repository.XxxRepository satisfies each.

type ArtistSource interface {
	FindArtistsByIDs(ids []string) (map[string]*models.Artist, error)
}

type AlbumSource interface {
	ListByArtist(artistID string) ([]*models.ReleaseGroup, error)
}

type ReleaseSource interface {
	ListByReleaseGroup(releaseGroupID string) ([]*models.Release, error)
}

type LinkSource interface {
	ListByEntity(entityType models.EntityType, entityID string) ([]models.Link, error)
	ListByEntityIDs(entityType models.EntityType, entityIDs []string) (map[string][]models.Link, error)
}

type ImageSource interface {
	ListByEntity(entityType models.EntityType, entityID string) ([]*models.Image, error)
	ListByEntityIDs(entityType models.EntityType, entityIDs []string) (map[string][]*models.Image, error)
}

// Formatter turns stored rows into wire shapes. It reads the store, never
// writes it.
type Formatter struct {
	cfg      *config.Config
	artists  ArtistSource
	albums   AlbumSource
	releases ReleaseSource
	links    LinkSource
	images   ImageSource
}

func New(cfg *config.Config, artists ArtistSource, albums AlbumSource,
	releases ReleaseSource, links LinkSource, images ImageSource) *Formatter {
	return &Formatter{
		cfg:      cfg,
		artists:  artists,
		albums:   albums,
		releases: releases,
		links:    links,
		images:   images,
	}
}

// FormatArtist builds the full artist response, album refs included.
func (f *Formatter) FormatArtist(a *models.Artist) (*Artist, error) {
	out := f.artistShape(a)

	links, err := f.links.ListByEntity(models.EntityArtist, a.ID)
	if err != nil {
		return nil, err
	}
	out.Links = formatLinks(links)

	images, err := f.images.ListByEntity(models.EntityArtist, a.ID)
	if err != nil {
		return nil, err
	}
	out.Images = f.formatImages(images)

	groups, err := f.albums.ListByArtist(a.ID)
	if err != nil {
		return nil, err
	}
	out.Albums = make([]AlbumRef, 0, len(groups))
	for _, rg := range groups {
		out.Albums = append(out.Albums, AlbumRef{
			ID:              rg.ID,
			OldIDs:          []string{},
			ReleaseStatuses: []string{},
			SecondaryTypes:  orEmptySlice(rg.SecondaryTypes),
			Title:           rg.Title,
			Type:            deref(rg.PrimaryType),
		})
	}
	return out, nil
}

// FormatAlbum builds the full album response. The embedded artists come from
// three batched queries keyed by id, not one round trip per credit.
func (f *Formatter) FormatAlbum(rg *models.ReleaseGroup) (*Album, error) {
	out := &Album{
		ID:             rg.ID,
		Title:          rg.Title,
		Type:           deref(rg.PrimaryType),
		SecondaryTypes: orEmptySlice(rg.SecondaryTypes),
		Disambiguation: rg.Disambiguation,
		Overview:       deref(rg.Overview),
		ReleaseDate:    deref(rg.FirstReleaseDate),
		ArtistID:       rg.CreditedArtistID(),
		Artists:        []*Artist{},
		Releases:       []Release{},
		Rating:         Rating{Count: rg.RatingCount, Value: rg.RatingValue},
		Genres:         formatGenres(rg.Genres),
		Links:          []Link{},
		Images:         []Image{},
		Aliases:        orEmptySlice(rg.Aliases),
		OldIDs:         []string{},
	}

	links, err := f.links.ListByEntity(models.EntityAlbum, rg.ID)
	if err != nil {
		return nil, err
	}
	out.Links = formatLinks(links)

	images, err := f.images.ListByEntity(models.EntityAlbum, rg.ID)
	if err != nil {
		return nil, err
	}
	out.Images = f.formatImages(images)

	artistIDs := creditArtistIDs(rg.ArtistCredit)
	artistsByID, err := f.artists.FindArtistsByIDs(artistIDs)
	if err != nil {
		return nil, err
	}
	linksByID, err := f.links.ListByEntityIDs(models.EntityArtist, artistIDs)
	if err != nil {
		return nil, err
	}
	imagesByID, err := f.images.ListByEntityIDs(models.EntityArtist, artistIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range artistIDs {
		a, ok := artistsByID[id]
		if !ok {
			continue
		}
		emb := f.artistShape(a)
		emb.Links = formatLinks(linksByID[id])
		emb.Images = f.formatImages(imagesByID[id])
		out.Artists = append(out.Artists, emb)
	}

	stored, err := f.releases.ListByReleaseGroup(rg.ID)
	if err != nil {
		return nil, err
	}
	for _, rel := range stored {
		out.Releases = append(out.Releases, f.formatRelease(rel, out.ArtistID))
	}
	return out, nil
}

// FormatArtistSearchResult shapes a provider search hit. Search results are
// not stored, so there is nothing to join; links, images and albums stay
// empty.
func (f *Formatter) FormatArtistSearchResult(hit *models.ArtistSearchResult) SearchResult {
	return SearchResult{
		Artist: f.artistShape(hit.Artist),
		Score:  hit.Score,
	}
}

func (f *Formatter) FormatAlbumSearchResult(hit *models.AlbumSearchResult) SearchResult {
	rg := hit.ReleaseGroup
	return SearchResult{
		Album: &Album{
			ID:             rg.ID,
			Title:          rg.Title,
			Type:           deref(rg.PrimaryType),
			SecondaryTypes: orEmptySlice(rg.SecondaryTypes),
			Disambiguation: rg.Disambiguation,
			Overview:       deref(rg.Overview),
			ReleaseDate:    deref(rg.FirstReleaseDate),
			ArtistID:       rg.CreditedArtistID(),
			Artists:        []*Artist{},
			Releases:       []Release{},
			Rating:         Rating{Count: rg.RatingCount, Value: rg.RatingValue},
			Genres:         formatGenres(rg.Genres),
			Links:          []Link{},
			Images:         []Image{},
			Aliases:        orEmptySlice(rg.Aliases),
			OldIDs:         []string{},
		},
		Score: hit.Score,
	}
}

// ──────────────────── Pieces ────────────────────

func (f *Formatter) artistShape(a *models.Artist) *Artist {
	return &Artist{
		ID:             a.ID,
		ArtistName:     a.Name,
		SortName:       a.SortName,
		Disambiguation: a.Disambiguation,
		Type:           a.Type,
		Status:         a.Status,
		Overview:       deref(a.Overview),
		Rating:         Rating{Count: a.RatingCount, Value: a.RatingValue},
		Genres:         formatGenres(a.Genres),
		ArtistAliases:  orEmptySlice(a.Aliases),
		Links:          []Link{},
		Images:         []Image{},
	}
}

func (f *Formatter) formatRelease(rel *models.Release, fallbackArtistID string) Release {
	out := Release{
		ID:          rel.ID,
		Title:       rel.Title,
		Status:      deref(rel.Status),
		ReleaseDate: deref(rel.ReleaseDate),
		Country:     []string{},
		Label:       []string{},
		Media:       []Medium{},
		TrackCount:  rel.TrackCount,
		Tracks:      []Track{},
	}
	if rel.Country != nil && *rel.Country != "" {
		out.Country = []string{*rel.Country}
	}
	for _, l := range rel.Labels {
		out.Label = append(out.Label, l.Name)
	}
	for _, m := range rel.Media {
		out.Media = append(out.Media, Medium{Format: m.Format, Name: m.Name, Position: m.Position})
		for _, t := range m.Tracks {
			artistID := fallbackArtistID
			if len(t.ArtistCredit) > 0 {
				artistID = t.ArtistCredit[0].ArtistID
			}
			duration := 0
			if t.LengthMS != nil {
				duration = *t.LengthMS
			}
			out.Tracks = append(out.Tracks, Track{
				ID:            t.ID,
				TrackName:     t.Title,
				RecordingID:   t.RecordingID,
				ArtistID:      artistID,
				DurationMS:    duration,
				TrackNumber:   t.Number,
				TrackPosition: t.Position,
				MediumNumber:  m.Position,
			})
		}
	}
	return out
}

func (f *Formatter) formatImages(images []*models.Image) []Image {
	out := make([]Image, 0, len(images))
	for _, img := range images {
		url := img.URL
		if img.Cached && img.LocalPath != nil {
			url = f.localImageURL(img)
		}
		out = append(out, Image{CoverType: string(img.CoverType), URL: url})
	}
	return out
}

// localImageURL rewrites a cached image to a URL this server can answer. The
// public base comes from config, falling back to the host name and finally
// localhost.
func (f *Formatter) localImageURL(img *models.Image) string {
	ext := filepath.Ext(deref(img.LocalPath))
	return fmt.Sprintf("%s/images/%s/%s/%s%s",
		f.baseURL(), img.EntityType, img.EntityID, img.CoverType, ext)
}

func (f *Formatter) baseURL() string {
	if f.cfg != nil && f.cfg.Server.ServerURL != "" {
		return strings.TrimRight(f.cfg.Server.ServerURL, "/")
	}
	port := 5001
	if f.cfg != nil && f.cfg.Server.Port != 0 {
		port = f.cfg.Server.Port
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return fmt.Sprintf("http://%s:%d", host, port)
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

func formatLinks(links []models.Link) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		out = append(out, Link{Target: l.URL, Type: l.LinkType})
	}
	return out
}

// formatGenres title-cases each genre: "hip hop" comes back as "Hip Hop".
func formatGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		out = append(out, TitleCase(g))
	}
	return out
}

// TitleCase upper-cases the first letter of each space-separated word.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func creditArtistIDs(credits []models.ArtistCredit) []string {
	seen := make(map[string]bool, len(credits))
	var ids []string
	for _, c := range credits {
		if c.ArtistID == "" || seen[c.ArtistID] {
			continue
		}
		seen[c.ArtistID] = true
		ids = append(ids, c.ArtistID)
	}
	return ids
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
