package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

const (
	musicBrainzBaseURL = "https://musicbrainz.org/ws/2"
	browsePageSize     = 100
)

// MusicBrainzScraper is the canonical provider. Pacing is the caller's
// choice: the default wiring gates the official endpoint at one request
// every two seconds and leaves private mirrors ungated.
type MusicBrainzScraper struct {
	client    *http.Client
	gate      *Gate
	baseURL   string
	userAgent string
	retries   int
	backoff   time.Duration
}

func NewMusicBrainzScraper(baseURL string, minInterval time.Duration, userAgent string) *MusicBrainzScraper {
	if baseURL == "" {
		baseURL = musicBrainzBaseURL
	}
	return &MusicBrainzScraper{
		client:    &http.Client{Timeout: 30 * time.Second},
		gate:      NewGate(minInterval),
		baseURL:   baseURL,
		userAgent: userAgent,
		retries:   defaultRetryCount,
		backoff:   defaultRetryBase,
	}
}

func (s *MusicBrainzScraper) Name() string { return "musicbrainz" }

func (s *MusicBrainzScraper) Capabilities() []Capability {
	return []Capability{
		CapSearchArtist, CapSearchAlbum, CapGetArtist, CapGetArtistAlbums,
		CapGetReleaseGroup, CapGetReleases, CapGetRelease,
	}
}

// ──────────────────── Wire shapes ────────────────────

type mbLifeSpan struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
	Ended bool   `json:"ended"`
}

type mbAlias struct {
	Name string `json:"name"`
}

type mbTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type mbRating struct {
	VotesCount int      `json:"votes-count"`
	Value      *float64 `json:"value"`
}

type mbRelation struct {
	Type string `json:"type"`
	URL  struct {
		Resource string `json:"resource"`
	} `json:"url"`
}

type mbCreditArtist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
}

type mbArtistCredit struct {
	Name       string         `json:"name"`
	JoinPhrase string         `json:"joinphrase"`
	Artist     mbCreditArtist `json:"artist"`
}

type mbArtist struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	SortName       string       `json:"sort-name"`
	Disambiguation string       `json:"disambiguation"`
	Type           string       `json:"type"`
	Country        string       `json:"country"`
	Gender         string       `json:"gender"`
	LifeSpan       mbLifeSpan   `json:"life-span"`
	Aliases        []mbAlias    `json:"aliases"`
	Tags           []mbTag      `json:"tags"`
	Genres         []mbTag      `json:"genres"`
	Rating         mbRating     `json:"rating"`
	Relations      []mbRelation `json:"relations"`
	Score          int          `json:"score"`
}

type mbReleaseGroup struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Disambiguation   string           `json:"disambiguation"`
	PrimaryType      string           `json:"primary-type"`
	SecondaryTypes   []string         `json:"secondary-types"`
	FirstReleaseDate string           `json:"first-release-date"`
	ArtistCredit     []mbArtistCredit `json:"artist-credit"`
	Aliases          []mbAlias        `json:"aliases"`
	Tags             []mbTag          `json:"tags"`
	Genres           []mbTag          `json:"genres"`
	Rating           mbRating         `json:"rating"`
	Relations        []mbRelation     `json:"relations"`
	Score            int              `json:"score"`
}

type mbLabelInfo struct {
	CatalogNumber string `json:"catalog-number"`
	Label         struct {
		Name string `json:"name"`
	} `json:"label"`
}

type mbRecording struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Disambiguation string `json:"disambiguation"`
	Length         *int   `json:"length"`
}

type mbTrack struct {
	ID           string           `json:"id"`
	Number       string           `json:"number"`
	Position     int              `json:"position"`
	Title        string           `json:"title"`
	Length       *int             `json:"length"`
	ArtistCredit []mbArtistCredit `json:"artist-credit"`
	Recording    mbRecording      `json:"recording"`
}

type mbMedium struct {
	Format     string    `json:"format"`
	Title      string    `json:"title"`
	Position   int       `json:"position"`
	TrackCount int       `json:"track-count"`
	Tracks     []mbTrack `json:"tracks"`
}

type mbRelease struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Status         string           `json:"status"`
	Date           string           `json:"date"`
	Country        string           `json:"country"`
	Barcode        string           `json:"barcode"`
	Disambiguation string           `json:"disambiguation"`
	LabelInfo      []mbLabelInfo    `json:"label-info"`
	Media          []mbMedium       `json:"media"`
	ArtistCredit   []mbArtistCredit `json:"artist-credit"`
	ReleaseGroup   *mbReleaseGroup  `json:"release-group"`
}

// ──────────────────── Lookups ────────────────────

func (s *MusicBrainzScraper) GetArtist(ctx context.Context, id string) (*models.Artist, error) {
	u := fmt.Sprintf("%s/artist/%s?fmt=json&inc=aliases+tags+genres+ratings+url-rels", s.baseURL, url.PathEscape(id))
	var raw mbArtist
	if err := s.get(ctx, u, &raw); err != nil {
		return nil, fmt.Errorf("musicbrainz artist %s: %w", id, err)
	}
	return s.toArtist(&raw), nil
}

func (s *MusicBrainzScraper) GetArtistAlbums(ctx context.Context, artistID string) ([]*models.ReleaseGroup, error) {
	var all []*models.ReleaseGroup
	for offset := 0; ; offset += browsePageSize {
		u := fmt.Sprintf("%s/release-group?artist=%s&fmt=json&inc=artist-credits&limit=%d&offset=%d",
			s.baseURL, url.QueryEscape(artistID), browsePageSize, offset)
		var page struct {
			Count         int              `json:"release-group-count"`
			ReleaseGroups []mbReleaseGroup `json:"release-groups"`
		}
		if err := s.get(ctx, u, &page); err != nil {
			return nil, fmt.Errorf("musicbrainz release-groups for %s: %w", artistID, err)
		}
		for i := range page.ReleaseGroups {
			all = append(all, s.toReleaseGroup(&page.ReleaseGroups[i]))
		}
		if offset+browsePageSize >= page.Count || len(page.ReleaseGroups) == 0 {
			break
		}
	}
	return all, nil
}

func (s *MusicBrainzScraper) GetReleaseGroup(ctx context.Context, id string) (*models.ReleaseGroup, error) {
	u := fmt.Sprintf("%s/release-group/%s?fmt=json&inc=artist-credits+aliases+tags+genres+ratings+url-rels", s.baseURL, url.PathEscape(id))
	var raw mbReleaseGroup
	if err := s.get(ctx, u, &raw); err != nil {
		return nil, fmt.Errorf("musicbrainz release-group %s: %w", id, err)
	}
	return s.toReleaseGroup(&raw), nil
}

func (s *MusicBrainzScraper) GetReleasesByReleaseGroup(ctx context.Context, releaseGroupID string) ([]*models.Release, error) {
	var all []*models.Release
	for offset := 0; ; offset += browsePageSize {
		u := fmt.Sprintf("%s/release?release-group=%s&fmt=json&inc=labels+media+artist-credits&limit=%d&offset=%d",
			s.baseURL, url.QueryEscape(releaseGroupID), browsePageSize, offset)
		var page struct {
			Count    int         `json:"release-count"`
			Releases []mbRelease `json:"releases"`
		}
		if err := s.get(ctx, u, &page); err != nil {
			return nil, fmt.Errorf("musicbrainz releases for %s: %w", releaseGroupID, err)
		}
		for i := range page.Releases {
			r := s.toRelease(&page.Releases[i])
			r.ReleaseGroupID = releaseGroupID
			all = append(all, r)
		}
		if offset+browsePageSize >= page.Count || len(page.Releases) == 0 {
			break
		}
	}
	return all, nil
}

func (s *MusicBrainzScraper) GetRelease(ctx context.Context, id string) (*models.Release, error) {
	u := fmt.Sprintf("%s/release/%s?fmt=json&inc=recordings+artist-credits+labels+media+release-groups", s.baseURL, url.PathEscape(id))
	var raw mbRelease
	if err := s.get(ctx, u, &raw); err != nil {
		return nil, fmt.Errorf("musicbrainz release %s: %w", id, err)
	}
	r := s.toRelease(&raw)
	if raw.ReleaseGroup != nil {
		r.ReleaseGroupID = raw.ReleaseGroup.ID
	}
	return r, nil
}

// ──────────────────── Search ────────────────────

func (s *MusicBrainzScraper) SearchArtists(ctx context.Context, query string, limit int) ([]models.ArtistSearchResult, error) {
	u := fmt.Sprintf("%s/artist?query=%s&limit=%d&fmt=json", s.baseURL, url.QueryEscape(query), limit)
	var page struct {
		Artists []mbArtist `json:"artists"`
	}
	if err := s.get(ctx, u, &page); err != nil {
		return nil, fmt.Errorf("musicbrainz artist search %q: %w", query, err)
	}
	results := make([]models.ArtistSearchResult, 0, len(page.Artists))
	for i := range page.Artists {
		results = append(results, models.ArtistSearchResult{
			Artist: s.toArtist(&page.Artists[i]),
			Score:  page.Artists[i].Score,
		})
	}
	return results, nil
}

func (s *MusicBrainzScraper) SearchAlbums(ctx context.Context, query string, limit int) ([]models.AlbumSearchResult, error) {
	u := fmt.Sprintf("%s/release-group?query=%s&limit=%d&fmt=json", s.baseURL, url.QueryEscape(query), limit)
	var page struct {
		ReleaseGroups []mbReleaseGroup `json:"release-groups"`
	}
	if err := s.get(ctx, u, &page); err != nil {
		return nil, fmt.Errorf("musicbrainz album search %q: %w", query, err)
	}
	results := make([]models.AlbumSearchResult, 0, len(page.ReleaseGroups))
	for i := range page.ReleaseGroups {
		results = append(results, models.AlbumSearchResult{
			ReleaseGroup: s.toReleaseGroup(&page.ReleaseGroups[i]),
			Score:        page.ReleaseGroups[i].Score,
		})
	}
	return results, nil
}

// ──────────────────── Conversion ────────────────────

func (s *MusicBrainzScraper) get(ctx context.Context, rawURL string, out interface{}) error {
	return getJSON(ctx, s.client, s.gate, s.userAgent, rawURL, out, s.retries, s.backoff)
}

func (s *MusicBrainzScraper) toArtist(raw *mbArtist) *models.Artist {
	a := &models.Artist{
		ID:             raw.ID,
		Name:           raw.Name,
		SortName:       raw.SortName,
		Disambiguation: raw.Disambiguation,
		Type:           optional(raw.Type),
		Country:        optional(raw.Country),
		Gender:         optional(raw.Gender),
		BeginDate:      models.NormalizeDate(raw.LifeSpan.Begin),
		EndDate:        models.NormalizeDate(raw.LifeSpan.End),
		Ended:          raw.LifeSpan.Ended,
		Status:         models.StatusActive,
		Aliases:        aliasNames(raw.Aliases),
		Tags:           tagNames(raw.Tags),
		Genres:         tagNames(raw.Genres),
		RatingValue:    raw.Rating.Value,
		RatingCount:    raw.Rating.VotesCount,
		Links:          convRelations(models.EntityArtist, raw.ID, raw.Relations),
	}
	if a.Ended {
		a.Status = models.StatusEnded
	}
	return a
}

func (s *MusicBrainzScraper) toReleaseGroup(raw *mbReleaseGroup) *models.ReleaseGroup {
	return &models.ReleaseGroup{
		ID:               raw.ID,
		Title:            raw.Title,
		Disambiguation:   raw.Disambiguation,
		PrimaryType:      optional(raw.PrimaryType),
		SecondaryTypes:   orEmpty(raw.SecondaryTypes),
		FirstReleaseDate: models.NormalizeDate(raw.FirstReleaseDate),
		ArtistCredit:     convCredit(raw.ArtistCredit),
		Aliases:          aliasNames(raw.Aliases),
		Tags:             tagNames(raw.Tags),
		Genres:           tagNames(raw.Genres),
		RatingValue:      raw.Rating.Value,
		RatingCount:      raw.Rating.VotesCount,
		Links:            convRelations(models.EntityAlbum, raw.ID, raw.Relations),
	}
}

func (s *MusicBrainzScraper) toRelease(raw *mbRelease) *models.Release {
	rel := &models.Release{
		ID:             raw.ID,
		Title:          raw.Title,
		Status:         optional(raw.Status),
		ReleaseDate:    models.NormalizeDate(raw.Date),
		Country:        optional(raw.Country),
		Barcode:        optional(raw.Barcode),
		ArtistCredit:   convCredit(raw.ArtistCredit),
		Disambiguation: raw.Disambiguation,
		MediaCount:     len(raw.Media),
		Labels:         make([]models.Label, 0, len(raw.LabelInfo)),
		Media:          make([]models.ReleaseMedium, 0, len(raw.Media)),
	}
	for _, li := range raw.LabelInfo {
		if li.Label.Name == "" {
			continue
		}
		rel.Labels = append(rel.Labels, models.Label{
			Name:          li.Label.Name,
			CatalogNumber: optional(li.CatalogNumber),
		})
	}
	for _, m := range raw.Media {
		medium := models.ReleaseMedium{
			Format:   m.Format,
			Name:     m.Title,
			Position: m.Position,
			Tracks:   make([]models.ReleaseTrack, 0, len(m.Tracks)),
		}
		for _, t := range m.Tracks {
			length := t.Length
			if length == nil {
				length = t.Recording.Length
			}
			medium.Tracks = append(medium.Tracks, models.ReleaseTrack{
				ID:           t.ID,
				RecordingID:  t.Recording.ID,
				Title:        t.Title,
				Position:     t.Position,
				Number:       t.Number,
				LengthMS:     length,
				ArtistCredit: convCredit(t.ArtistCredit),
			})
		}
		if m.TrackCount > 0 {
			rel.TrackCount += m.TrackCount
		} else {
			rel.TrackCount += len(m.Tracks)
		}
		rel.Media = append(rel.Media, medium)
	}
	return rel
}

func convCredit(raw []mbArtistCredit) []models.ArtistCredit {
	if raw == nil {
		return nil
	}
	out := make([]models.ArtistCredit, 0, len(raw))
	for _, c := range raw {
		name := c.Name
		if name == "" {
			name = c.Artist.Name
		}
		out = append(out, models.ArtistCredit{
			ArtistID:   c.Artist.ID,
			Name:       name,
			JoinPhrase: c.JoinPhrase,
		})
	}
	return out
}

func convRelations(entityType models.EntityType, entityID string, raw []mbRelation) []models.Link {
	var out []models.Link
	for _, rel := range raw {
		if rel.URL.Resource == "" {
			continue
		}
		out = append(out, models.Link{
			EntityType: entityType,
			EntityID:   entityID,
			LinkType:   rel.Type,
			URL:        rel.URL.Resource,
		})
	}
	return out
}

func aliasNames(raw []mbAlias) []string {
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		if a.Name != "" {
			out = append(out, a.Name)
		}
	}
	return out
}

func tagNames(raw []mbTag) []string {
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if t.Name != "" {
			out = append(out, t.Name)
		}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
