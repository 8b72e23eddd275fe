package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ──────────────────── Enums ────────────────────

type EntityType string

const (
	EntityArtist EntityType = "artist"
	EntityAlbum  EntityType = "album"
)

type CoverType string

const (
	CoverPoster   CoverType = "Poster"
	CoverBanner   CoverType = "Banner"
	CoverFanart   CoverType = "Fanart"
	CoverLogo     CoverType = "Logo"
	CoverClearart CoverType = "Clearart"
	CoverThumb    CoverType = "Thumb"
	CoverCover    CoverType = "Cover"
	CoverDisc     CoverType = "Disc"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// DefaultMaxAttempts is the attempt budget a job gets unless the enqueuer
// says otherwise.
const DefaultMaxAttempts = 5

// Job types. Constants live here so enqueuers and workers agree on the
// strings without depending on each other.
const (
	JobFetchArtist       = "fetch_artist"
	JobFetchArtistAlbums = "fetch_artist_albums"
	JobFetchRelease      = "fetch_release"
	JobFetchAlbumFull    = "fetch_album_full"
	JobArtistFull        = "artist_full"
	JobRefreshArtist     = "refresh_artist" // legacy alias for artist_full
	JobFetchArtistText   = "fetch_artist_text"
	JobFetchAlbumText    = "fetch_album_text"
	JobFetchArtistImages = "fetch_artist_images"
	JobFetchAlbumImages  = "fetch_album_images"
	JobDownloadImage     = "download_image"
)

// Priorities. Higher wins within a pool.
const (
	PriorityBackground  = 1
	PriorityBackfill    = 3
	PriorityInteractive = 5
)

// Artist status values derived from the upstream ended flag.
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// ──────────────────── Shared value objects ────────────────────

// ArtistCredit is one entry of an ordered artist-credit list. Stored as jsonb.
type ArtistCredit struct {
	ArtistID   string `json:"artist_id"`
	Name       string `json:"name"`
	JoinPhrase string `json:"join_phrase,omitempty"`
}

// Label is one label attribution on a release. Stored as jsonb.
type Label struct {
	Name          string  `json:"name"`
	CatalogNumber *string `json:"catalog_number,omitempty"`
}

// ReleaseTrack is a track embedded in the denormalized media blob of a release.
type ReleaseTrack struct {
	ID           string         `json:"id"`
	RecordingID  string         `json:"recording_id"`
	Title        string         `json:"title"`
	Position     int            `json:"position"`
	Number       string         `json:"number"`
	LengthMS     *int           `json:"length_ms"`
	ArtistCredit []ArtistCredit `json:"artist_credit,omitempty"`
}

// ReleaseMedium is one disc of a release with its tracks embedded, so the
// hot path can format a full release without joining the tracks table.
type ReleaseMedium struct {
	Format   string         `json:"format"`
	Name     string         `json:"name,omitempty"`
	Position int            `json:"position"`
	Tracks   []ReleaseTrack `json:"tracks"`
}

// ──────────────────── Artist ────────────────────

// Artist ids are upstream-assigned MBIDs and therefore plain strings; only
// locally-generated rows (jobs, images, bulk refreshes) use our own uuids.
type Artist struct {
	ID                   string         `json:"id" db:"id"`
	Name                 string         `json:"name" db:"name"`
	SortName             string         `json:"sort_name" db:"sort_name"`
	Disambiguation       string         `json:"disambiguation" db:"disambiguation"`
	Type                 *string        `json:"type,omitempty" db:"type"`
	Country              *string        `json:"country,omitempty" db:"country"`
	Gender               *string        `json:"gender,omitempty" db:"gender"`
	BeginDate            *string        `json:"begin_date,omitempty" db:"begin_date"`
	EndDate              *string        `json:"end_date,omitempty" db:"end_date"`
	Ended                bool           `json:"ended" db:"ended"`
	Status               string         `json:"status" db:"status"`
	Aliases              pq.StringArray `json:"aliases" db:"aliases"`
	Tags                 pq.StringArray `json:"tags" db:"tags"`
	Genres               pq.StringArray `json:"genres" db:"genres"`
	RatingValue          *float64       `json:"rating_value,omitempty" db:"rating_value"`
	RatingCount          int            `json:"rating_count" db:"rating_count"`
	Overview             *string        `json:"overview,omitempty" db:"overview"`
	AccessCount          int            `json:"access_count" db:"access_count"`
	LastAccessedAt       *time.Time     `json:"last_accessed_at,omitempty" db:"last_accessed_at"`
	LastUpdatedAt        time.Time      `json:"last_updated_at" db:"last_updated_at"`
	TTLExpiresAt         *time.Time     `json:"ttl_expires_at,omitempty" db:"ttl_expires_at"`
	FetchComplete        bool           `json:"fetch_complete" db:"fetch_complete"`
	ReleasesFetchedCount int            `json:"releases_fetched_count" db:"releases_fetched_count"`
	LastFetchAttempt     *time.Time     `json:"last_fetch_attempt,omitempty" db:"last_fetch_attempt"`
	CreatedAt            time.Time      `json:"created_at" db:"created_at"`
	// Carried alongside a fetch result, persisted separately.
	Links []Link `json:"links,omitempty" db:"-"`
}

// Stale reports whether the artist is due for a refresh: never fully
// fetched, TTL expired, or untouched for longer than maxAge.
func (a *Artist) Stale(now time.Time, maxAge time.Duration) bool {
	if !a.FetchComplete {
		return true
	}
	if a.TTLExpiresAt != nil && a.TTLExpiresAt.Before(now) {
		return true
	}
	return now.Sub(a.LastUpdatedAt) > maxAge
}

// ──────────────────── Release group ────────────────────

type ReleaseGroup struct {
	ID               string         `json:"id" db:"id"`
	Title            string         `json:"title" db:"title"`
	Disambiguation   string         `json:"disambiguation" db:"disambiguation"`
	PrimaryType      *string        `json:"primary_type,omitempty" db:"primary_type"`
	SecondaryTypes   pq.StringArray `json:"secondary_types" db:"secondary_types"`
	FirstReleaseDate *string        `json:"first_release_date,omitempty" db:"first_release_date"`
	ArtistCredit     []ArtistCredit `json:"artist_credit" db:"artist_credit"`
	Aliases          pq.StringArray `json:"aliases" db:"aliases"`
	Tags             pq.StringArray `json:"tags" db:"tags"`
	Genres           pq.StringArray `json:"genres" db:"genres"`
	RatingValue      *float64       `json:"rating_value,omitempty" db:"rating_value"`
	RatingCount      int            `json:"rating_count" db:"rating_count"`
	Overview         *string        `json:"overview,omitempty" db:"overview"`
	AccessCount      int            `json:"access_count" db:"access_count"`
	LastAccessedAt   *time.Time     `json:"last_accessed_at,omitempty" db:"last_accessed_at"`
	LastUpdatedAt    time.Time      `json:"last_updated_at" db:"last_updated_at"`
	TTLExpiresAt     *time.Time     `json:"ttl_expires_at,omitempty" db:"ttl_expires_at"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	// Carried alongside a fetch result, persisted separately.
	Links []Link `json:"links,omitempty" db:"-"`
}

// CreditedArtistID returns the first credited artist, or "" when the credit
// list is unknown.
func (rg *ReleaseGroup) CreditedArtistID() string {
	if len(rg.ArtistCredit) == 0 {
		return ""
	}
	return rg.ArtistCredit[0].ArtistID
}

// ──────────────────── Release ────────────────────

type Release struct {
	ID             string          `json:"id" db:"id"`
	ReleaseGroupID string          `json:"release_group_id" db:"release_group_id"`
	Title          string          `json:"title" db:"title"`
	Status         *string         `json:"status,omitempty" db:"status"`
	ReleaseDate    *string         `json:"release_date,omitempty" db:"release_date"`
	Country        *string         `json:"country,omitempty" db:"country"`
	Barcode        *string         `json:"barcode,omitempty" db:"barcode"`
	Labels         []Label         `json:"labels" db:"labels"`
	ArtistCredit   []ArtistCredit  `json:"artist_credit" db:"artist_credit"`
	MediaCount     int             `json:"media_count" db:"media_count"`
	TrackCount     int             `json:"track_count" db:"track_count"`
	Disambiguation string          `json:"disambiguation" db:"disambiguation"`
	Media          []ReleaseMedium `json:"media" db:"media"`
	LastUpdatedAt  time.Time       `json:"last_updated_at" db:"last_updated_at"`
}

type Recording struct {
	ID             string    `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Disambiguation string    `json:"disambiguation" db:"disambiguation"`
	LengthMS       *int      `json:"length_ms,omitempty" db:"length_ms"`
	LastUpdatedAt  time.Time `json:"last_updated_at" db:"last_updated_at"`
}

// Track is one placement of a Recording on a Release. The id is the
// upstream track MBID.
type Track struct {
	ID           string         `json:"id" db:"id"`
	ReleaseID    string         `json:"release_id" db:"release_id"`
	RecordingID  string         `json:"recording_id" db:"recording_id"`
	MediumNumber int            `json:"medium_number" db:"medium_number"`
	Position     int            `json:"position" db:"position"`
	Number       string         `json:"number" db:"number"`
	Title        string         `json:"title" db:"title"`
	LengthMS     *int           `json:"length_ms,omitempty" db:"length_ms"`
	ArtistCredit []ArtistCredit `json:"artist_credit" db:"artist_credit"`
}

// ──────────────────── Links & images ────────────────────

type Link struct {
	ID         int64      `json:"id" db:"id"`
	EntityType EntityType `json:"entity_type" db:"entity_type"`
	EntityID   string     `json:"entity_id" db:"entity_id"`
	LinkType   string     `json:"link_type" db:"link_type"`
	URL        string     `json:"url" db:"url"`
}

type Image struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	EntityType        EntityType `json:"entity_type" db:"entity_type"`
	EntityID          string     `json:"entity_id" db:"entity_id"`
	CoverType         CoverType  `json:"cover_type" db:"cover_type"`
	Provider          string     `json:"provider" db:"provider"`
	URL               string     `json:"url" db:"url"`
	LocalPath         *string    `json:"local_path,omitempty" db:"local_path"`
	Cached            bool       `json:"cached" db:"cached"`
	CacheFailed       bool       `json:"cache_failed" db:"cache_failed"`
	CacheFailedReason *string    `json:"cache_failed_reason,omitempty" db:"cache_failed_reason"`
	UserUploaded      bool       `json:"user_uploaded" db:"user_uploaded"`
	LastVerifiedAt    *time.Time `json:"last_verified_at,omitempty" db:"last_verified_at"`
	CachedAt          *time.Time `json:"cached_at,omitempty" db:"cached_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// RemoteImage is an artwork URL discovered by a provider, before any
// download has happened.
type RemoteImage struct {
	CoverType CoverType `json:"cover_type"`
	URL       string    `json:"url"`
	Provider  string    `json:"provider"`
}

// ──────────────────── Jobs ────────────────────

type Job struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	JobType      string           `json:"job_type" db:"job_type"`
	EntityType   EntityType       `json:"entity_type" db:"entity_type"`
	EntityID     string           `json:"entity_id" db:"entity_id"`
	Priority     int              `json:"priority" db:"priority"`
	Status       JobStatus        `json:"status" db:"status"`
	Attempts     int              `json:"attempts" db:"attempts"`
	MaxAttempts  int              `json:"max_attempts" db:"max_attempts"`
	Metadata     *json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	ErrorMessage *string          `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	StartedAt    *time.Time       `json:"started_at,omitempty" db:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
}

type JobStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

type BulkRefresh struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	StartedAt        time.Time  `json:"started_at" db:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Status           string     `json:"status" db:"status"`
	ArtistsRefreshed int        `json:"artists_refreshed" db:"artists_refreshed"`
}

// CacheStats is the admin dashboard summary of what the cache holds.
type CacheStats struct {
	Artists        int `json:"artists"`
	ArtistsFetched int `json:"artists_fetched"`
	Albums         int `json:"albums"`
	Releases       int `json:"releases"`
	Recordings     int `json:"recordings"`
	Tracks         int `json:"tracks"`
	ImagesTotal    int `json:"images_total"`
	ImagesCached   int `json:"images_cached"`
	ImagesFailed   int `json:"images_failed"`
}

// ──────────────────── Search ────────────────────

// ArtistSearchResult is one hit from the canonical provider's artist search.
type ArtistSearchResult struct {
	Artist *Artist
	Score  int
}

// AlbumSearchResult is one hit from the canonical provider's album search.
type AlbumSearchResult struct {
	ReleaseGroup *ReleaseGroup
	Score        int
}

// ──────────────────── Dates ────────────────────

// NormalizeDate pads partial upstream dates to YYYY-MM-DD: "1977" becomes
// "1977-01-01" and "1977-06" becomes "1977-06-01". Empty input stays nil
// (unknown is not the same as January 1st of year zero).
func NormalizeDate(s string) *string {
	if s == "" {
		return nil
	}
	switch len(s) {
	case 4:
		d := s + "-01-01"
		return &d
	case 7:
		d := s + "-01"
		return &d
	default:
		d := s
		return &d
	}
}
