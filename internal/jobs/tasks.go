package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JustinTDCT/TuneVault/internal/artwork"
	"github.com/JustinTDCT/TuneVault/internal/metadata"
	"github.com/JustinTDCT/TuneVault/internal/models"
)

// ──────── Pool definitions ────────

// CanonicalTypes is the job-type set of the single-worker canonical pool.
// Ordering through one worker keeps the upstream rate limit predictable.
var CanonicalTypes = []string{
	models.JobFetchArtist,
	models.JobFetchArtistAlbums,
	models.JobFetchRelease,
	models.JobFetchAlbumFull,
	models.JobArtistFull,
	models.JobRefreshArtist,
}

var TextTypes = []string{
	models.JobFetchArtistText,
	models.JobFetchAlbumText,
}

var ImageTypes = []string{
	models.JobFetchArtistImages,
	models.JobFetchAlbumImages,
}

const (
	CanonicalConcurrency = 1
	TextConcurrency      = 2
	ImageConcurrency     = 2
	DownloadConcurrency  = 3

	CanonicalPoll = 1000 * time.Millisecond
	TextPoll      = 1000 * time.Millisecond
	ImagePoll     = 500 * time.Millisecond
	DownloadPoll  = 500 * time.Millisecond
)

// ──────── Payloads ────────

// DownloadImagePayload points a download_image job at one images row.
type DownloadImagePayload struct {
	ImageID uuid.UUID `json:"image_id"`
}

type EventNotifier interface {
	Broadcast(event string, data interface{})
}

// CanonicalFetcher is the slice of the orchestrator the canonical workers
// call back into. Declared here so the orchestrator can enqueue jobs without
// the two packages importing each other.
type CanonicalFetcher interface {
	FetchArtist(ctx context.Context, id string) error
	FetchArtistAlbums(ctx context.Context, id string) error
	FetchRelease(ctx context.Context, id string) error
	FetchAlbumFull(ctx context.Context, releaseGroupID string) error
	FetchArtistFull(ctx context.Context, id string) error
}

// OverviewStore is where the text handler lands its prose. Satisfied by the
// artist and album repositories.
type OverviewStore interface {
	SetOverview(id, overview string) error
}

// ImageStore is the images-table slice the artwork workers use: the URL
// handler records rows, the downloader claims and resolves them.
type ImageStore interface {
	UpsertImageURL(img *models.Image) error
	ClaimPendingDownload() (*models.Image, error)
	FindByID(id uuid.UUID) (*models.Image, error)
	MarkCached(id uuid.UUID, localPath string) error
	MarkFailed(id uuid.UUID, reason string) error
}

// ──────── Register all handlers ────────

func RegisterHandlers(q *Queue, fetcher CanonicalFetcher, registry *metadata.Registry,
	artistStore, albumStore OverviewStore, imageStore ImageStore) {

	canonical := NewCanonicalHandler(fetcher)
	for _, t := range CanonicalTypes {
		q.RegisterHandler(t, canonical)
	}

	text := NewTextHandler(registry, artistStore, albumStore)
	q.RegisterHandler(models.JobFetchArtistText, text)
	q.RegisterHandler(models.JobFetchAlbumText, text)

	images := NewImagesHandler(registry, imageStore)
	q.RegisterHandler(models.JobFetchArtistImages, images)
	q.RegisterHandler(models.JobFetchAlbumImages, images)
}

// NewPools builds the three queue-driven pools with their default shapes.
// The binary downloader is separate; it drains the images table, not the
// queue.
func NewPools(q *Queue) []*Pool {
	return []*Pool{
		NewPool("canonical", q, CanonicalTypes, CanonicalConcurrency, CanonicalPoll),
		NewPool("text", q, TextTypes, TextConcurrency, TextPoll),
		NewPool("artwork-url", q, ImageTypes, ImageConcurrency, ImagePoll),
	}
}

// NewDownloader builds the artwork-binary worker with its default shape.
func NewDownloader(q *Queue, imageStore ImageStore, store *artwork.Store,
	gates map[string]*metadata.Gate, userAgent string) *Downloader {
	return NewDownloaderWith(q, imageStore, store, gates, userAgent, DownloadConcurrency, DownloadPoll)
}
