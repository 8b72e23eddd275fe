package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/JustinTDCT/TuneVault/internal/artwork"
	"github.com/JustinTDCT/TuneVault/internal/metadata"
	"github.com/JustinTDCT/TuneVault/internal/models"
)

// ──────── Artwork binary downloader ────────

// Downloader turns image rows with cached=false into files on disk. It
// drains the images table on its own clock, honoring one token bucket per
// provider host; explicit download_image jobs jump the line.
type Downloader struct {
	queue        *Queue
	images       ImageStore
	store        *artwork.Store
	client       *http.Client
	concurrency  int
	pollInterval time.Duration
	userAgent    string
	retries      int
	backoff      time.Duration

	mu    sync.Mutex
	gates map[string]*metadata.Gate

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDownloaderWith(q *Queue, images ImageStore, store *artwork.Store,
	gates map[string]*metadata.Gate, userAgent string, concurrency int, pollInterval time.Duration) *Downloader {
	if gates == nil {
		gates = make(map[string]*metadata.Gate)
	}
	return &Downloader{
		queue:        q,
		images:       images,
		store:        store,
		client:       &http.Client{Timeout: 10 * time.Second},
		concurrency:  concurrency,
		pollInterval: pollInterval,
		userAgent:    userAgent,
		retries:      3,
		backoff:      3 * time.Second,
		gates:        gates,
	}
}

func (d *Downloader) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	log.Printf("Downloader: starting %d worker(s), poll %s", d.concurrency, d.pollInterval)
	for i := 0; i < d.concurrency; i++ {
		d.wg.Add(1)
		go d.loop(ctx)
	}
}

func (d *Downloader) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	log.Printf("Downloader: stopped")
}

func (d *Downloader) loop(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		worked, err := d.step(ctx)
		if err != nil {
			log.Printf("Downloader: %v", err)
		}
		if !worked {
			if !sleep(ctx, d.pollInterval) {
				return
			}
		}
	}
}

// step does one unit of work: an explicit download_image job if one is
// queued, otherwise the most overdue pending image row. Reports whether
// anything was there to do.
func (d *Downloader) step(ctx context.Context) (bool, error) {
	job, err := d.queue.Claim([]string{models.JobDownloadImage})
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	if job != nil {
		d.runJob(ctx, job)
		return true, nil
	}

	img, err := d.images.ClaimPendingDownload()
	if err != nil {
		return false, fmt.Errorf("claim image: %w", err)
	}
	if img == nil {
		return false, nil
	}
	if err := d.download(ctx, img); err != nil {
		log.Printf("Downloader: %s %s %s: %v", img.EntityType, img.EntityID, img.CoverType, err)
	}
	return true, nil
}

func (d *Downloader) runJob(ctx context.Context, job *models.Job) {
	var payload DownloadImagePayload
	if job.Metadata != nil {
		if err := json.Unmarshal(*job.Metadata, &payload); err != nil {
			d.queue.markFailed(job, fmt.Errorf("bad payload: %w", err), true)
			return
		}
	}
	img, err := d.images.FindByID(payload.ImageID)
	if err != nil {
		d.queue.markFailed(job, err, false)
		return
	}
	if img == nil {
		d.queue.markFailed(job, fmt.Errorf("image row %s no longer exists", payload.ImageID), true)
		return
	}
	if err := d.download(ctx, img); err != nil {
		d.queue.markFailed(job, err, metadata.IsPermanent(err))
		return
	}
	d.queue.markCompleted(job)
}

// download fetches one image binary and records the outcome on its row.
// Transient network trouble leaves the row pending for a later pass;
// authoritative answers and bad payloads park it as failed.
func (d *Downloader) download(ctx context.Context, img *models.Image) error {
	gate := d.gate(img.Provider)
	data, contentType, err := metadata.FetchBinary(ctx, d.client, gate, img.URL, d.userAgent, d.retries, d.backoff)
	if err != nil {
		if metadata.IsNotFound(err) {
			return d.images.MarkFailed(img.ID, "not found")
		}
		if metadata.IsPermanent(err) {
			return d.images.MarkFailed(img.ID, err.Error())
		}
		return err
	}

	ext := artwork.DetectExt(contentType, data)
	if ext == "" {
		return d.images.MarkFailed(img.ID, fmt.Sprintf("unsupported image type %q", contentType))
	}

	path, err := d.store.Save(img.EntityType, img.EntityID, img.CoverType, ext, data)
	if err != nil {
		if markErr := d.images.MarkFailed(img.ID, "disk: "+err.Error()); markErr != nil {
			return markErr
		}
		return err
	}
	return d.images.MarkCached(img.ID, path)
}

// gate returns the token bucket for a provider, creating a one-per-second
// default for providers first seen at runtime.
func (d *Downloader) gate(provider string) *metadata.Gate {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.gates[provider]
	if !ok {
		g = metadata.NewGate(time.Second)
		d.gates[provider] = g
	}
	return g
}
