package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/JustinTDCT/TuneVault/internal/config"
	"github.com/JustinTDCT/TuneVault/internal/fetcher"
	"github.com/JustinTDCT/TuneVault/internal/jobs"
	"github.com/JustinTDCT/TuneVault/internal/models"
	"github.com/JustinTDCT/TuneVault/internal/repository"
)

const (
	completedJobRetention = 7 * 24 * time.Hour
	imageRecheckAge       = 30 * 24 * time.Hour
	imageSweepBatch       = 500
)

// Scheduler runs the recurring maintenance work: completed-job cleanup,
// the periodic bulk refresh, and the artwork liveness sweep.
type Scheduler struct {
	cron      *cron.Cron
	cfg       *config.Config
	fetch     *fetcher.Fetcher
	queue     *jobs.Queue
	jobRepo   *repository.JobRepository
	imageRepo *repository.ImageRepository
	bulkRepo  *repository.BulkRefreshRepository

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg *config.Config, fetch *fetcher.Fetcher, queue *jobs.Queue,
	jobRepo *repository.JobRepository, imageRepo *repository.ImageRepository,
	bulkRepo *repository.BulkRefreshRepository) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		cfg:       cfg,
		fetch:     fetch,
		queue:     queue,
		jobRepo:   jobRepo,
		imageRepo: imageRepo,
		bulkRepo:  bulkRepo,
	}
}

func (s *Scheduler) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron.AddFunc("@hourly", s.cleanJobs)
	s.cron.AddFunc("@hourly", s.checkBulkRefresh)
	s.cron.AddFunc("@daily", s.sweepImages)
	s.cron.Start()
	log.Printf("Scheduler: started (job cleanup hourly, refresh check hourly, image sweep daily)")
}

// Stop halts scheduling and waits for any in-flight entry to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	log.Printf("Scheduler: stopped")
}

func (s *Scheduler) cleanJobs() {
	n, err := s.jobRepo.DeleteCompletedBefore(time.Now().Add(-completedJobRetention))
	if err != nil {
		log.Printf("Scheduler: job cleanup: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Scheduler: deleted %d completed job(s)", n)
	}
}

// checkBulkRefresh starts a bulk refresh of expired artists once the
// configured interval has passed since the previous run. Keying off the
// last run's start time keeps the cadence across restarts.
func (s *Scheduler) checkBulkRefresh() {
	days := s.cfg.Refresh.BulkRefreshDays
	if days <= 0 {
		return
	}
	latest, err := s.bulkRepo.Latest()
	if err != nil {
		log.Printf("Scheduler: bulk refresh check: %v", err)
		return
	}
	if latest != nil && time.Since(latest.StartedAt) < time.Duration(days)*24*time.Hour {
		return
	}
	log.Printf("Scheduler: bulk refresh due, refreshing expired artists")
	if _, err := s.fetch.RefreshAll(s.ctx, false); err != nil {
		log.Printf("Scheduler: bulk refresh: %v", err)
	}
}

// sweepImages re-runs artwork discovery for cached images that have not
// been verified lately. Unchanged URLs keep their cached file; a changed
// URL resets the row and the binary pool re-downloads it.
func (s *Scheduler) sweepImages() {
	stale, err := s.imageRepo.ListVerifiedBefore(time.Now().Add(-imageRecheckAge), imageSweepBatch)
	if err != nil {
		log.Printf("Scheduler: image sweep: %v", err)
		return
	}
	for _, img := range stale {
		jobType := models.JobFetchArtistImages
		if img.EntityType == models.EntityAlbum {
			jobType = models.JobFetchAlbumImages
		}
		if _, err := s.queue.Enqueue(jobType, img.EntityType, img.EntityID, models.PriorityBackground); err != nil {
			log.Printf("Scheduler: image sweep enqueue %s: %v", img.EntityID, err)
			continue
		}
		if err := s.imageRepo.BumpVerified(img.ID); err != nil {
			log.Printf("Scheduler: image sweep bump %s: %v", img.ID, err)
		}
	}
	if len(stale) > 0 {
		log.Printf("Scheduler: re-checking artwork for %d image(s)", len(stale))
	}
}
