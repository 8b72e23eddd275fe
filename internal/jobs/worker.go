package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/JustinTDCT/TuneVault/internal/metadata"
	"github.com/JustinTDCT/TuneVault/internal/models"
)

// Pool drains one job-type set with a fixed number of workers. Workers poll:
// claim a job, run it, repeat; an empty claim sleeps for pollInterval. All
// coordination happens through the jobs table, never in memory.
type Pool struct {
	name         string
	queue        *Queue
	jobTypes     []string
	concurrency  int
	pollInterval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(name string, q *Queue, jobTypes []string, concurrency int, pollInterval time.Duration) *Pool {
	return &Pool{
		name:         name,
		queue:        q,
		jobTypes:     jobTypes,
		concurrency:  concurrency,
		pollInterval: pollInterval,
	}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	log.Printf("Pool %s: starting %d worker(s), poll %s", p.name, p.concurrency, p.pollInterval)
	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.loop(ctx)
	}
}

// Stop cancels the workers and waits for in-flight jobs to finish. A job cut
// off mid-run stays processing and is requeued by ResetStuck on next start.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	log.Printf("Pool %s: stopped", p.name)
}

func (p *Pool) loop(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Claim(p.jobTypes)
		if err != nil {
			log.Printf("Pool %s: claim: %v", p.name, err)
			if !sleep(ctx, p.pollInterval) {
				return
			}
			continue
		}
		if job == nil {
			if !sleep(ctx, p.pollInterval) {
				return
			}
			continue
		}
		p.run(ctx, job)
	}
}

func (p *Pool) run(ctx context.Context, job *models.Job) {
	h := p.queue.handler(job.JobType)
	if h == nil {
		p.queue.markFailed(job, fmt.Errorf("no handler for job type %q", job.JobType), true)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Pool %s: panic in %s %s: %v", p.name, job.JobType, job.EntityID, r)
			p.queue.markFailed(job, fmt.Errorf("panic: %v", r), false)
		}
	}()

	start := time.Now()
	err := h.Handle(ctx, job)
	if err == nil {
		p.queue.markCompleted(job)
		return
	}

	if metadata.IsPermanent(err) {
		log.Printf("Pool %s: %s %s failed permanently after %s: %v",
			p.name, job.JobType, job.EntityID, time.Since(start).Round(time.Millisecond), err)
		p.queue.markFailed(job, err, true)
		return
	}
	log.Printf("Pool %s: %s %s attempt %d/%d failed: %v",
		p.name, job.JobType, job.EntityID, job.Attempts, job.MaxAttempts, err)
	p.queue.markFailed(job, err, false)
}

// sleep waits for d or until the context is cancelled; reports whether the
// caller should keep going.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
