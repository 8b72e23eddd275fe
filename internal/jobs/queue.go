package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

// Handler processes one claimed job.
type Handler interface {
	Handle(ctx context.Context, job *models.Job) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, job *models.Job) error

func (f HandlerFunc) Handle(ctx context.Context, job *models.Job) error {
	return f(ctx, job)
}

// JobStore is the durable table behind the queue. Satisfied by
// *repository.JobRepository; tests swap in an in-memory fake.
type JobStore interface {
	Enqueue(job *models.Job) (uuid.UUID, error)
	Claim(jobTypes []string) (*models.Job, error)
	Complete(id uuid.UUID) error
	Fail(id uuid.UUID, errMsg string) error
	FailPermanent(id uuid.UUID, errMsg string) error
	ResetStuck() (int64, error)
	Stats() (*models.JobStats, error)
}

// Queue is the durable job queue. Every mutation goes through the jobs table;
// there is no in-memory queue state to lose on restart.
type Queue struct {
	repo     JobStore
	notifier EventNotifier

	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewQueue(repo JobStore) *Queue {
	return &Queue{repo: repo, handlers: make(map[string]Handler)}
}

// SetNotifier attaches the event broadcaster. Optional; a nil notifier is
// skipped everywhere.
func (q *Queue) SetNotifier(n EventNotifier) {
	q.notifier = n
}

func (q *Queue) RegisterHandler(jobType string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = h
}

func (q *Queue) handler(jobType string) Handler {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.handlers[jobType]
}

// Enqueue adds a job, deduplicated on (job_type, entity_id). Enqueuing an
// already-queued job only raises its priority; enqueuing a failed one
// resurrects it.
func (q *Queue) Enqueue(jobType string, entityType models.EntityType, entityID string, priority int) (uuid.UUID, error) {
	return q.enqueue(&models.Job{
		JobType:    jobType,
		EntityType: entityType,
		EntityID:   entityID,
		Priority:   priority,
	})
}

// EnqueueWithMetadata is Enqueue with an opaque payload stored on the row.
func (q *Queue) EnqueueWithMetadata(jobType string, entityType models.EntityType, entityID string, priority int, payload interface{}) (uuid.UUID, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal payload: %w", err)
	}
	raw := json.RawMessage(data)
	return q.enqueue(&models.Job{
		JobType:    jobType,
		EntityType: entityType,
		EntityID:   entityID,
		Priority:   priority,
		Metadata:   &raw,
	})
}

func (q *Queue) enqueue(job *models.Job) (uuid.UUID, error) {
	id, err := q.repo.Enqueue(job)
	if err != nil {
		return uuid.Nil, err
	}
	q.broadcast("job:enqueued", job.JobType, job.EntityID, string(models.JobPending), "")
	return id, nil
}

// Claim hands the next runnable job of the given types to a worker, or nil
// when there is nothing to do.
func (q *Queue) Claim(jobTypes []string) (*models.Job, error) {
	job, err := q.repo.Claim(jobTypes)
	if err != nil || job == nil {
		return job, err
	}
	q.broadcast("job:started", job.JobType, job.EntityID, string(models.JobProcessing), "")
	return job, nil
}

func (q *Queue) markCompleted(job *models.Job) {
	if err := q.repo.Complete(job.ID); err != nil {
		log.Printf("Queue: complete %s: %v", job.ID, err)
		return
	}
	q.broadcast("job:completed", job.JobType, job.EntityID, string(models.JobCompleted), "")
}

func (q *Queue) markFailed(job *models.Job, jobErr error, permanent bool) {
	msg := jobErr.Error()
	var err error
	if permanent {
		err = q.repo.FailPermanent(job.ID, msg)
	} else {
		err = q.repo.Fail(job.ID, msg)
	}
	if err != nil {
		log.Printf("Queue: fail %s: %v", job.ID, err)
		return
	}
	q.broadcast("job:failed", job.JobType, job.EntityID, string(models.JobFailed), msg)
}

func (q *Queue) broadcast(event, jobType, entityID, status, errMsg string) {
	if q.notifier == nil {
		return
	}
	data := map[string]interface{}{
		"job_type":  jobType,
		"entity_id": entityID,
		"status":    status,
	}
	if errMsg != "" {
		data["error"] = errMsg
	}
	q.notifier.Broadcast(event, data)
}

// ResetStuck requeues jobs orphaned by a previous process. Run once before
// the pools start.
func (q *Queue) ResetStuck() error {
	n, err := q.repo.ResetStuck()
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("Queue: reset %d stuck job(s) to pending", n)
	}
	return nil
}

func (q *Queue) Stats() (*models.JobStats, error) {
	return q.repo.Stats()
}
