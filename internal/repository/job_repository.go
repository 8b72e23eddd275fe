package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, job_type, entity_type, entity_id, priority, status, attempts,
	max_attempts, metadata, error_message, created_at, started_at, completed_at`

func scanJob(row interface{ Scan(...interface{}) error }) (*models.Job, error) {
	job := &models.Job{}
	var metadata []byte
	err := row.Scan(
		&job.ID, &job.JobType, &job.EntityType, &job.EntityID, &job.Priority, &job.Status,
		&job.Attempts, &job.MaxAttempts, &metadata, &job.ErrorMessage,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		raw := json.RawMessage(append([]byte(nil), metadata...))
		job.Metadata = &raw
	}
	return job, nil
}

// Enqueue inserts a job, deduplicating on (job_type, entity_id). A duplicate
// of a pending or processing job only raises the stored priority; a duplicate
// of a failed job resurrects it with a fresh attempt budget. Completed jobs
// are re-run by the same path once the GC has removed the old row, or
// immediately via the resurrection branch below.
func (r *JobRepository) Enqueue(job *models.Job) (uuid.UUID, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = models.DefaultMaxAttempts
	}
	var metadata interface{}
	if job.Metadata != nil {
		metadata = []byte(*job.Metadata)
	}
	query := `
		INSERT INTO jobs (id, job_type, entity_type, entity_id, priority, status, max_attempts, metadata)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7)
		ON CONFLICT (job_type, entity_id) DO UPDATE SET
			priority = GREATEST(jobs.priority, EXCLUDED.priority),
			status = CASE WHEN jobs.status IN ('failed', 'completed') THEN 'pending'
			              ELSE jobs.status END,
			attempts = CASE WHEN jobs.status IN ('failed', 'completed') THEN 0
			                ELSE jobs.attempts END,
			error_message = CASE WHEN jobs.status IN ('failed', 'completed') THEN NULL
			                     ELSE jobs.error_message END,
			metadata = COALESCE(EXCLUDED.metadata, jobs.metadata),
			created_at = CASE WHEN jobs.status IN ('failed', 'completed') THEN NOW()
			                  ELSE jobs.created_at END,
			started_at = CASE WHEN jobs.status IN ('failed', 'completed') THEN NULL
			                  ELSE jobs.started_at END,
			completed_at = CASE WHEN jobs.status IN ('failed', 'completed') THEN NULL
			                    ELSE jobs.completed_at END
		RETURNING id`
	var id uuid.UUID
	err := r.db.QueryRow(query, job.ID, job.JobType, job.EntityType, job.EntityID,
		job.Priority, job.MaxAttempts, metadata).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Claim atomically takes the next runnable job of the given types: highest
// priority first, oldest first within a priority. SKIP LOCKED keeps
// concurrent workers from fighting over the same row. Returns nil, nil when
// the queue is empty.
func (r *JobRepository) Claim(jobTypes []string) (*models.Job, error) {
	query := `
		UPDATE jobs
		SET status = 'processing', started_at = NOW(), attempts = attempts + 1
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = 'pending' AND job_type = ANY($1)
			ORDER BY priority DESC, created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns
	job, err := scanJob(r.db.QueryRow(query, pq.Array(jobTypes)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *JobRepository) Complete(id uuid.UUID) error {
	_, err := r.db.Exec(`
		UPDATE jobs SET status = 'completed', error_message = NULL, completed_at = NOW()
		WHERE id = $1`, id)
	return err
}

// Fail records a transient failure: the job goes back to pending until its
// attempt budget runs out, then sticks as failed.
func (r *JobRepository) Fail(id uuid.UUID, errMsg string) error {
	_, err := r.db.Exec(`
		UPDATE jobs
		SET status = CASE WHEN attempts >= max_attempts THEN 'failed' ELSE 'pending' END,
		    completed_at = CASE WHEN attempts >= max_attempts THEN NOW() ELSE NULL END,
		    error_message = $2
		WHERE id = $1`, id, errMsg)
	return err
}

// FailPermanent marks a job failed immediately, no retries. Used when the
// upstream answer can never change, a 404 most of the time.
func (r *JobRepository) FailPermanent(id uuid.UUID, errMsg string) error {
	_, err := r.db.Exec(`
		UPDATE jobs SET status = 'failed', completed_at = NOW(), error_message = $2
		WHERE id = $1`, id, errMsg)
	return err
}

// ResetStuck requeues jobs left in processing by a previous run, plus failed
// jobs that still have attempt budget. Called once at startup before any
// worker starts.
func (r *JobRepository) ResetStuck() (int64, error) {
	result, err := r.db.Exec(`
		UPDATE jobs SET status = 'pending', started_at = NULL
		WHERE status = 'processing'
		   OR (status = 'failed' AND attempts < max_attempts)`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteCompletedBefore garbage-collects completed jobs older than the cutoff.
func (r *JobRepository) DeleteCompletedBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`
		DELETE FROM jobs WHERE status = 'completed' AND completed_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ClearFinished removes all completed and failed jobs, for the admin reset.
func (r *JobRepository) ClearFinished() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM jobs WHERE status IN ('completed', 'failed')`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *JobRepository) Stats() (*models.JobStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM jobs`
	stats := &models.JobStats{}
	err := r.db.QueryRow(query).Scan(&stats.Pending, &stats.Processing, &stats.Completed, &stats.Failed)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ListRecent returns the newest jobs first, for the admin activity view.
func (r *JobRepository) ListRecent(limit int) ([]*models.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		ORDER BY created_at DESC
		LIMIT $1`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
