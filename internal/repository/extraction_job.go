package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ontorag/ontorag/internal/domain"
)

type ExtractionJobRepository struct {
	db dbtx
}

func NewExtractionJobRepository(pool *pgxpool.Pool) *ExtractionJobRepository {
	return &ExtractionJobRepository{db: pool}
}

func NewExtractionJobRepositoryWithTx(tx pgx.Tx) *ExtractionJobRepository {
	return &ExtractionJobRepository{db: tx}
}

func (r *ExtractionJobRepository) Create(ctx context.Context, job *domain.ExtractionJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO extraction_jobs (id, document_id, status, retries, error, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.DocumentID, job.Status, job.Retries, nullableString(job.Error), job.CreatedAt, job.UpdatedAt,
	)
	return err
}

func (r *ExtractionJobRepository) GetByID(ctx context.Context, id string) (*domain.ExtractionJob, error) {
	var job domain.ExtractionJob
	var errMsg pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT id, document_id, status, retries, error, created_at, updated_at
		 FROM extraction_jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.DocumentID, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExtractionJobNotFound
		}
		return nil, err
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}

// ClaimPending marks up to limit pending jobs as processing and
// returns them. SKIP LOCKED keeps concurrent workers from claiming
// the same job.
func (r *ExtractionJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.ExtractionJob, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM extraction_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE extraction_jobs
		 SET status = $3,
		     error = NULL,
		     updated_at = NOW()
		 FROM cte
		 WHERE extraction_jobs.id = cte.id
		 RETURNING extraction_jobs.id, extraction_jobs.document_id, extraction_jobs.status,
		           extraction_jobs.retries, extraction_jobs.error, extraction_jobs.created_at, extraction_jobs.updated_at`,
		domain.ExtractionJobStatusPending, limit, domain.ExtractionJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.ExtractionJob
	for rows.Next() {
		var job domain.ExtractionJob
		var errMsg pgtype.Text
		if err := rows.Scan(&job.ID, &job.DocumentID, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			job.Error = errMsg.String
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

func (r *ExtractionJobRepository) UpdateStatus(ctx context.Context, id string, status domain.ExtractionJobStatus, errMsg string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE extraction_jobs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrExtractionJobNotFound
	}
	return nil
}

func (r *ExtractionJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE extraction_jobs SET retries = retries + 1, updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrExtractionJobNotFound
	}
	return nil
}

// GetPendingJobs claims a batch of pending jobs for processing.
func (r *ExtractionJobRepository) GetPendingJobs(ctx context.Context) ([]*domain.ExtractionJob, error) {
	return r.ClaimPending(ctx, 100)
}

// UpdateJobStatus updates the status and error of a job.
func (r *ExtractionJobRepository) UpdateJobStatus(ctx context.Context, jobID string, status domain.ExtractionJobStatus, errMsg string) error {
	return r.UpdateStatus(ctx, jobID, status, errMsg)
}

// ListByDocument returns jobs for a document, most recent first.
func (r *ExtractionJobRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.ExtractionJob, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, status, retries, error, created_at, updated_at
		 FROM extraction_jobs WHERE document_id = $1 ORDER BY created_at DESC`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.ExtractionJob
	for rows.Next() {
		var job domain.ExtractionJob
		var errMsg pgtype.Text
		if err := rows.Scan(&job.ID, &job.DocumentID, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			job.Error = errMsg.String
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}
