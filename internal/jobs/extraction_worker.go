package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/ontorag/ontorag/internal/domain"
)

const (
	// MaxRetries is the maximum number of retries for a failed job
	MaxRetries = 3
)

// ExtractionJobRepository defines the interface for extraction job persistence
type ExtractionJobRepository interface {
	// GetPendingJobs retrieves and claims pending extraction jobs
	GetPendingJobs(ctx context.Context) ([]*domain.ExtractionJob, error)

	// UpdateJobStatus updates the status of an extraction job
	UpdateJobStatus(ctx context.Context, jobID string, status domain.ExtractionJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, jobID string) error
}

// ExtractionRunner runs ontology extraction over one document
type ExtractionRunner interface {
	Extract(ctx context.Context, documentID string) (*domain.AggregatedProposal, error)
}

// ExtractionWorker processes extraction jobs
type ExtractionWorker struct {
	repo    ExtractionJobRepository
	service ExtractionRunner
}

// NewExtractionWorker creates a new ExtractionWorker instance
func NewExtractionWorker(repo ExtractionJobRepository, service ExtractionRunner) *ExtractionWorker {
	return &ExtractionWorker{
		repo:    repo,
		service: service,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *ExtractionWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.GetPendingJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending extraction jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *ExtractionWorker) processJob(ctx context.Context, job *domain.ExtractionJob) error {
	log.Printf("Processing job %s for document %s", job.ID, job.DocumentID)

	if _, err := w.service.Extract(ctx, job.DocumentID); err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.ExtractionJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed successfully", job.ID)
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *ExtractionWorker) handleJobFailure(ctx context.Context, job *domain.ExtractionJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.ExtractionJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.ExtractionJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
