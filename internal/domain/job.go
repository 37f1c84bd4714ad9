package domain

import (
	"fmt"
	"time"
)

// ExtractionJobStatus represents the status of an extraction job
type ExtractionJobStatus string

const (
	ExtractionJobStatusPending    ExtractionJobStatus = "pending"
	ExtractionJobStatusProcessing ExtractionJobStatus = "processing"
	ExtractionJobStatusCompleted  ExtractionJobStatus = "completed"
	ExtractionJobStatusFailed     ExtractionJobStatus = "failed"
)

// ExtractionJob is a queued request to run ontology induction over all
// chunks of one document.
type ExtractionJob struct {
	ID         string
	DocumentID string
	Status     ExtractionJobStatus
	Retries    int
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewExtractionJob creates a pending job for a document.
func NewExtractionJob(id, documentID string, createdAt time.Time) *ExtractionJob {
	return &ExtractionJob{
		ID:         id,
		DocumentID: documentID,
		Status:     ExtractionJobStatusPending,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

// ValidateExtractionJob validates an ExtractionJob instance
func ValidateExtractionJob(j *ExtractionJob) error {
	if j == nil {
		return fmt.Errorf("extraction job cannot be nil")
	}
	if j.ID == "" {
		return fmt.Errorf("extraction job ID is required")
	}
	if j.DocumentID == "" {
		return fmt.Errorf("extraction job DocumentID is required")
	}
	if !isValidExtractionJobStatus(j.Status) {
		return fmt.Errorf("extraction job Status is invalid: %s", j.Status)
	}
	return nil
}

func isValidExtractionJobStatus(s ExtractionJobStatus) bool {
	switch s {
	case ExtractionJobStatusPending, ExtractionJobStatusProcessing,
		ExtractionJobStatusCompleted, ExtractionJobStatusFailed:
		return true
	}
	return false
}
