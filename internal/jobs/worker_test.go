package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ontorag/ontorag/internal/domain"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockExtractionJobRepository is a mock implementation of ExtractionJobRepository
type MockExtractionJobRepository struct {
	mock.Mock
}

func (m *MockExtractionJobRepository) GetPendingJobs(ctx context.Context) ([]*domain.ExtractionJob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ExtractionJob), args.Error(1)
}

func (m *MockExtractionJobRepository) UpdateJobStatus(ctx context.Context, jobID string, status domain.ExtractionJobStatus, errMsg string) error {
	args := m.Called(ctx, jobID, status, errMsg)
	return args.Error(0)
}

func (m *MockExtractionJobRepository) IncrementRetries(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

// MockExtractionRunner is a mock implementation of ExtractionRunner
type MockExtractionRunner struct {
	mock.Mock
}

func (m *MockExtractionRunner) Extract(ctx context.Context, documentID string) (*domain.AggregatedProposal, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AggregatedProposal), args.Error(1)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestExtractionWorker_ProcessJobs_NoPendingJobs tests when there are no pending jobs
func TestExtractionWorker_ProcessJobs_NoPendingJobs(t *testing.T) {
	mockRepo := new(MockExtractionJobRepository)
	mockRunner := new(MockExtractionRunner)

	mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.ExtractionJob{}, nil)

	worker := NewExtractionWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

// TestExtractionWorker_ProcessJobs_Success tests successful job processing
func TestExtractionWorker_ProcessJobs_Success(t *testing.T) {
	mockRepo := new(MockExtractionJobRepository)
	mockRunner := new(MockExtractionRunner)

	job := &domain.ExtractionJob{
		ID:         "job-1",
		DocumentID: "doc_0123456789abcdef",
		Status:     domain.ExtractionJobStatusPending,
		Retries:    0,
	}

	mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.ExtractionJob{job}, nil)
	mockRunner.On("Extract", mock.Anything, "doc_0123456789abcdef").Return(&domain.AggregatedProposal{}, nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.ExtractionJobStatusCompleted, "").Return(nil)

	worker := NewExtractionWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertExpectations(t)
}

// TestExtractionWorker_ProcessJobs_FailureWithRetry tests job failure with retry
func TestExtractionWorker_ProcessJobs_FailureWithRetry(t *testing.T) {
	mockRepo := new(MockExtractionJobRepository)
	mockRunner := new(MockExtractionRunner)

	job := &domain.ExtractionJob{
		ID:         "job-1",
		DocumentID: "doc_0123456789abcdef",
		Status:     domain.ExtractionJobStatusPending,
		Retries:    0,
	}

	mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.ExtractionJob{job}, nil)
	mockRunner.On("Extract", mock.Anything, "doc_0123456789abcdef").Return(nil, errors.New("proposer unavailable"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.ExtractionJobStatusPending, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewExtractionWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertExpectations(t)
}

// TestExtractionWorker_ProcessJobs_MaxRetriesExceeded tests job failure after max retries
func TestExtractionWorker_ProcessJobs_MaxRetriesExceeded(t *testing.T) {
	mockRepo := new(MockExtractionJobRepository)
	mockRunner := new(MockExtractionRunner)

	job := &domain.ExtractionJob{
		ID:         "job-1",
		DocumentID: "doc_0123456789abcdef",
		Status:     domain.ExtractionJobStatusPending,
		Retries:    2, // Already retried twice
	}

	mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.ExtractionJob{job}, nil)
	mockRunner.On("Extract", mock.Anything, "doc_0123456789abcdef").Return(nil, errors.New("proposer unavailable"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.ExtractionJobStatusFailed, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewExtractionWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertExpectations(t)
}

// TestExtractionWorker_ProcessJobs_MultipleJobs tests processing multiple jobs
func TestExtractionWorker_ProcessJobs_MultipleJobs(t *testing.T) {
	mockRepo := new(MockExtractionJobRepository)
	mockRunner := new(MockExtractionRunner)

	jobs := []*domain.ExtractionJob{
		{ID: "job-1", DocumentID: "doc_aaaaaaaaaaaaaaaa", Status: domain.ExtractionJobStatusPending},
		{ID: "job-2", DocumentID: "doc_bbbbbbbbbbbbbbbb", Status: domain.ExtractionJobStatusPending},
	}

	mockRepo.On("GetPendingJobs", mock.Anything).Return(jobs, nil)

	mockRunner.On("Extract", mock.Anything, "doc_aaaaaaaaaaaaaaaa").Return(&domain.AggregatedProposal{}, nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.ExtractionJobStatusCompleted, "").Return(nil)

	mockRunner.On("Extract", mock.Anything, "doc_bbbbbbbbbbbbbbbb").Return(&domain.AggregatedProposal{}, nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-2", domain.ExtractionJobStatusCompleted, "").Return(nil)

	worker := NewExtractionWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertExpectations(t)
}

// TestExtractionWorker_ProcessJobs_RepositoryError tests repository error handling
func TestExtractionWorker_ProcessJobs_RepositoryError(t *testing.T) {
	mockRepo := new(MockExtractionJobRepository)
	mockRunner := new(MockExtractionRunner)

	mockRepo.On("GetPendingJobs", mock.Anything).Return(nil, errors.New("database error"))

	worker := NewExtractionWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch pending jobs")
	mockRepo.AssertExpectations(t)
}
