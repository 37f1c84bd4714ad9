package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeUnavailable      = "UNAVAILABLE"
)

// Input errors: fail fast before any chunk is created
var (
	ErrEmptyDocument      = NewDomainError(ErrCodeValidation, "document is empty")
	ErrUnreadableDocument = NewDomainError(ErrCodeValidation, "document cannot be read")
)

// Not found errors
var (
	ErrDocumentNotFound      = NewDomainError(ErrCodeNotFound, "document not found")
	ErrChunkNotFound         = NewDomainError(ErrCodeNotFound, "chunk not found")
	ErrProposalNotFound      = NewDomainError(ErrCodeNotFound, "aggregated proposal not found")
	ErrExtractionJobNotFound = NewDomainError(ErrCodeNotFound, "extraction job not found")
)

// Contract violations of the external proposer: not retried
var (
	ErrMalformedProposal = NewDomainError(ErrCodeValidation, "malformed chunk proposal")
)

// Operation errors
var (
	ErrDocumentAlreadyExists  = NewDomainError(ErrCodeAlreadyExists, "document already ingested")
	ErrProposerNotConfigured  = NewDomainError(ErrCodeUnavailable, "proposal generator not configured")
	ErrInvalidExtractionState = NewDomainError(ErrCodeInvalidOperation, "extraction job is not in a runnable state")
)
