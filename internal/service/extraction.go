package service

import (
	"context"
	"sync"

	"github.com/ontorag/ontorag/internal/aggregate"
	"github.com/ontorag/ontorag/internal/domain"
	"github.com/ontorag/ontorag/internal/llm"
	"github.com/ontorag/ontorag/internal/telemetry"
)

const defaultExtractionConcurrency = 4

// ExtractionChunkSource provides the ordered chunk stream of a document
type ExtractionChunkSource interface {
	ListByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)
}

// ProposalSink stores the aggregated proposal for a document
type ProposalSink interface {
	Upsert(ctx context.Context, documentID string, agg *domain.AggregatedProposal) error
}

// SchemaCardSource supplies the schema context given to the proposer
// with each chunk. May return an empty string when no card exists yet.
type SchemaCardSource interface {
	CurrentCard(ctx context.Context) (string, error)
}

// ExtractionService runs the proposer over every chunk of a document
// and aggregates the results. The aggregate is all-or-nothing: if any
// chunk fails, nothing is stored.
type ExtractionService struct {
	chunks      ExtractionChunkSource
	proposer    llm.Proposer
	sink        ProposalSink
	cardSource  SchemaCardSource
	concurrency int
}

type ExtractionOption func(*ExtractionService)

func WithConcurrency(n int) ExtractionOption {
	return func(s *ExtractionService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithSchemaCardSource(src SchemaCardSource) ExtractionOption {
	return func(s *ExtractionService) { s.cardSource = src }
}

func NewExtractionService(chunks ExtractionChunkSource, proposer llm.Proposer, sink ProposalSink, opts ...ExtractionOption) *ExtractionService {
	s := &ExtractionService{
		chunks:      chunks,
		proposer:    proposer,
		sink:        sink,
		concurrency: defaultExtractionConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract generates proposals for every chunk of the document, merges
// them and stores the result. Chunks are processed concurrently but
// merged in chunk order, so repeated runs over the same input produce
// the same aggregate.
func (s *ExtractionService) Extract(ctx context.Context, documentID string) (*domain.AggregatedProposal, error) {
	ctx, span := telemetry.StartSpan(ctx, "ExtractionService.Extract", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "extract",
	})
	defer span.End()

	if s.proposer == nil {
		return nil, domain.ErrProposerNotConfigured
	}

	chunks, err := s.chunks.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	card := ""
	if s.cardSource != nil {
		card, err = s.cardSource.CurrentCard(ctx)
		if err != nil {
			return nil, err
		}
	}

	proposals, err := s.proposeAll(ctx, card, chunks)
	if err != nil {
		return nil, err
	}

	agg, err := aggregate.Aggregate(proposals)
	if err != nil {
		return nil, err
	}

	if s.sink != nil {
		if err := s.sink.Upsert(ctx, documentID, agg); err != nil {
			return nil, err
		}
	}
	return agg, nil
}

func (s *ExtractionService) proposeAll(ctx context.Context, card string, chunks []domain.Chunk) ([]domain.ChunkProposal, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*domain.ChunkProposal, len(chunks))
	sem := make(chan struct{}, s.concurrency)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk domain.Chunk) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			proposal, err := s.proposer.ProposeChunk(ctx, card, chunk)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()
				return
			}
			results[i] = proposal
		}(i, chunk)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	proposals := make([]domain.ChunkProposal, 0, len(results))
	for _, p := range results {
		if p != nil {
			proposals = append(proposals, *p)
		}
	}
	return proposals, nil
}
