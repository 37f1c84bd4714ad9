package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/ontorag/ontorag/internal/domain"
	"github.com/ontorag/ontorag/internal/ingest"
	"github.com/ontorag/ontorag/internal/telemetry"
)

// IngestDocumentRepository defines the repository interface for document metadata
type IngestDocumentRepository interface {
	Upsert(ctx context.Context, d *domain.Document) error
}

// IngestChunkRepository defines the repository interface for chunk persistence
type IngestChunkRepository interface {
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
}

// DocumentFileStore persists documents to the file-based pipeline store
type DocumentFileStore interface {
	StoreDocument(doc *domain.Document) error
}

// ExtractionJobQueue enqueues extraction work for ingested documents
type ExtractionJobQueue interface {
	Create(ctx context.Context, job *domain.ExtractionJob) error
}

// IngestInput describes one source to ingest.
type IngestInput struct {
	SourcePath string
	MIME       string
	Data       []byte
	// QueueExtraction enqueues an extraction job after the chunks
	// are stored. Requires a job queue.
	QueueExtraction bool
}

// IngestService turns raw sources into chunked documents. Markdown
// sources are segmented along their heading structure; registered
// segmenters handle other structured formats; everything else falls
// back to fixed-size windows.
type IngestService struct {
	docRepo    IngestDocumentRepository
	chunkRepo  IngestChunkRepository
	fileStore  DocumentFileStore
	jobQueue   ExtractionJobQueue
	txRunner   TxRunner
	segmenters []ingest.Segmenter
	assembler  *ingest.Assembler
	windower   *ingest.WindowChunker
	uuidGen    UUIDGenerator
	now        func() time.Time
	err        error
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

func WithFileStore(store DocumentFileStore) IngestOption {
	return func(s *IngestService) { s.fileStore = store }
}

// WithTxRunner persists document, chunks and the optional extraction
// job in a single transaction instead of through the plain
// repositories.
func WithTxRunner(tx TxRunner) IngestOption {
	return func(s *IngestService) { s.txRunner = tx }
}

func WithJobQueue(queue ExtractionJobQueue) IngestOption {
	return func(s *IngestService) { s.jobQueue = queue }
}

func WithSegmenter(seg ingest.Segmenter) IngestOption {
	return func(s *IngestService) { s.segmenters = append(s.segmenters, seg) }
}

func WithWindowing(chunkSize, overlap int) IngestOption {
	return func(s *IngestService) {
		windower, err := ingest.NewWindowChunker(chunkSize, overlap)
		if err != nil {
			s.err = err
			return
		}
		s.windower = windower
	}
}

func WithClock(now func() time.Time) IngestOption {
	return func(s *IngestService) {
		s.now = now
		s.assembler = ingest.NewAssemblerWithClock(now)
	}
}

// NewIngestService creates an IngestService. docRepo and chunkRepo may
// be nil when running in file-only mode with WithFileStore.
func NewIngestService(docRepo IngestDocumentRepository, chunkRepo IngestChunkRepository, opts ...IngestOption) (*IngestService, error) {
	s := &IngestService{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		assembler: ingest.NewAssembler(),
		windower:  ingest.NewDefaultWindowChunker(),
		uuidGen:   &DefaultUUIDGenerator{},
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s, nil
}

// Ingest chunks one source and persists the resulting document.
// Identical source bytes always produce the same document and chunk
// identifiers, so re-ingesting is idempotent.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Ingest", telemetry.SpanAttributes{
		Operation: "ingest",
	})
	defer span.End()

	if len(input.Data) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	doc, err := s.chunkSource(ctx, input)
	if err != nil {
		return nil, err
	}

	if s.txRunner != nil {
		err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			if err := repos.Documents().Upsert(ctx, doc); err != nil {
				return err
			}
			if err := repos.Chunks().ReplaceChunks(ctx, doc.DocumentID, doc.Chunks); err != nil {
				return err
			}
			if input.QueueExtraction {
				job := domain.NewExtractionJob(s.uuidGen.NewString(), doc.DocumentID, s.now())
				return repos.Jobs().Create(ctx, job)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		if s.docRepo != nil {
			if err := s.docRepo.Upsert(ctx, doc); err != nil {
				return nil, err
			}
		}
		if s.chunkRepo != nil {
			if err := s.chunkRepo.ReplaceChunks(ctx, doc.DocumentID, doc.Chunks); err != nil {
				return nil, err
			}
		}
		if input.QueueExtraction && s.jobQueue != nil {
			job := domain.NewExtractionJob(s.uuidGen.NewString(), doc.DocumentID, s.now())
			if err := s.jobQueue.Create(ctx, job); err != nil {
				return nil, err
			}
		}
	}

	if s.fileStore != nil {
		if err := s.fileStore.StoreDocument(doc); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func (s *IngestService) chunkSource(ctx context.Context, input IngestInput) (*domain.Document, error) {
	src := ingest.Source{Path: input.SourcePath, MIME: input.MIME, Data: input.Data}
	ext := strings.ToLower(filepath.Ext(input.SourcePath))

	for _, seg := range s.segmenters {
		if !seg.Supports(ext) {
			continue
		}
		result, err := seg.Segment(ctx, input.SourcePath, input.Data)
		if err != nil {
			return nil, err
		}
		leaves := ingest.FlattenTree(result.Nodes, result.Pages)
		return s.assembler.Assemble(src, result.Title, leaves)
	}

	if ext == ".md" || ext == ".markdown" {
		title, leaves := ingest.SplitMarkdown(string(input.Data))
		return s.assembler.Assemble(src, title, leaves)
	}

	windows := s.windower.Split(string(input.Data))
	return s.assembler.AssembleWindows(src, windows)
}
