package cli

import (
	"context"

	"github.com/ontorag/ontorag/internal/config"
	"github.com/ontorag/ontorag/internal/domain"
	"github.com/ontorag/ontorag/internal/schemacard"
	"github.com/ontorag/ontorag/internal/storage"
)

func newArtifactStore(ctx context.Context, cfg *config.Config) (*storage.ArtifactStore, error) {
	return storage.NewArtifactStore(ctx, storage.ArtifactStoreConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
}

// fileChunkSource adapts the file store to the extraction service's
// chunk source interface.
type fileChunkSource struct {
	store *storage.FileStore
}

func (s *fileChunkSource) ListByDocument(_ context.Context, documentID string) ([]domain.Chunk, error) {
	return s.store.ReadChunks(documentID)
}

type fileProposalSink struct {
	store *storage.FileStore
}

func (s *fileProposalSink) Upsert(_ context.Context, documentID string, agg *domain.AggregatedProposal) error {
	return s.store.StoreProposal(documentID, agg)
}

// fileCardSource renders the stored schema card for the proposer
// prompt.
type fileCardSource struct {
	store *storage.FileStore
}

func (s *fileCardSource) CurrentCard(_ context.Context) (string, error) {
	card, err := s.store.ReadSchemaCard()
	if err != nil {
		return "", err
	}
	return schemacard.Render(card), nil
}
