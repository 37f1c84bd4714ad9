package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ontorag/ontorag/internal/domain"
)

// ChunkRepository handles persistence of document chunks. Provenance
// is stored as jsonb since its shape varies by source format.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx dbtx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceChunks deletes existing chunks for a document and inserts the
// new set, keeping the stored stream identical to the assembled one.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		provenance, err := json.Marshal(c.Provenance)
		if err != nil {
			return fmt.Errorf("failed to marshal provenance for %s: %w", c.ChunkID, err)
		}
		_, err = r.db.Exec(ctx,
			`INSERT INTO chunks (chunk_id, document_id, chunk_index, text, text_hash, provenance, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.ChunkID, c.DocumentID, c.ChunkIndex, c.Text, c.TextHash, provenance, c.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListByDocument returns the chunks of a document in chunk order.
func (r *ChunkRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT chunk_id, document_id, chunk_index, text, text_hash, provenance, created_at
		 FROM chunks WHERE document_id = $1 ORDER BY chunk_index ASC`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var provenance []byte
		if err := rows.Scan(&c.ChunkID, &c.DocumentID, &c.ChunkIndex, &c.Text, &c.TextHash, &provenance, &c.CreatedAt); err != nil {
			return nil, err
		}
		if len(provenance) > 0 {
			if err := json.Unmarshal(provenance, &c.Provenance); err != nil {
				return nil, fmt.Errorf("failed to parse provenance for %s: %w", c.ChunkID, err)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// GetByID returns a single chunk.
func (r *ChunkRepository) GetByID(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	var c domain.Chunk
	var provenance []byte
	err := r.db.QueryRow(ctx,
		`SELECT chunk_id, document_id, chunk_index, text, text_hash, provenance, created_at
		 FROM chunks WHERE chunk_id = $1`,
		chunkID,
	).Scan(&c.ChunkID, &c.DocumentID, &c.ChunkIndex, &c.Text, &c.TextHash, &provenance, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChunkNotFound
		}
		return nil, err
	}
	if len(provenance) > 0 {
		if err := json.Unmarshal(provenance, &c.Provenance); err != nil {
			return nil, fmt.Errorf("failed to parse provenance for %s: %w", c.ChunkID, err)
		}
	}
	return &c, nil
}

// CountByDocument returns the number of chunks stored for a document.
func (r *ChunkRepository) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE document_id = $1`,
		documentID,
	).Scan(&count)
	return count, err
}
