package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ontorag/ontorag/internal/domain"
)

// ProposalRepository stores one aggregated proposal per document as a
// jsonb payload. The proposal is replaced wholesale on re-extraction,
// never patched.
type ProposalRepository struct {
	db dbtx
}

func NewProposalRepository(pool *pgxpool.Pool) *ProposalRepository {
	return &ProposalRepository{db: pool}
}

func NewProposalRepositoryWithTx(tx pgx.Tx) *ProposalRepository {
	return &ProposalRepository{db: tx}
}

func (r *ProposalRepository) Upsert(ctx context.Context, documentID string, agg *domain.AggregatedProposal) error {
	payload, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregated proposal: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO proposals (document_id, payload, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (document_id) DO UPDATE
		 SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		documentID, payload, time.Now().UTC(),
	)
	return err
}

func (r *ProposalRepository) GetByDocument(ctx context.Context, documentID string) (*domain.AggregatedProposal, error) {
	var payload []byte
	err := r.db.QueryRow(ctx,
		`SELECT payload FROM proposals WHERE document_id = $1`,
		documentID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProposalNotFound
		}
		return nil, err
	}

	var agg domain.AggregatedProposal
	if err := json.Unmarshal(payload, &agg); err != nil {
		return nil, fmt.Errorf("failed to parse aggregated proposal: %w", err)
	}
	return &agg, nil
}

func (r *ProposalRepository) Delete(ctx context.Context, documentID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM proposals WHERE document_id = $1`,
		documentID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrProposalNotFound
	}
	return nil
}
