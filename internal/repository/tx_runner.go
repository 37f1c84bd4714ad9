package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ontorag/ontorag/internal/service"
)

// TxRunner provides transactional repositories using a pgx pool.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	repos := &txRepos{tx: tx}
	if err := fn(repos); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

type txRepos struct {
	tx pgx.Tx
}

func (r *txRepos) Documents() service.IngestDocumentRepository {
	return NewDocumentRepositoryWithTx(r.tx)
}

func (r *txRepos) Chunks() service.IngestChunkRepository {
	return NewChunkRepositoryWithTx(r.tx)
}

func (r *txRepos) Jobs() service.ExtractionJobQueue {
	return NewExtractionJobRepositoryWithTx(r.tx)
}
