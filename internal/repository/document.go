package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ontorag/ontorag/internal/domain"
	"github.com/ontorag/ontorag/internal/pagination"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

// Upsert inserts the document metadata. Re-ingesting identical bytes
// hits the same document_id and refreshes the record in place.
func (r *DocumentRepository) Upsert(ctx context.Context, d *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (document_id, source_path, source_mime, content_hash, title, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (document_id) DO UPDATE
		 SET source_path = EXCLUDED.source_path,
		     source_mime = EXCLUDED.source_mime,
		     title = EXCLUDED.title`,
		d.DocumentID, d.SourcePath, d.SourceMIME, d.ContentHash, nullableString(d.Title), d.CreatedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, documentID string) (*domain.Document, error) {
	var d domain.Document
	var title pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT document_id, source_path, source_mime, content_hash, title, created_at
		 FROM documents WHERE document_id = $1`,
		documentID,
	).Scan(&d.DocumentID, &d.SourcePath, &d.SourceMIME, &d.ContentHash, &title, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if title.Valid {
		d.Title = title.String
	}
	return &d, nil
}

func (r *DocumentRepository) List(ctx context.Context) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT document_id, source_path, source_mime, content_hash, title, created_at
		 FROM documents ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

// ListPage returns one page of documents, newest first. The opaque
// cursor encodes the last row of the previous page.
func (r *DocumentRepository) ListPage(ctx context.Context, cursor string, limit int) (*pagination.PageResult[*domain.Document], error) {
	if limit <= 0 {
		limit = 20
	}

	cur, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	var rows pgx.Rows
	if cur != nil {
		rows, err = r.db.Query(ctx,
			`SELECT document_id, source_path, source_mime, content_hash, title, created_at
			 FROM documents
			 WHERE (created_at, document_id) < ($1, $2)
			 ORDER BY created_at DESC, document_id DESC
			 LIMIT $3`,
			cur.Timestamp, cur.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT document_id, source_path, source_mime, content_hash, title, created_at
			 FROM documents
			 ORDER BY created_at DESC, document_id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanDocumentRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.DocumentID, last.CreatedAt)
	}

	return &pagination.PageResult[*domain.Document]{
		Items:   items,
		Cursor:  nextCursor,
		HasMore: hasMore,
	}, nil
}

func scanDocumentRows(rows pgx.Rows) ([]*domain.Document, error) {
	var results []*domain.Document
	for rows.Next() {
		var d domain.Document
		var title pgtype.Text
		if err := rows.Scan(&d.DocumentID, &d.SourcePath, &d.SourceMIME, &d.ContentHash, &title, &d.CreatedAt); err != nil {
			return nil, err
		}
		if title.Valid {
			d.Title = title.String
		}
		results = append(results, &d)
	}
	return results, rows.Err()
}

func (r *DocumentRepository) Delete(ctx context.Context, documentID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM documents WHERE document_id = $1`,
		documentID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
