package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontorag/ontorag/internal/domain"
)

func fixtureDocument(t *testing.T) *domain.Document {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docID := "doc_0123456789abcdef"
	doc := &domain.Document{
		DocumentID:  docID,
		SourcePath:  "/data/handbook.md",
		SourceMIME:  "text/markdown",
		ContentHash: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		Title:       "Handbook",
		CreatedAt:   now,
	}
	for i := 0; i < 3; i++ {
		text := []string{"Intro text.", "Policy text.", "Appendix text."}[i]
		doc.Chunks = append(doc.Chunks, domain.Chunk{
			DocumentID: docID,
			ChunkID:    domain.ChunkID(docID, i, nil),
			ChunkIndex: i,
			Text:       text,
			TextHash:   domain.TextHash(text),
			CreatedAt:  now,
			Provenance: domain.Provenance{
				SourcePath:  "/data/handbook.md",
				SourceMIME:  "text/markdown",
				TextSnippet: text,
			},
		})
	}
	return doc
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	doc := fixtureDocument(t)

	require.NoError(t, store.StoreDocument(doc))

	chunks, err := store.ReadChunks(doc.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, doc.Chunks[0].ChunkID, chunks[0].ChunkID)
	assert.Equal(t, "Policy text.", chunks[1].Text)
	assert.Equal(t, 2, chunks[2].ChunkIndex)
	assert.Equal(t, "/data/handbook.md", chunks[0].Provenance.SourcePath)
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	doc := fixtureDocument(t)

	require.NoError(t, store.StoreDocument(doc))

	assert.FileExists(t, filepath.Join(dir, "documents", doc.DocumentID+".json"))
	assert.FileExists(t, filepath.Join(dir, "chunks", doc.DocumentID+".jsonl"))

	meta, err := os.ReadFile(filepath.Join(dir, "documents", doc.DocumentID+".json"))
	require.NoError(t, err)
	assert.Contains(t, string(meta), `"chunk_count": 3`)
	// Chunk bodies live in the JSONL file only.
	assert.NotContains(t, string(meta), "Policy text.")
}

func TestFileStoreRejectsInvalidDocument(t *testing.T) {
	store := NewFileStore(t.TempDir())
	doc := fixtureDocument(t)
	doc.Chunks[1].ChunkIndex = 5

	err := store.StoreDocument(doc)
	require.Error(t, err)
}

func TestReadChunksMissingDocument(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.ReadChunks("doc_missing0000000")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestProposalRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	agg := &domain.AggregatedProposal{
		Classes: []domain.ProposedClass{{Name: "Invoice", Description: "A billing document"}},
		Warnings: []string{"speculative"},
	}

	require.NoError(t, store.StoreProposal("doc_0123456789abcdef", agg))

	got, err := store.ReadProposal("doc_0123456789abcdef")
	require.NoError(t, err)
	assert.Equal(t, agg.Classes, got.Classes)
	assert.Equal(t, agg.Warnings, got.Warnings)
}

func TestReadProposalMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.ReadProposal("doc_none")
	assert.ErrorIs(t, err, domain.ErrProposalNotFound)
}

func TestListDocumentIDs(t *testing.T) {
	store := NewFileStore(t.TempDir())
	doc := fixtureDocument(t)
	require.NoError(t, store.StoreDocument(doc))

	ids, err := store.ListDocumentIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{doc.DocumentID}, ids)
}

func TestListDocumentIDsEmptyStore(t *testing.T) {
	store := NewFileStore(t.TempDir())

	ids, err := store.ListDocumentIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
