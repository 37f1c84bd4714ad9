package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testTxRepos struct {
	documents IngestDocumentRepository
	chunks    IngestChunkRepository
	jobs      ExtractionJobQueue
}

func (t *testTxRepos) Documents() IngestDocumentRepository {
	return t.documents
}

func (t *testTxRepos) Chunks() IngestChunkRepository {
	return t.chunks
}

func (t *testTxRepos) Jobs() ExtractionJobQueue {
	return t.jobs
}

type testTxRunner struct {
	repos  TxRepositories
	called bool
	err    error
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called = true
	if err := fn(t.repos); err != nil {
		return err
	}
	return t.err
}

func TestIngestWithTxRunner(t *testing.T) {
	docRepo := newMockDocumentRepo()
	chunkRepo := newMockChunkRepo()
	queue := &mockJobQueue{}
	runner := &testTxRunner{repos: &testTxRepos{documents: docRepo, chunks: chunkRepo, jobs: queue}}

	svc, err := NewIngestService(nil, nil, WithTxRunner(runner))
	require.NoError(t, err)

	doc, err := svc.Ingest(context.Background(), IngestInput{
		SourcePath:      "notes.md",
		Data:            []byte("# Notes\n\nSome text.\n"),
		QueueExtraction: true,
	})
	require.NoError(t, err)

	assert.True(t, runner.called)
	assert.Contains(t, docRepo.docs, doc.DocumentID)
	assert.Len(t, chunkRepo.chunks[doc.DocumentID], 1)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, doc.DocumentID, queue.jobs[0].DocumentID)
}

func TestIngestTxFailureSkipsFileStore(t *testing.T) {
	runner := &testTxRunner{
		repos: &testTxRepos{documents: newMockDocumentRepo(), chunks: newMockChunkRepo(), jobs: &mockJobQueue{}},
		err:   errors.New("commit failed"),
	}
	files := &mockFileStore{}

	svc, err := NewIngestService(nil, nil, WithTxRunner(runner), WithFileStore(files))
	require.NoError(t, err)

	_, err = svc.Ingest(context.Background(), IngestInput{
		SourcePath: "notes.md",
		Data:       []byte("# Notes\n\nSome text.\n"),
	})
	require.Error(t, err)
	assert.Empty(t, files.stored)
}
