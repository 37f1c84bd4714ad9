//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontorag/ontorag/internal/domain"
)

type documentPayload struct {
	DocumentID  string `json:"document_id"`
	SourcePath  string `json:"source_path"`
	ContentHash string `json:"content_hash"`
	ChunkCount  int    `json:"chunk_count"`
}

type chunkListPayload struct {
	DocumentID string `json:"document_id"`
	Items      []struct {
		ChunkID    string            `json:"chunk_id"`
		ChunkIndex int               `json:"chunk_index"`
		Text       string            `json:"text"`
		TextHash   string            `json:"text_hash"`
		Provenance domain.Provenance `json:"provenance"`
	} `json:"items"`
}

type documentListPayload struct {
	Items   []documentPayload `json:"items"`
	Cursor  string            `json:"cursor"`
	HasMore bool              `json:"has_more"`
}

const invoiceDoc = `# Invoice

An invoice is issued by a supplier to a customer. Every invoice
carries a unique invoice number and a total amount.

## Payment

Payment settles an invoice. The payer transfers the invoice total to
the supplier within the agreed payment term.
`

func TestExtractionPipeline(t *testing.T) {
	ctx := context.Background()
	env := SetupE2EEnv(ctx, t)
	defer env.Cleanup(ctx, t)

	// Ingest a markdown document.
	resp := env.Post(t, "/documents", map[string]interface{}{
		"source_path": "invoices.md",
		"mime":        "text/markdown",
		"content":     invoiceDoc,
	})
	var doc documentPayload
	require.NoError(t, json.Unmarshal(resp.Data, &doc))
	require.True(t, strings.HasPrefix(doc.DocumentID, "doc_"), "unexpected document ID %q", doc.DocumentID)
	require.Greater(t, doc.ChunkCount, 0)
	assert.Equal(t, "invoices.md", doc.SourcePath)
	assert.NotEmpty(t, doc.ContentHash)

	// The document is retrievable with the same identity.
	resp = env.Get(t, "/documents/"+doc.DocumentID)
	var fetched documentPayload
	require.NoError(t, json.Unmarshal(resp.Data, &fetched))
	assert.Equal(t, doc.DocumentID, fetched.DocumentID)
	assert.Equal(t, doc.ChunkCount, fetched.ChunkCount)

	// Chunks carry dense indices and provenance back to the source.
	resp = env.Get(t, "/documents/"+doc.DocumentID+"/chunks")
	var chunks chunkListPayload
	require.NoError(t, json.Unmarshal(resp.Data, &chunks))
	require.Len(t, chunks.Items, doc.ChunkCount)
	for i, chunk := range chunks.Items {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.True(t, strings.HasPrefix(chunk.ChunkID, doc.DocumentID+"#"), "chunk ID %q not scoped to document", chunk.ChunkID)
		assert.NotEmpty(t, chunk.TextHash)
		assert.Equal(t, "invoices.md", chunk.Provenance.SourcePath)
	}

	// Run extraction and check the aggregated proposal.
	resp = env.Post(t, "/documents/"+doc.DocumentID+"/extract", nil)
	var agg domain.AggregatedProposal
	require.NoError(t, json.Unmarshal(resp.Data, &agg))
	require.NotEmpty(t, agg.Classes)
	require.NotEmpty(t, agg.DatatypeProperties)
	for _, class := range agg.Classes {
		require.NotEmpty(t, class.Evidence, "class %s has no evidence", class.Name)
		assert.True(t, strings.HasPrefix(class.Evidence[0].ChunkID, doc.DocumentID+"#"))
	}

	// The stored proposal matches what extraction returned.
	resp = env.Get(t, "/proposals/"+doc.DocumentID)
	var stored domain.AggregatedProposal
	require.NoError(t, json.Unmarshal(resp.Data, &stored))
	assert.Equal(t, agg.Classes, stored.Classes)
	assert.Equal(t, agg.DatatypeProperties, stored.DatatypeProperties)

	// Turtle rendering of the same proposal.
	status, contentType, ttl := env.GetRaw(t, "/proposals/"+doc.DocumentID+"/ttl")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "text/turtle; charset=utf-8", contentType)
	assert.Contains(t, string(ttl), "@prefix biz:")
	assert.Contains(t, string(ttl), "owl:Class")
	assert.Contains(t, string(ttl), "biz:"+agg.Classes[0].Name)

	// Deleting the document removes it and its proposal.
	env.Delete(t, "/documents/"+doc.DocumentID)
	status, _, _ = env.GetRaw(t, "/documents/"+doc.DocumentID)
	assert.Equal(t, http.StatusNotFound, status)
	status, _, _ = env.GetRaw(t, "/proposals/"+doc.DocumentID)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIngestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := SetupE2EEnv(ctx, t)
	defer env.Cleanup(ctx, t)

	body := map[string]interface{}{
		"source_path": "notes.md",
		"mime":        "text/markdown",
		"content":     "# Notes\n\nShipping terms apply to every order.\n",
	}

	resp := env.Post(t, "/documents", body)
	var first documentPayload
	require.NoError(t, json.Unmarshal(resp.Data, &first))

	resp = env.Post(t, "/documents", body)
	var second documentPayload
	require.NoError(t, json.Unmarshal(resp.Data, &second))

	assert.Equal(t, first.DocumentID, second.DocumentID)
	assert.Equal(t, first.ChunkCount, second.ChunkCount)

	resp = env.Get(t, "/documents")
	var list documentListPayload
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Len(t, list.Items, 1)
}

func TestDocumentListPagination(t *testing.T) {
	ctx := context.Background()
	env := SetupE2EEnv(ctx, t)
	defer env.Cleanup(ctx, t)

	for i := 0; i < 3; i++ {
		env.Post(t, "/documents", map[string]interface{}{
			"source_path": fmt.Sprintf("doc-%d.md", i),
			"mime":        "text/markdown",
			"content":     fmt.Sprintf("# Document %d\n\nBody of document %d.\n", i, i),
		})
	}

	resp := env.Get(t, "/documents?limit=2")
	var page documentListPayload
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	require.Len(t, page.Items, 2)
	require.True(t, page.HasMore)
	require.NotEmpty(t, page.Cursor)

	resp = env.Get(t, "/documents?limit=2&cursor="+page.Cursor)
	var rest documentListPayload
	require.NoError(t, json.Unmarshal(resp.Data, &rest))
	require.Len(t, rest.Items, 1)
	assert.False(t, rest.HasMore)

	seen := map[string]bool{}
	for _, d := range append(page.Items, rest.Items...) {
		seen[d.DocumentID] = true
	}
	assert.Len(t, seen, 3)
}
