package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippet(t *testing.T) {
	t.Run("collapses whitespace", func(t *testing.T) {
		assert.Equal(t, "a b c", Snippet("a\n  b\t\tc", 240))
	})

	t.Run("caps and marks truncation", func(t *testing.T) {
		long := strings.Repeat("word ", 100)
		got := Snippet(long, 240)
		require.True(t, strings.HasSuffix(got, "…"))
		assert.Len(t, []rune(got), 241)
	})

	t.Run("short text passes through", func(t *testing.T) {
		assert.Equal(t, "short", Snippet("short", 240))
	})

	t.Run("zero maxLen falls back to default", func(t *testing.T) {
		long := strings.Repeat("x", SnippetMaxLen+10)
		got := Snippet(long, 0)
		assert.Len(t, []rune(got), SnippetMaxLen+1)
	})
}

func validChunk(docID string, index int) Chunk {
	return Chunk{
		DocumentID: docID,
		ChunkID:    ChunkID(docID, index, nil),
		ChunkIndex: index,
		Text:       "some text",
		TextHash:   TextHash("some text"),
		Provenance: Provenance{SourcePath: "/tmp/a.md"},
		CreatedAt:  time.Now().UTC(),
	}
}

func TestValidateChunk(t *testing.T) {
	t.Run("accepts a valid chunk", func(t *testing.T) {
		c := validChunk("doc_1", 0)
		assert.NoError(t, ValidateChunk(&c))
	})

	t.Run("rejects whitespace-only text", func(t *testing.T) {
		c := validChunk("doc_1", 0)
		c.Text = "  \n\t "
		assert.Error(t, ValidateChunk(&c))
	})

	t.Run("rejects missing provenance source", func(t *testing.T) {
		c := validChunk("doc_1", 0)
		c.Provenance.SourcePath = ""
		assert.Error(t, ValidateChunk(&c))
	})
}

func TestValidateDocument(t *testing.T) {
	t.Run("accepts dense indices", func(t *testing.T) {
		d := Document{
			DocumentID: "doc_1",
			SourcePath: "/tmp/a.md",
			Chunks:     []Chunk{validChunk("doc_1", 0), validChunk("doc_1", 1)},
		}
		assert.NoError(t, ValidateDocument(&d))
	})

	t.Run("rejects gapped indices", func(t *testing.T) {
		d := Document{
			DocumentID: "doc_1",
			SourcePath: "/tmp/a.md",
			Chunks:     []Chunk{validChunk("doc_1", 0), validChunk("doc_1", 2)},
		}
		assert.Error(t, ValidateDocument(&d))
	})

	t.Run("rejects foreign chunks", func(t *testing.T) {
		d := Document{
			DocumentID: "doc_1",
			SourcePath: "/tmp/a.md",
			Chunks:     []Chunk{validChunk("doc_other", 0)},
		}
		assert.Error(t, ValidateDocument(&d))
	})
}

func TestValidateChunkProposal(t *testing.T) {
	t.Run("accepts a well-formed proposal", func(t *testing.T) {
		p := ChunkProposal{
			ChunkID: "doc_1#pNA#c0000",
			ProposedAdditions: ProposedAdditions{
				Classes: []ProposedClass{{Name: "Customer"}},
				DatatypeProperties: []ProposedProperty{
					{Name: "email", Domain: "Customer", Range: "string"},
				},
			},
		}
		assert.NoError(t, ValidateChunkProposal(&p))
	})

	t.Run("rejects missing chunk id", func(t *testing.T) {
		p := ChunkProposal{}
		assert.Error(t, ValidateChunkProposal(&p))
	})

	t.Run("rejects property without domain", func(t *testing.T) {
		p := ChunkProposal{
			ChunkID: "c1",
			ProposedAdditions: ProposedAdditions{
				ObjectProperties: []ProposedProperty{{Name: "owns", Range: "Asset"}},
			},
		}
		assert.Error(t, ValidateChunkProposal(&p))
	})

	t.Run("rejects blank class name", func(t *testing.T) {
		p := ChunkProposal{
			ChunkID: "c1",
			ProposedAdditions: ProposedAdditions{
				Classes: []ProposedClass{{Name: "   "}},
			},
		}
		assert.Error(t, ValidateChunkProposal(&p))
	})
}
