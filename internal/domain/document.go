package domain

import (
	"fmt"
	"strings"
	"time"
)

// SnippetMaxLen is the default cap for provenance text snippets.
const SnippetMaxLen = 240

// Provenance records where a chunk's text came from. It is immutable
// once the chunk is created.
type Provenance struct {
	SourcePath string `json:"source_path"`
	SourceMIME string `json:"source_mime,omitempty"`

	Page      *int   `json:"page,omitempty"`
	PageLabel string `json:"page_label,omitempty"`
	Section   string `json:"section,omitempty"`

	OffsetStart *int `json:"offset_start,omitempty"`
	OffsetEnd   *int `json:"offset_end,omitempty"`

	TextSnippet string `json:"text_snippet,omitempty"`

	// Raw holds engine-specific segmentation metadata. Its shape
	// varies by segmentation engine, so it stays an open bag.
	Raw map[string]any `json:"raw,omitempty"`
}

// Chunk is a contiguous, provenance-tagged span of document text, the
// atomic unit of downstream proposal generation.
type Chunk struct {
	DocumentID string     `json:"document_id"`
	ChunkID    string     `json:"chunk_id"`
	ChunkIndex int        `json:"chunk_index"`
	Text       string     `json:"text"`
	Provenance Provenance `json:"provenance"`
	TextHash   string     `json:"text_hash"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Document is an ingested source file with its ordered chunks.
type Document struct {
	DocumentID  string    `json:"document_id"`
	SourcePath  string    `json:"source_path"`
	SourceMIME  string    `json:"source_mime,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	Title       string    `json:"title,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Chunks      []Chunk   `json:"chunks"`
}

// Snippet collapses whitespace and caps the result at maxLen runes,
// marking truncation with an ellipsis.
func Snippet(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = SnippetMaxLen
	}
	clean := strings.Join(strings.Fields(text), " ")
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	return string(runes[:maxLen]) + "…"
}

// ValidateChunk validates a Chunk instance.
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}
	if c.DocumentID == "" {
		return fmt.Errorf("chunk DocumentID is required")
	}
	if c.ChunkID == "" {
		return fmt.Errorf("chunk ChunkID is required")
	}
	if c.ChunkIndex < 0 {
		return fmt.Errorf("chunk ChunkIndex must not be negative, got %d", c.ChunkIndex)
	}
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("chunk Text must be non-empty")
	}
	if c.Provenance.SourcePath == "" {
		return fmt.Errorf("chunk Provenance.SourcePath is required")
	}
	return nil
}

// ValidateDocument validates a Document and the ordering of its chunks.
// Chunk indices must be exactly 0..n-1 in slice order.
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}
	if d.DocumentID == "" {
		return fmt.Errorf("document DocumentID is required")
	}
	if d.SourcePath == "" {
		return fmt.Errorf("document SourcePath is required")
	}
	for i := range d.Chunks {
		if err := ValidateChunk(&d.Chunks[i]); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		if d.Chunks[i].ChunkIndex != i {
			return fmt.Errorf("chunk indices must be dense: position %d has index %d", i, d.Chunks[i].ChunkIndex)
		}
		if d.Chunks[i].DocumentID != d.DocumentID {
			return fmt.Errorf("chunk %d belongs to document %s, not %s", i, d.Chunks[i].DocumentID, d.DocumentID)
		}
	}
	return nil
}
