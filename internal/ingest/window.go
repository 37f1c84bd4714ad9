package ingest

import "fmt"

// Default window geometry for unstructured formats.
const (
	DefaultWindowSize    = 3000
	DefaultWindowOverlap = 200
)

// WindowChunker splits unstructured text with a fixed-size sliding
// window. Used when no structural information is available.
type WindowChunker struct {
	chunkSize int
	overlap   int
}

// NewWindowChunker validates the window geometry. overlap >= chunkSize
// would keep the window from ever advancing, so it is rejected here
// rather than assumed away.
func NewWindowChunker(chunkSize, overlap int) (*WindowChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("overlap (%d) must be smaller than chunk size (%d)", overlap, chunkSize)
	}
	return &WindowChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// NewDefaultWindowChunker returns a chunker with the default geometry.
func NewDefaultWindowChunker() *WindowChunker {
	c, err := NewWindowChunker(DefaultWindowSize, DefaultWindowOverlap)
	if err != nil {
		panic(err)
	}
	return c
}

// Split slices text into overlapping windows. Empty or whitespace-only
// slices survive here; the assembler drops them so chunk indices stay
// dense over surviving chunks only.
func (c *WindowChunker) Split(text string) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += c.chunkSize - c.overlap {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
