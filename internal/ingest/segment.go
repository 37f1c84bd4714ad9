// Package ingest turns raw documents into ordered, provenance-tagged
// chunks. Structure comes from either an external segmentation engine
// (a hierarchical section tree), the built-in markdown heading
// splitter, or a fixed-size sliding window as a last resort.
package ingest

import "context"

// TreeNode is one node of a segmentation tree. A node is a leaf when
// it has no child nodes. Leaf text is resolved from Text when present,
// otherwise from the page range [StartIndex, EndIndex] (inclusive).
type TreeNode struct {
	Title      string         `json:"title,omitempty"`
	Nodes      []TreeNode     `json:"nodes,omitempty"`
	StartIndex int            `json:"start_index"`
	EndIndex   int            `json:"end_index"`
	Text       string         `json:"text,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// SegmentResult is the output of a segmentation engine run.
type SegmentResult struct {
	Title string     `json:"title,omitempty"`
	Nodes []TreeNode `json:"tree"`
	Pages []string   `json:"pages"`
}

// Segmenter is the external hierarchical document-segmentation engine.
// Its internal correctness is out of scope; this package only consumes
// its output. Chunk ids are reproducible for the same engine and
// version, not across engines.
type Segmenter interface {
	Segment(ctx context.Context, sourcePath string, data []byte) (*SegmentResult, error)
	Supports(ext string) bool
}

// Leaf is one flattened text span in document reading order, carrying
// its breadcrumb section path.
type Leaf struct {
	Text      string
	Section   string
	Title     string
	StartPage *int
	EndPage   *int
	Raw       map[string]any
}
