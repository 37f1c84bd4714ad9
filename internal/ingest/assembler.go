package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/ontorag/ontorag/internal/domain"
)

// Source is the raw input to assembly.
type Source struct {
	Path string
	MIME string
	Data []byte
}

// Assembler wraps flattener or chunker output into the canonical
// Document/Chunk/Provenance model, deriving all identifiers.
type Assembler struct {
	now        func() time.Time
	snippetLen int
}

// NewAssembler returns an Assembler using wall-clock time and the
// default snippet cap.
func NewAssembler() *Assembler {
	return &Assembler{now: func() time.Time { return time.Now().UTC() }, snippetLen: domain.SnippetMaxLen}
}

// NewAssemblerWithClock fixes the clock, for reproducible tests.
func NewAssemblerWithClock(now func() time.Time) *Assembler {
	a := NewAssembler()
	a.now = now
	return a
}

// Assemble builds a Document from ordered leaves. Chunk indices are
// assigned sequentially from 0 over surviving chunks only: a leaf
// whose trimmed text is empty is skipped and does not consume an
// index slot. This is the one normalization rule shared by all
// chunking strategies.
func (a *Assembler) Assemble(src Source, title string, leaves []Leaf) (*domain.Document, error) {
	if len(src.Data) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	contentHash := domain.HashFile(src.Data)
	docID := domain.DocumentID(contentHash)
	createdAt := a.now()

	doc := &domain.Document{
		DocumentID:  docID,
		SourcePath:  src.Path,
		SourceMIME:  src.MIME,
		ContentHash: contentHash,
		Title:       title,
		CreatedAt:   createdAt,
	}

	for _, leaf := range leaves {
		text := strings.TrimSpace(leaf.Text)
		if text == "" {
			continue
		}

		index := len(doc.Chunks)
		prov := domain.Provenance{
			SourcePath:  src.Path,
			SourceMIME:  src.MIME,
			Page:        leaf.StartPage,
			Section:     leaf.Section,
			TextSnippet: domain.Snippet(text, a.snippetLen),
			Raw:         leaf.Raw,
		}
		if leaf.StartPage != nil {
			prov.PageLabel = strconv.Itoa(*leaf.StartPage)
		}

		doc.Chunks = append(doc.Chunks, domain.Chunk{
			DocumentID: docID,
			ChunkID:    domain.ChunkID(docID, index, leaf.StartPage),
			ChunkIndex: index,
			Text:       text,
			Provenance: prov,
			TextHash:   domain.TextHash(text),
			CreatedAt:  createdAt,
		})
	}

	return doc, nil
}

// AssembleWindows builds a Document from sliding-window slices, which
// carry no section or page structure.
func (a *Assembler) AssembleWindows(src Source, slices []string) (*domain.Document, error) {
	leaves := make([]Leaf, 0, len(slices))
	for _, s := range slices {
		leaves = append(leaves, Leaf{Text: s})
	}
	return a.Assemble(src, "", leaves)
}
