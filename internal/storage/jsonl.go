package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ontorag/ontorag/internal/domain"
)

// FileStore persists documents and chunks under a data directory:
// document metadata as documents/<id>.json and chunks as one JSON
// object per line in chunks/<id>.jsonl. The file layout is the
// interchange format between the pipeline CLI commands.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// documentMeta is the on-disk document record. Chunks live in their
// own JSONL file, not inline.
type documentMeta struct {
	DocumentID  string `json:"document_id"`
	SourcePath  string `json:"source_path"`
	SourceMIME  string `json:"source_mime"`
	ContentHash string `json:"content_hash"`
	Title       string `json:"title,omitempty"`
	CreatedAt   string `json:"created_at"`
	ChunkCount  int    `json:"chunk_count"`
}

func (s *FileStore) documentPath(documentID string) string {
	return filepath.Join(s.dir, "documents", documentID+".json")
}

func (s *FileStore) chunksPath(documentID string) string {
	return filepath.Join(s.dir, "chunks", documentID+".jsonl")
}

// StoreDocument writes the document metadata and its chunk stream.
// Both files are written atomically via rename so a crash never leaves
// a partial record behind.
func (s *FileStore) StoreDocument(doc *domain.Document) error {
	if err := domain.ValidateDocument(doc); err != nil {
		return err
	}

	meta := documentMeta{
		DocumentID:  doc.DocumentID,
		SourcePath:  doc.SourcePath,
		SourceMIME:  doc.SourceMIME,
		ContentHash: doc.ContentHash,
		Title:       doc.Title,
		CreatedAt:   doc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		ChunkCount:  len(doc.Chunks),
	}
	metaPayload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document metadata: %w", err)
	}

	var chunkPayload []byte
	for _, chunk := range doc.Chunks {
		line, err := json.Marshal(chunk)
		if err != nil {
			return fmt.Errorf("failed to marshal chunk %s: %w", chunk.ChunkID, err)
		}
		chunkPayload = append(chunkPayload, line...)
		chunkPayload = append(chunkPayload, '\n')
	}

	if err := writeFileAtomic(s.documentPath(doc.DocumentID), metaPayload); err != nil {
		return err
	}
	return writeFileAtomic(s.chunksPath(doc.DocumentID), chunkPayload)
}

// ReadChunks loads the chunk stream for a document in stored order.
func (s *FileStore) ReadChunks(documentID string) ([]domain.Chunk, error) {
	f, err := os.Open(s.chunksPath(documentID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to open chunk file: %w", err)
	}
	defer f.Close()

	var chunks []domain.Chunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var chunk domain.Chunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return nil, fmt.Errorf("failed to parse chunk line: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk file: %w", err)
	}
	return chunks, nil
}

// StoreProposal writes an aggregated proposal as proposals/<id>.json.
func (s *FileStore) StoreProposal(documentID string, agg *domain.AggregatedProposal) error {
	payload, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal aggregated proposal: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.dir, "proposals", documentID+".json"), payload)
}

// ReadProposal loads the aggregated proposal for a document.
func (s *FileStore) ReadProposal(documentID string) (*domain.AggregatedProposal, error) {
	payload, err := os.ReadFile(filepath.Join(s.dir, "proposals", documentID+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to read proposal: %w", err)
	}
	var agg domain.AggregatedProposal
	if err := json.Unmarshal(payload, &agg); err != nil {
		return nil, fmt.Errorf("failed to parse proposal: %w", err)
	}
	return &agg, nil
}

// ListDocumentIDs returns the IDs of all stored documents.
func (s *FileStore) ListDocumentIDs() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, "documents"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, name[:len(name)-len(".json")])
	}
	return ids, nil
}

func writeFileAtomic(path string, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
