package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ontorag/ontorag/internal/api"
	"github.com/ontorag/ontorag/internal/domain"
	"github.com/ontorag/ontorag/internal/pagination"
	"github.com/ontorag/ontorag/internal/service"
)

type Ingester interface {
	Ingest(ctx context.Context, input service.IngestInput) (*domain.Document, error)
}

type DocumentStore interface {
	GetByID(ctx context.Context, documentID string) (*domain.Document, error)
	ListPage(ctx context.Context, cursor string, limit int) (*pagination.PageResult[*domain.Document], error)
	Delete(ctx context.Context, documentID string) error
}

type ChunkStore interface {
	ListByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)
}

type ExtractionRunner interface {
	Extract(ctx context.Context, documentID string) (*domain.AggregatedProposal, error)
}

// ArtifactCleaner removes remotely published artifacts when their
// document is deleted. Optional; nil when no object store is configured.
type ArtifactCleaner interface {
	DeleteArtifacts(ctx context.Context, documentID string) error
}

type DocumentHandler struct {
	ingester  Ingester
	docs      DocumentStore
	chunks    ChunkStore
	extractor ExtractionRunner
	artifacts ArtifactCleaner
}

func NewDocumentHandler(ingester Ingester, docs DocumentStore, chunks ChunkStore, extractor ExtractionRunner) *DocumentHandler {
	return &DocumentHandler{ingester: ingester, docs: docs, chunks: chunks, extractor: extractor}
}

// WithArtifactCleaner enables remote artifact cleanup on document delete.
func (h *DocumentHandler) WithArtifactCleaner(cleaner ArtifactCleaner) *DocumentHandler {
	h.artifacts = cleaner
	return h
}

type IngestDocumentRequest struct {
	SourcePath string `json:"source_path"`
	MIME       string `json:"mime"`
	Content    string `json:"content"`
	// ContentBase64 carries binary sources. Takes precedence over Content.
	ContentBase64   string `json:"content_base64"`
	QueueExtraction bool   `json:"queue_extraction"`
}

type DocumentResponse struct {
	DocumentID  string `json:"document_id"`
	SourcePath  string `json:"source_path"`
	SourceMIME  string `json:"source_mime,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	Title       string `json:"title,omitempty"`
	ChunkCount  int    `json:"chunk_count"`
	CreatedAt   string `json:"created_at"`
}

type ChunkResponse struct {
	ChunkID    string            `json:"chunk_id"`
	ChunkIndex int               `json:"chunk_index"`
	Text       string            `json:"text"`
	TextHash   string            `json:"text_hash"`
	Provenance domain.Provenance `json:"provenance"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		DocumentID:  d.DocumentID,
		SourcePath:  d.SourcePath,
		SourceMIME:  d.SourceMIME,
		ContentHash: d.ContentHash,
		Title:       d.Title,
		ChunkCount:  len(d.Chunks),
		CreatedAt:   d.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func chunkToResponse(c domain.Chunk) *ChunkResponse {
	return &ChunkResponse{
		ChunkID:    c.ChunkID,
		ChunkIndex: c.ChunkIndex,
		Text:       c.Text,
		TextHash:   c.TextHash,
		Provenance: c.Provenance,
	}
}

func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SourcePath == "" {
		api.Error(w, http.StatusBadRequest, "source_path is required")
		return
	}

	data := []byte(req.Content)
	if req.ContentBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "content_base64 is not valid base64")
			return
		}
		data = decoded
	}
	if len(data) == 0 {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	doc, err := h.ingester.Ingest(r.Context(), service.IngestInput{
		SourcePath:      req.SourcePath,
		MIME:            req.MIME,
		Data:            data,
		QueueExtraction: req.QueueExtraction,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, documentToResponse(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	doc, err := h.docs.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := documentToResponse(doc)
	if h.chunks != nil {
		chunks, err := h.chunks.ListByDocument(r.Context(), id)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		resp.ChunkCount = len(chunks)
	}

	api.Success(w, http.StatusOK, resp)
}

type DocumentListResponse struct {
	Items   []*DocumentResponse `json:"items"`
	Cursor  string              `json:"cursor,omitempty"`
	HasMore bool                `json:"has_more"`
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	page, err := h.docs.ListPage(r.Context(), cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*DocumentResponse, len(page.Items))
	for i, d := range page.Items {
		responses[i] = documentToResponse(d)
	}

	api.Success(w, http.StatusOK, DocumentListResponse{
		Items:   responses,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.docs.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	if h.artifacts != nil {
		// Best effort; the rows are already gone.
		if err := h.artifacts.DeleteArtifacts(r.Context(), id); err != nil {
			log.Printf("failed to delete artifacts for %s: %v", id, err)
		}
	}

	api.Success(w, http.StatusOK, map[string]string{"document_id": id, "status": "deleted"})
}

type ChunkListResponse struct {
	DocumentID string           `json:"document_id"`
	Items      []*ChunkResponse `json:"items"`
}

func (h *DocumentHandler) ListChunks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	chunks, err := h.chunks.ListByDocument(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ChunkResponse, len(chunks))
	for i, c := range chunks {
		responses[i] = chunkToResponse(c)
	}

	api.Success(w, http.StatusOK, ChunkListResponse{DocumentID: id, Items: responses})
}

// Extract runs chunk-by-chunk extraction synchronously and returns the
// aggregated proposal. Long documents should go through the job queue
// instead (queue_extraction on ingest).
func (h *DocumentHandler) Extract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if h.extractor == nil {
		api.HandleError(w, domain.ErrProposerNotConfigured)
		return
	}

	agg, err := h.extractor.Extract(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, agg)
}
