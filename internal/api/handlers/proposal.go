package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ontorag/ontorag/internal/api"
	"github.com/ontorag/ontorag/internal/domain"
	"github.com/ontorag/ontorag/internal/rdf"
)

type ProposalStore interface {
	GetByDocument(ctx context.Context, documentID string) (*domain.AggregatedProposal, error)
}

type ProposalHandler struct {
	store     ProposalStore
	namespace string
}

func NewProposalHandler(store ProposalStore, namespace string) *ProposalHandler {
	if namespace == "" {
		namespace = rdf.DefaultNamespace
	}
	return &ProposalHandler{store: store, namespace: namespace}
}

func (h *ProposalHandler) Get(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	if documentID == "" {
		api.Error(w, http.StatusBadRequest, "documentID is required")
		return
	}

	agg, err := h.store.GetByDocument(r.Context(), documentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, agg)
}

// GetTurtle serves the proposal as Turtle instead of the JSON envelope.
func (h *ProposalHandler) GetTurtle(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	if documentID == "" {
		api.Error(w, http.StatusBadRequest, "documentID is required")
		return
	}

	agg, err := h.store.GetByDocument(r.Context(), documentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	ttl := rdf.ProposalToTurtle(agg, h.namespace)
	w.Header().Set("Content-Type", "text/turtle; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ttl))
}
