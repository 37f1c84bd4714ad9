package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ontorag/ontorag/internal/api"
	"github.com/ontorag/ontorag/internal/api/handlers"
	"github.com/ontorag/ontorag/internal/api/middleware"
)

type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	ProposalHandler *handlers.ProposalHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", cfg.DocumentHandler.Ingest)
		r.Get("/", cfg.DocumentHandler.List)
		r.Get("/{id}", cfg.DocumentHandler.Get)
		r.Delete("/{id}", cfg.DocumentHandler.Delete)
		r.Get("/{id}/chunks", cfg.DocumentHandler.ListChunks)
		r.Post("/{id}/extract", cfg.DocumentHandler.Extract)
	})

	r.Route("/proposals", func(r chi.Router) {
		r.Get("/{documentID}", cfg.ProposalHandler.Get)
		r.Get("/{documentID}/ttl", cfg.ProposalHandler.GetTurtle)
	})

	return r
}
