// Package http assembles the chi router for serve mode.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/csells/ragamuffin/internal/handlers"
	"github.com/csells/ragamuffin/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Service handlers.RAGService
	Syncer  handlers.Syncer
	Vaults  storage.VaultStore
}

// NewRouter creates the HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat", handlers.NewChatHandler(deps.Service))
		r.Method(http.MethodGet, "/search", handlers.NewSearchHandler(deps.Service))
		r.Method(http.MethodPost, "/sync/{vault}", handlers.NewSyncHandler(deps.Syncer))
		r.Method(http.MethodGet, "/status/{vault}", handlers.NewStatusHandler(deps.Syncer))
		r.Method(http.MethodGet, "/vaults", handlers.NewVaultsHandler(deps.Vaults))
	})

	r.Get("/health", handlers.Health)

	return r
}
