// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/csells/ragamuffin/internal/chat"
	"github.com/csells/ragamuffin/internal/contextutil"
	"github.com/csells/ragamuffin/internal/indexer"
	"github.com/csells/ragamuffin/internal/llm"
	"github.com/csells/ragamuffin/internal/rag"
	"github.com/csells/ragamuffin/internal/storage"
)

// RAGService is the slice of the service layer the API consumes.
type RAGService interface {
	Search(ctx context.Context, vaultName, query string) ([]rag.Scored, error)
	ChatTurn(ctx context.Context, vaultName, message string, history []llm.Message) (string, []llm.Message, error)
}

// Syncer runs vault synchronization.
type Syncer interface {
	Sync(ctx context.Context, vaultName string) (indexer.SyncResult, error)
	IsStale(ctx context.Context, vaultName string) (bool, error)
}

// ErrorResponse is the JSON body of any non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an ErrorResponse with the given status.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// handleError maps core errors to HTTP status codes.
func handleError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(r.Context())
	logger.ErrorContext(r.Context(), "request failed", "error", err)

	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "Resource already exists")
	case errors.Is(err, chat.ErrInvalidToolCall):
		writeError(w, http.StatusBadGateway, "Model produced an invalid tool call")
	default:
		var providerErr *llm.ProviderError
		var rateLimited *llm.RateLimitError
		if errors.As(err, &providerErr) || errors.As(err, &rateLimited) {
			writeError(w, http.StatusBadGateway, "Provider error")
			return
		}
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
