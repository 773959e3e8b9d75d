package handlers

import (
	"net/http"

	"github.com/csells/ragamuffin/internal/contextutil"

	"github.com/go-chi/chi/v5"
)

// SyncHandler triggers vault synchronization.
type SyncHandler struct {
	syncer Syncer
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(syncer Syncer) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

// SyncResponse reports the result of a sync pass.
type SyncResponse struct {
	Vault   string `json:"vault"`
	Added   int    `json:"added"`
	Deleted int    `json:"deleted"`
}

// ServeHTTP handles POST /api/sync/{vault}.
func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vaultName := chi.URLParam(r, "vault")
	if vaultName == "" {
		writeError(w, http.StatusBadRequest, "Vault name is required")
		return
	}

	result, err := h.syncer.Sync(r.Context(), vaultName)
	if err != nil {
		handleError(w, r, err, "Failed to sync vault")
		return
	}

	logger := contextutil.LoggerFromContext(r.Context())
	logger.InfoContext(r.Context(), "sync completed",
		"vault", vaultName, "added", result.Added, "deleted", result.Deleted)

	writeJSON(w, http.StatusOK, SyncResponse{
		Vault:   vaultName,
		Added:   result.Added,
		Deleted: result.Deleted,
	})
}

// StatusHandler reports vault staleness without mutating anything.
type StatusHandler struct {
	syncer Syncer
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(syncer Syncer) *StatusHandler {
	return &StatusHandler{syncer: syncer}
}

// StatusResponse reports whether a vault needs a sync.
type StatusResponse struct {
	Vault string `json:"vault"`
	Stale bool   `json:"stale"`
}

// ServeHTTP handles GET /api/status/{vault}.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vaultName := chi.URLParam(r, "vault")
	if vaultName == "" {
		writeError(w, http.StatusBadRequest, "Vault name is required")
		return
	}

	stale, err := h.syncer.IsStale(r.Context(), vaultName)
	if err != nil {
		handleError(w, r, err, "Failed to check vault status")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Vault: vaultName, Stale: stale})
}
