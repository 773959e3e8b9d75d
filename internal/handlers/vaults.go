package handlers

import (
	"net/http"
	"time"

	"github.com/csells/ragamuffin/internal/storage"
)

// VaultsHandler lists the managed vaults.
type VaultsHandler struct {
	vaults storage.VaultStore
}

// NewVaultsHandler creates a VaultsHandler.
func NewVaultsHandler(vaults storage.VaultStore) *VaultsHandler {
	return &VaultsHandler{vaults: vaults}
}

// VaultResponse is one vault in the listing.
type VaultResponse struct {
	Name      string    `json:"name"`
	RootPath  string    `json:"root_path"`
	CreatedAt time.Time `json:"created_at"`
}

// ServeHTTP handles GET /api/vaults.
func (h *VaultsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vaults, err := h.vaults.ListAll(r.Context())
	if err != nil {
		handleError(w, r, err, "Failed to list vaults")
		return
	}

	resp := make([]VaultResponse, 0, len(vaults))
	for _, v := range vaults {
		resp = append(resp, VaultResponse{
			Name:      v.Name,
			RootPath:  v.RootPath,
			CreatedAt: v.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
