package handlers

import (
	"net/http"
)

// SearchHandler answers retrieval queries over a vault.
type SearchHandler struct {
	service RAGService
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(service RAGService) *SearchHandler {
	return &SearchHandler{service: service}
}

// SearchResult is one scored chunk in a search response.
type SearchResult struct {
	Hash  string  `json:"hash"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// SearchResponse is the body of a search reply.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// ServeHTTP handles GET /api/search?vault=<name>&q=<query>.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vaultName := r.URL.Query().Get("vault")
	query := r.URL.Query().Get("q")
	if vaultName == "" || query == "" {
		writeError(w, http.StatusBadRequest, "vault and q query parameters are required")
		return
	}

	scored, err := h.service.Search(r.Context(), vaultName, query)
	if err != nil {
		handleError(w, r, err, "Search failed")
		return
	}

	results := make([]SearchResult, 0, len(scored))
	for _, s := range scored {
		results = append(results, SearchResult{
			Hash:  s.Chunk.Hash,
			Text:  s.Chunk.Text,
			Score: s.Score,
		})
	}

	writeJSON(w, http.StatusOK, SearchResponse{Query: query, Results: results})
}
