package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/csells/ragamuffin/internal/contextutil"
	"github.com/csells/ragamuffin/internal/llm"
)

// ChatHandler runs stateless conversational turns. The client holds the
// history and sends it back with each request.
type ChatHandler struct {
	service RAGService
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(service RAGService) *ChatHandler {
	return &ChatHandler{service: service}
}

// ChatRequest is the request payload of a chat turn.
type ChatRequest struct {
	Vault   string        `json:"vault"`
	Message string        `json:"message"`
	History []llm.Message `json:"history,omitempty"`
}

// ChatResponse carries the model's reply and the extended history for the
// next turn.
type ChatResponse struct {
	Reply   string        `json:"reply"`
	History []llm.Message `json:"history"`
}

// ServeHTTP handles POST /api/chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(r.Context(), "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Vault == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "vault and message are required")
		return
	}

	reply, history, err := h.service.ChatTurn(r.Context(), req.Vault, req.Message, req.History)
	if err != nil {
		handleError(w, r, err, "Chat turn failed")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply, History: history})
}
