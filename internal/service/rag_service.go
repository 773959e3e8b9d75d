// Package service composes the core components into the operations the
// CLI and HTTP surfaces expose: vault-scoped search and stateless chat
// turns.
package service

import (
	"context"
	"log/slog"

	"github.com/csells/ragamuffin/internal/chat"
	"github.com/csells/ragamuffin/internal/llm"
	"github.com/csells/ragamuffin/internal/rag"
	"github.com/csells/ragamuffin/internal/storage"
)

// DefaultSystemPrompt seeds chat sessions unless the caller overrides it.
const DefaultSystemPrompt = "You are a helpful assistant with access to the user's indexed notes. " +
	"Use the retrieve_chunks tool to look up relevant notes before answering questions about their content."

// RAGService answers search and chat requests against any vault in the
// store. Retrievers are built per request, scoped to the requested vault.
type RAGService struct {
	vaults       storage.VaultStore
	chunks       storage.ChunkStore
	embedder     llm.Embedder
	provider     llm.ChatProvider
	topK         int
	systemPrompt string
	logger       *slog.Logger
}

// NewRAGService creates a RAGService. topK <= 0 uses rag.DefaultTopK.
func NewRAGService(vaults storage.VaultStore, chunks storage.ChunkStore, embedder llm.Embedder, provider llm.ChatProvider, topK int) *RAGService {
	return &RAGService{
		vaults:       vaults,
		chunks:       chunks,
		embedder:     embedder,
		provider:     provider,
		topK:         topK,
		systemPrompt: DefaultSystemPrompt,
		logger:       slog.Default(),
	}
}

// Search embeds the query and returns the top-K scored chunks of the named
// vault. Returns storage.ErrNotFound for an unknown vault.
func (s *RAGService) Search(ctx context.Context, vaultName, query string) ([]rag.Scored, error) {
	v, err := s.vaults.GetByName(ctx, vaultName)
	if err != nil {
		return nil, err
	}
	retriever := rag.NewRetriever(s.embedder, s.chunks, v.ID, s.topK)
	return retriever.Search(ctx, query)
}

// ChatTurn runs one stateless conversational turn against the named vault.
// The caller holds the history between requests; the returned history is
// the input extended with this turn's messages.
func (s *RAGService) ChatTurn(ctx context.Context, vaultName, message string, history []llm.Message) (string, []llm.Message, error) {
	v, err := s.vaults.GetByName(ctx, vaultName)
	if err != nil {
		return "", nil, err
	}

	retriever := rag.NewRetriever(s.embedder, s.chunks, v.ID, s.topK)
	session := chat.NewSession(s.provider, retriever, s.systemPrompt)
	if len(history) > 0 {
		session.SetHistory(history)
	}

	reply, err := session.Turn(ctx, message)
	if err != nil {
		return "", nil, err
	}
	return reply, session.History(), nil
}

// NewSession starts a stateful chat session bound to the named vault, for
// callers that keep the session alive across turns (the chat REPL).
func (s *RAGService) NewSession(ctx context.Context, vaultName string) (*chat.Session, error) {
	v, err := s.vaults.GetByName(ctx, vaultName)
	if err != nil {
		return nil, err
	}
	retriever := rag.NewRetriever(s.embedder, s.chunks, v.ID, s.topK)
	return chat.NewSession(s.provider, retriever, s.systemPrompt), nil
}
