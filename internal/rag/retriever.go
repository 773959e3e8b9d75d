package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/csells/ragamuffin/internal/contextutil"
	"github.com/csells/ragamuffin/internal/llm"
	"github.com/csells/ragamuffin/internal/storage"
)

// DefaultTopK is the number of chunks retrieved when no explicit K is set.
const DefaultTopK = 5

// snippetSeparator divides chunk texts in a joined tool result.
var snippetSeparator = "\n" + strings.Repeat("-", 40) + "\n"

// Retriever answers retrieval queries for one vault: it embeds the query,
// loads the vault's chunks and ranks them by cosine similarity.
type Retriever struct {
	embedder llm.Embedder
	chunks   storage.ChunkStore
	vaultID  int
	topK     int
	logger   *slog.Logger
}

// NewRetriever creates a Retriever bound to the given vault.
func NewRetriever(embedder llm.Embedder, chunks storage.ChunkStore, vaultID, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		chunks:   chunks,
		vaultID:  vaultID,
		topK:     topK,
		logger:   slog.Default(),
	}
}

// Search returns the topK most similar chunks for the query, scored.
func (r *Retriever) Search(ctx context.Context, query string) ([]Scored, error) {
	logger := contextutil.LoggerFromContext(ctx)

	queryVector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	chunks, err := r.chunks.ListByVault(ctx, r.vaultID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	ranked, err := Rank(chunks, queryVector, r.topK)
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "retrieval query ranked",
		"query", query, "candidates", len(chunks), "returned", len(ranked))
	return ranked, nil
}

// Retrieve runs Search and joins the resulting snippet texts with a
// dash-line separator. This is the payload handed back to the chat model
// as the retrieve_chunks tool result.
func (r *Retriever) Retrieve(ctx context.Context, query string) (string, error) {
	ranked, err := r.Search(ctx, query)
	if err != nil {
		return "", err
	}

	texts := make([]string, len(ranked))
	for i, s := range ranked {
		texts[i] = s.Chunk.Text
	}

	return strings.Join(texts, snippetSeparator), nil
}
