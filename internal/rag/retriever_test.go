package rag_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	llm_mocks "github.com/csells/ragamuffin/internal/llm/mocks"
	"github.com/csells/ragamuffin/internal/rag"
	"github.com/csells/ragamuffin/internal/storage"
	storage_mocks "github.com/csells/ragamuffin/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRetriever_Search(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := llm_mocks.NewMockEmbedder(ctrl)
	chunks := storage_mocks.NewMockChunkStore(ctrl)

	embedder.EXPECT().
		Embed(gomock.Any(), "espresso").
		Return([]float64{1, 0, 0}, nil)
	chunks.EXPECT().
		ListByVault(gomock.Any(), 7).
		Return([]storage.ChunkRecord{
			{Hash: "h1", Text: "about espresso", Vector: []float64{1, 0, 0}},
			{Hash: "h2", Text: "about pour-over", Vector: []float64{0.8, 0.6, 0}},
			{Hash: "h3", Text: "about tea", Vector: []float64{0, 1, 0}},
		}, nil)

	r := rag.NewRetriever(embedder, chunks, 7, 2)
	results, err := r.Search(context.Background(), "espresso")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() = %d results, want 2", len(results))
	}
	if results[0].Chunk.Hash != "h1" || results[1].Chunk.Hash != "h2" {
		t.Errorf("Search() order = [%s, %s], want [h1, h2]", results[0].Chunk.Hash, results[1].Chunk.Hash)
	}
}

func TestRetriever_Retrieve_JoinsSnippets(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := llm_mocks.NewMockEmbedder(ctrl)
	chunks := storage_mocks.NewMockChunkStore(ctrl)

	embedder.EXPECT().
		Embed(gomock.Any(), gomock.Any()).
		Return([]float64{1, 0}, nil)
	chunks.EXPECT().
		ListByVault(gomock.Any(), 1).
		Return([]storage.ChunkRecord{
			{Hash: "h1", Text: "first snippet", Vector: []float64{1, 0}},
			{Hash: "h2", Text: "second snippet", Vector: []float64{0.9, 0.1}},
		}, nil)

	r := rag.NewRetriever(embedder, chunks, 1, 5)
	joined, err := r.Retrieve(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if !strings.Contains(joined, "first snippet") || !strings.Contains(joined, "second snippet") {
		t.Errorf("Retrieve() missing snippets: %q", joined)
	}
	if !strings.Contains(joined, strings.Repeat("-", 40)) {
		t.Errorf("Retrieve() missing dash separator: %q", joined)
	}
	if strings.Index(joined, "first snippet") > strings.Index(joined, "second snippet") {
		t.Error("Retrieve() snippets out of rank order")
	}
}

func TestRetriever_EmbedFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := llm_mocks.NewMockEmbedder(ctrl)
	chunks := storage_mocks.NewMockChunkStore(ctrl)

	embedder.EXPECT().
		Embed(gomock.Any(), gomock.Any()).
		Return(nil, context.DeadlineExceeded)

	r := rag.NewRetriever(embedder, chunks, 1, 5)
	if _, err := r.Search(context.Background(), "query"); err == nil {
		t.Error("Search() expected error when embedding fails")
	}
}
