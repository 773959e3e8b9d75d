// Package commands implements the CLI command actions.
package commands

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/csells/ragamuffin/internal/chunker"
	"github.com/csells/ragamuffin/internal/config"
	"github.com/csells/ragamuffin/internal/indexer"
	"github.com/csells/ragamuffin/internal/llm"
	"github.com/csells/ragamuffin/internal/service"
	"github.com/csells/ragamuffin/internal/storage"
)

// AppContext holds the shared dependencies of every command: configuration,
// the open database and the composed core components.
type AppContext struct {
	Config   *config.Config
	DB       *sql.DB
	Vaults   *storage.VaultRepo
	Chunks   *storage.ChunkRepo
	Embedder llm.Embedder
	Provider llm.ChatProvider
	Pipeline *indexer.Pipeline
	Service  *service.RAGService
}

// NewAppContext loads configuration, opens the database and wires the
// components together. The provider is chosen here, once, from config.
func NewAppContext() (*AppContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.SetDefault(cfg.NewLogger())

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	vaults := storage.NewVaultRepo(db)
	chunks := storage.NewChunkRepo(db)

	var embedder llm.Embedder
	var provider llm.ChatProvider
	switch cfg.Provider {
	case config.ProviderOpenAI:
		client := llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.ChatModel, cfg.EmbeddingModel, cfg.EmbeddingDimensions)
		embedder, provider = client, client
	case config.ProviderLlamaCpp:
		client := llm.NewLlamaCpp(cfg.LLMBaseURL, cfg.OpenAIAPIKey, cfg.ChatModel, cfg.EmbeddingModel)
		embedder, provider = client, client
	default:
		_ = db.Close()
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	return &AppContext{
		Config:   cfg,
		DB:       db,
		Vaults:   vaults,
		Chunks:   chunks,
		Embedder: embedder,
		Provider: provider,
		Pipeline: indexer.NewPipeline(vaults, chunks, chunker.New(cfg.MaxTokens), embedder, nil),
		Service:  service.NewRAGService(vaults, chunks, embedder, provider, cfg.TopK),
	}, nil
}

// Close releases the resources held by the AppContext.
func (ac *AppContext) Close() {
	if ac.DB != nil {
		_ = ac.DB.Close()
	}
}
