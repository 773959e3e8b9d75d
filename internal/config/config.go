// Package config loads application configuration from environment
// variables, with .env autoloading for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider names selectable via PROVIDER.
const (
	ProviderOpenAI   = "openai"
	ProviderLlamaCpp = "llamacpp"
)

// Config holds all configuration for the application.
type Config struct {
	Provider            string
	OpenAIAPIKey        string
	LLMBaseURL          string
	ChatModel           string
	EmbeddingModel      string
	EmbeddingDimensions int
	DBPath              string
	MaxTokens           int
	TopK                int
	LogLevel            slog.Level
	LogFormat           string
	APIPort             string
}

// Load reads configuration from environment variables and returns a Config.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or an ancestor, it is
// loaded automatically; environment variables already set take precedence
// over .env values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		Provider:       getEnv("PROVIDER", ProviderOpenAI),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMBaseURL:     getEnv("LLM_BASE_URL", "http://localhost:8080"),
		ChatModel:      getEnv("CHAT_MODEL", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", ""),
		DBPath:         getEnv("DB_PATH", "./data/ragamuffin.db"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		APIPort:        getEnv("API_PORT", "9000"),
	}

	var err error
	if cfg.EmbeddingDimensions, err = getEnvInt("EMBEDDING_DIMENSIONS", 1536); err != nil {
		return nil, err
	}
	if cfg.MaxTokens, err = getEnvInt("MAX_TOKENS", 6000); err != nil {
		return nil, err
	}
	if cfg.TopK, err = getEnvInt("TOP_K", 5); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when PROVIDER=openai")
		}
	case ProviderLlamaCpp:
	default:
		return nil, fmt.Errorf("unknown PROVIDER %q (want %s or %s)",
			cfg.Provider, ProviderOpenAI, ProviderLlamaCpp)
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	// The DB file's directory must exist before sqlite can create the file.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads a .env from the current directory, then walks up a few
// ancestors looking for one at the project root.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// NewLogger builds the process logger from the configured level and format.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return n, nil
}
