package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks github.com/csells/ragamuffin/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// Add inserts a chunk keyed by the content hash of text. Inserting a
	// (hash, vault) pair that already exists is a no-op, so callers should
	// pre-filter via Hashes to avoid paying for an embedding they will
	// throw away.
	Add(ctx context.Context, vaultID int, text string, vector []float64) error
	// Hashes returns the set of chunk hashes stored for a vault.
	Hashes(ctx context.Context, vaultID int) (map[string]struct{}, error)
	// Delete removes the chunk with the given hash from a vault.
	Delete(ctx context.Context, hash string, vaultID int) error
	// ListByVault returns all chunks for a vault. Order is not significant.
	ListByVault(ctx context.Context, vaultID int) ([]ChunkRecord, error)
}

// ChunkRepo provides methods for chunk operations backed by SQLite.
// It implements the ChunkStore interface. Vectors are stored as JSON
// arrays in a TEXT column.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Add inserts a chunk into the database, computing its content hash.
func (r *ChunkRepo) Add(ctx context.Context, vaultID int, text string, vector []float64) error {
	vec, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to encode vector: %w", err)
	}

	// INSERT OR IGNORE keeps the insert idempotent on (hash, vault_id).
	_, err = r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO chunks (vault_id, hash, text, vec) VALUES (?, ?, ?, ?)",
		vaultID, HashText(text), text, string(vec),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// Hashes returns the set of chunk hashes stored for a vault.
func (r *ChunkRepo) Hashes(ctx context.Context, vaultID int) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT hash FROM chunks WHERE vault_id = ?",
		vaultID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk hashes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	hashes := make(map[string]struct{})
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan chunk hash: %w", err)
		}
		hashes[hash] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return hashes, nil
}

// Delete removes the chunk with the given hash from a vault.
func (r *ChunkRepo) Delete(ctx context.Context, hash string, vaultID int) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE hash = ? AND vault_id = ?",
		hash, vaultID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete chunk: %w", err)
	}
	return nil
}

// ListByVault returns all chunks for a vault.
func (r *ChunkRepo) ListByVault(ctx context.Context, vaultID int) ([]ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, vault_id, hash, text, vec FROM chunks WHERE vault_id = ?",
		vaultID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chunks []ChunkRecord
	for rows.Next() {
		var chunk ChunkRecord
		var vec string
		if err := rows.Scan(&chunk.ID, &chunk.VaultID, &chunk.Hash, &chunk.Text, &vec); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(vec), &chunk.Vector); err != nil {
			return nil, fmt.Errorf("failed to decode vector for chunk %s: %w", chunk.Hash, err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chunks, nil
}
