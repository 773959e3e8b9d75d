// Package indexer keeps a vault's stored chunks in sync with its files on
// disk. Sync is a content-addressed diff: chunk hashes observed on disk are
// compared against the stored hash set, new hashes are embedded and added,
// vanished hashes are deleted. Nothing is ever updated in place.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/csells/ragamuffin/internal/chunker"
	"github.com/csells/ragamuffin/internal/contextutil"
	"github.com/csells/ragamuffin/internal/llm"
	"github.com/csells/ragamuffin/internal/storage"
	"github.com/csells/ragamuffin/internal/vault"
)

// maxEmbedAttempts bounds automatic retries of a rate-limited embed call.
const maxEmbedAttempts = 3

// SyncResult reports what one sync pass changed.
type SyncResult struct {
	Added   int
	Deleted int
}

// Pipeline orchestrates chunking, diffing, embedding and persistence for
// vault synchronization.
type Pipeline struct {
	vaults   storage.VaultStore
	chunks   storage.ChunkStore
	chunker  *chunker.Chunker
	embedder llm.Embedder
	exts     []string
	logger   *slog.Logger
}

// NewPipeline creates a sync pipeline. A nil exts uses
// vault.DefaultExtensions.
func NewPipeline(vaults storage.VaultStore, chunks storage.ChunkStore, ck *chunker.Chunker, embedder llm.Embedder, exts []string) *Pipeline {
	return &Pipeline{
		vaults:   vaults,
		chunks:   chunks,
		chunker:  ck,
		embedder: embedder,
		exts:     exts,
		logger:   slog.Default(),
	}
}

// Sync reconciles the named vault's stored chunks with its files on disk
// and returns the add/delete counts. Returns storage.ErrNotFound if the
// vault is unknown.
//
// Additions run first, one synchronous embed call per chunk; an embedding
// failure aborts the remaining additions but keeps the chunks already
// committed, so a retry resumes from where it left off. Deletions of
// vanished hashes run after the add loop, so a failed add pass leaves
// them for the next run.
func (p *Pipeline) Sync(ctx context.Context, vaultName string) (SyncResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	v, err := p.vaults.GetByName(ctx, vaultName)
	if err != nil {
		return SyncResult{}, err
	}

	diskChunks, err := p.diskChunks(v.RootPath)
	if err != nil {
		return SyncResult{}, err
	}

	dbHashes, err := p.chunks.Hashes(ctx, v.ID)
	if err != nil {
		return SyncResult{}, err
	}

	var toAdd []string
	for hash := range diskChunks {
		if _, ok := dbHashes[hash]; !ok {
			toAdd = append(toAdd, hash)
		}
	}
	sort.Strings(toAdd)

	var result SyncResult
	for _, hash := range toAdd {
		text := diskChunks[hash]
		vector, err := p.embedWithRetry(ctx, text)
		if err != nil {
			logger.ErrorContext(ctx, "embedding failed, aborting remaining additions",
				"vault", vaultName, "added", result.Added, "pending", len(toAdd)-result.Added, "error", err)
			return result, fmt.Errorf("failed to embed chunk %s: %w", hash, err)
		}
		if err := p.chunks.Add(ctx, v.ID, text, vector); err != nil {
			return result, err
		}
		result.Added++
	}

	for hash := range dbHashes {
		if _, ok := diskChunks[hash]; !ok {
			if err := p.chunks.Delete(ctx, hash, v.ID); err != nil {
				return result, err
			}
			result.Deleted++
		}
	}

	logger.InfoContext(ctx, "vault synced",
		"vault", vaultName, "added", result.Added, "deleted", result.Deleted, "disk_chunks", len(diskChunks))
	return result, nil
}

// IsStale reports whether the named vault's stored hash set differs from
// what chunking its files on disk would produce right now. It recomputes
// the disk side through the same walk/chunk/digest pipeline as Sync and
// mutates nothing. An empty vault with no disk content is vacuously in
// sync.
func (p *Pipeline) IsStale(ctx context.Context, vaultName string) (bool, error) {
	v, err := p.vaults.GetByName(ctx, vaultName)
	if err != nil {
		return false, err
	}

	diskChunks, err := p.diskChunks(v.RootPath)
	if err != nil {
		return false, err
	}

	dbHashes, err := p.chunks.Hashes(ctx, v.ID)
	if err != nil {
		return false, err
	}

	if len(diskChunks) != len(dbHashes) {
		return true, nil
	}
	for hash := range diskChunks {
		if _, ok := dbHashes[hash]; !ok {
			return true, nil
		}
	}

	return false, nil
}

// diskChunks walks the root, chunks every eligible file and returns the
// hash -> text mapping. Identical chunk text anywhere in the tree collapses
// to one entry; deduplication is a byproduct of content addressing.
func (p *Pipeline) diskChunks(root string) (map[string]string, error) {
	files, err := vault.Scan(root, p.exts)
	if err != nil {
		return nil, err
	}

	chunks := make(map[string]string)
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for _, text := range p.chunker.Chunk(string(content)) {
			chunks[storage.HashText(text)] = text
		}
	}

	return chunks, nil
}

// embedWithRetry calls the embedder, automatically retrying rate-limited
// calls after the provider-suggested delay, up to maxEmbedAttempts. All
// other failures propagate immediately.
func (p *Pipeline) embedWithRetry(ctx context.Context, text string) ([]float64, error) {
	var lastErr error
	for attempt := 1; attempt <= maxEmbedAttempts; attempt++ {
		vector, err := p.embedder.Embed(ctx, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err

		retryAfter, ok := llm.IsRateLimited(err)
		if !ok || attempt == maxEmbedAttempts {
			return nil, err
		}

		p.logger.Warn("rate limited, backing off",
			"attempt", attempt, "retry_after", retryAfter)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryAfter):
		}
	}
	return nil, lastErr
}
