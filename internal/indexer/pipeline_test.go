package indexer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/csells/ragamuffin/internal/chunker"
	"github.com/csells/ragamuffin/internal/indexer"
	"github.com/csells/ragamuffin/internal/llm"
	llm_mocks "github.com/csells/ragamuffin/internal/llm/mocks"
	"github.com/csells/ragamuffin/internal/storage"

	"go.uber.org/mock/gomock"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fixture struct {
	pipeline *indexer.Pipeline
	vaults   *storage.VaultRepo
	chunks   *storage.ChunkRepo
	embedder *llm_mocks.MockEmbedder
	root     string
}

func newFixture(t *testing.T, ctrl *gomock.Controller) *fixture {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	vaults := storage.NewVaultRepo(db)
	chunks := storage.NewChunkRepo(db)
	embedder := llm_mocks.NewMockEmbedder(ctrl)
	root := t.TempDir()

	if _, err := vaults.Create(context.Background(), "notes", root); err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}

	return &fixture{
		pipeline: indexer.NewPipeline(vaults, chunks, chunker.New(0), embedder, nil),
		vaults:   vaults,
		chunks:   chunks,
		embedder: embedder,
		root:     root,
	}
}

func (f *fixture) writeFile(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.root, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func (f *fixture) vaultID(t *testing.T) int {
	t.Helper()
	v, err := f.vaults.GetByName(context.Background(), "notes")
	if err != nil {
		t.Fatalf("failed to load vault: %v", err)
	}
	return v.ID
}

func TestSync_AddsThenIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(t, ctrl)

	f.writeFile(t, "a.md", "Chunk one text.")
	f.writeFile(t, "b.md", "Chunk two text.")

	f.embedder.EXPECT().
		Embed(gomock.Any(), gomock.Any()).
		Return([]float64{1, 0}, nil).
		Times(2)

	result, err := f.pipeline.Sync(context.Background(), "notes")
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Added != 2 || result.Deleted != 0 {
		t.Errorf("Sync() = %+v, want {Added:2 Deleted:0}", result)
	}

	// No disk changes: second run must touch nothing, no embed calls.
	result, err = f.pipeline.Sync(context.Background(), "notes")
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if result.Added != 0 || result.Deleted != 0 {
		t.Errorf("second Sync() = %+v, want {Added:0 Deleted:0}", result)
	}
}

func TestSync_ModifiedFileSwapsChunk(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(t, ctrl)

	f.writeFile(t, "note.md", "Original content.")
	f.embedder.EXPECT().
		Embed(gomock.Any(), gomock.Any()).
		Return([]float64{1, 0}, nil).
		Times(2)

	if _, err := f.pipeline.Sync(context.Background(), "notes"); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}

	f.writeFile(t, "note.md", "Rewritten content.")

	result, err := f.pipeline.Sync(context.Background(), "notes")
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if result.Added != 1 || result.Deleted != 1 {
		t.Errorf("Sync() after edit = %+v, want {Added:1 Deleted:1}", result)
	}

	stored, err := f.chunks.ListByVault(context.Background(), f.vaultID(t))
	if err != nil {
		t.Fatalf("ListByVault() error = %v", err)
	}
	if len(stored) != 1 || stored[0].Text != "Rewritten content." {
		t.Errorf("stored chunks = %+v, want only the rewritten text", stored)
	}
}

func TestSync_RemovedFileDeletesChunk(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(t, ctrl)

	f.writeFile(t, "keep.md", "Keep this.")
	f.writeFile(t, "drop.md", "Drop this.")
	f.embedder.EXPECT().
		Embed(gomock.Any(), gomock.Any()).
		Return([]float64{1, 0}, nil).
		Times(2)

	if _, err := f.pipeline.Sync(context.Background(), "notes"); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}

	if err := os.Remove(filepath.Join(f.root, "drop.md")); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}

	result, err := f.pipeline.Sync(context.Background(), "notes")
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if result.Added != 0 || result.Deleted != 1 {
		t.Errorf("Sync() after removal = %+v, want {Added:0 Deleted:1}", result)
	}
}

func TestSync_DuplicateTextAcrossFilesStoredOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(t, ctrl)

	f.writeFile(t, "one.md", "Same text everywhere.")
	f.writeFile(t, "two.md", "Same text everywhere.")

	// Content addressing collapses identical chunks, so one embed call.
	f.embedder.EXPECT().
		Embed(gomock.Any(), "Same text everywhere.").
		Return([]float64{1, 0}, nil)

	result, err := f.pipeline.Sync(context.Background(), "notes")
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Added != 1 {
		t.Errorf("Sync() = %+v, want {Added:1}", result)
	}
}

func TestSync_UnknownVault(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(t, ctrl)

	_, err := f.pipeline.Sync(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Sync(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSync_EmbedFailureKeepsCommittedChunks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(t, ctrl)

	f.writeFile(t, "a.md", "Alpha text.")
	f.writeFile(t, "b.md", "Beta text.")

	providerErr := &llm.ProviderError{Provider: "test", Err: errors.New("boom")}
	succeeded := false
	f.embedder.EXPECT().
		Embed(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string) ([]float64, error) {
			if succeeded {
				return nil, providerErr
			}
			succeeded = true
			return []float64{1, 0}, nil
		}).
		Times(2)

	result, err := f.pipeline.Sync(context.Background(), "notes")
	if err == nil {
		t.Fatal("Sync() expected error when embedding fails")
	}
	if !errors.Is(err, providerErr) {
		t.Errorf("Sync() error = %v, want wrapped provider error", err)
	}
	if result.Added != 1 {
		t.Errorf("Sync() partial result = %+v, want {Added:1}", result)
	}

	// The committed chunk survives the abort; a retry resumes from here.
	hashes, err := f.chunks.Hashes(context.Background(), f.vaultID(t))
	if err != nil {
		t.Fatalf("Hashes() error = %v", err)
	}
	if len(hashes) != 1 {
		t.Errorf("stored hashes = %d, want 1", len(hashes))
	}
}

func TestSync_RateLimitedEmbedIsRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(t, ctrl)

	f.writeFile(t, "a.md", "Patience pays.")

	rateLimited := &llm.RateLimitError{Provider: "test", RetryAfter: 0}
	gomock.InOrder(
		f.embedder.EXPECT().Embed(gomock.Any(), "Patience pays.").Return(nil, rateLimited),
		f.embedder.EXPECT().Embed(gomock.Any(), "Patience pays.").Return(nil, rateLimited),
		f.embedder.EXPECT().Embed(gomock.Any(), "Patience pays.").Return([]float64{1, 0}, nil),
	)

	result, err := f.pipeline.Sync(context.Background(), "notes")
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Added != 1 {
		t.Errorf("Sync() = %+v, want {Added:1}", result)
	}
}

func TestSync_RateLimitRetriesAreBounded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(t, ctrl)

	f.writeFile(t, "a.md", "Never succeeds.")

	rateLimited := &llm.RateLimitError{Provider: "test", RetryAfter: 0}
	f.embedder.EXPECT().
		Embed(gomock.Any(), gomock.Any()).
		Return(nil, rateLimited).
		Times(3)

	_, err := f.pipeline.Sync(context.Background(), "notes")
	if err == nil {
		t.Fatal("Sync() expected error after exhausting retries")
	}
	if _, ok := llm.IsRateLimited(err); !ok {
		t.Errorf("Sync() error = %v, want rate limit error surfaced", err)
	}
}

func TestIsStale(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(t, ctrl)

	// Empty vault, empty disk: vacuously in sync.
	stale, err := f.pipeline.IsStale(context.Background(), "notes")
	if err != nil {
		t.Fatalf("IsStale() error = %v", err)
	}
	if stale {
		t.Error("IsStale() = true for empty vault with empty disk, want false")
	}

	f.writeFile(t, "note.md", "Some content.")

	stale, err = f.pipeline.IsStale(context.Background(), "notes")
	if err != nil {
		t.Fatalf("IsStale() error = %v", err)
	}
	if !stale {
		t.Error("IsStale() = false before sync of non-empty vault, want true")
	}

	f.embedder.EXPECT().
		Embed(gomock.Any(), gomock.Any()).
		Return([]float64{1, 0}, nil)
	if _, err := f.pipeline.Sync(context.Background(), "notes"); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	stale, err = f.pipeline.IsStale(context.Background(), "notes")
	if err != nil {
		t.Fatalf("IsStale() error = %v", err)
	}
	if stale {
		t.Error("IsStale() = true immediately after sync, want false")
	}

	f.writeFile(t, "note.md", "Changed content.")

	stale, err = f.pipeline.IsStale(context.Background(), "notes")
	if err != nil {
		t.Fatalf("IsStale() error = %v", err)
	}
	if !stale {
		t.Error("IsStale() = false after disk change, want true")
	}
}

func TestIsStale_UnknownVault(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(t, ctrl)

	_, err := f.pipeline.IsStale(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("IsStale(missing) error = %v, want ErrNotFound", err)
	}
}
