package storage

import "time"

// VaultRecord represents a tracked root directory in the database.
type VaultRecord struct {
	ID        int
	Name      string
	RootPath  string
	CreatedAt time.Time
}

// ChunkRecord represents one content-addressed unit of text belonging to a
// vault, together with its embedding vector. Chunks are never mutated in
// place: a content change is a delete of the old hash plus an insert of the
// new one.
type ChunkRecord struct {
	ID      int64
	VaultID int
	Hash    string    // SHA256 hex string of Text
	Text    string    // UTF-8 chunk content
	Vector  []float64 // Embedding, fixed dimensionality per provider
}
