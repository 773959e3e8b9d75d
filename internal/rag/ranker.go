// Package rag implements brute-force vector retrieval: cosine ranking of
// stored chunks against a query embedding, and the retrieve_chunks tool
// surface exposed to the chat model.
package rag

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/csells/ragamuffin/internal/storage"
)

// ErrDimensionMismatch is returned when two vectors of unequal length are
// compared. This happens when a vault indexed under one embedding provider
// is queried under another; the comparison is rejected loudly rather than
// silently miscomputed.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Scored pairs a chunk with its cosine similarity to the query.
type Scored struct {
	Chunk storage.ChunkRecord
	Score float64
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|). It returns
// ErrDimensionMismatch if the vectors have different lengths.
//
// Precondition: both vectors have nonzero magnitude. Zero vectors produce
// NaN, which is the caller's problem to avoid, not this function's to mask.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// Rank scores every chunk against the query vector and returns the topK
// highest, descending by similarity. The sort is stable, so ties keep
// their original input order. Dimensions are checked per pair.
func Rank(chunks []storage.ChunkRecord, query []float64, topK int) ([]Scored, error) {
	scored := make([]Scored, 0, len(chunks))
	for _, chunk := range chunks {
		score, err := CosineSimilarity(chunk.Vector, query)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", chunk.Hash, err)
		}
		scored = append(scored, Scored{Chunk: chunk, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > 0 && topK < len(scored) {
		scored = scored[:topK]
	}

	return scored, nil
}
