package driven

import (
	"context"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

// VectorIndex provides semantic similarity search over one index generation.
//
// The default retriever scans the active generation directly; implementations
// of this interface (an embedded vector database, an ANN index) can be
// substituted without touching retrieval logic.
type VectorIndex interface {
	// Rebuild replaces the index contents with the given generation's
	// queryable chunks. A failed rebuild must leave the previously served
	// contents intact.
	Rebuild(ctx context.Context, gen *domain.Generation) error

	// Search finds the k most similar chunks to the query vector.
	// Returns hits ordered by descending similarity; ties broken by
	// ascending chunk ID. An empty index yields an empty slice, not an error.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Size returns the number of indexed vectors.
	Size() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
