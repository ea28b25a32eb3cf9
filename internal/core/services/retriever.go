package services

import (
	"context"
	"sort"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driven"
)

// DefaultTopK is the default number of contexts retrieved per question.
const DefaultTopK = 8

// Retriever performs cosine similarity search against the active generation.
//
// The default path is a brute-force scan; at the corpus scale involved
// (hundreds to low thousands of syllabus chunks) this is exact and fast
// enough. When a driven.VectorIndex is configured it is used instead, so an
// approximate index can be substituted transparently.
type Retriever struct {
	active *ActiveIndex
	index  driven.VectorIndex // optional
}

// NewRetriever creates a Retriever over the active generation. index may be
// nil, in which case brute-force scanning is used.
func NewRetriever(active *ActiveIndex, index driven.VectorIndex) *Retriever {
	return &Retriever{active: active, index: index}
}

// Search returns the chunks most similar to the query vector, most relevant
// first. Equal scores are ordered by ascending chunk ID so results are
// deterministic across runs. An empty or missing generation yields an empty
// slice, not an error.
func (r *Retriever) Search(ctx context.Context, queryVector []float32, opts domain.SearchOptions) ([]domain.ScoredChunk, error) {
	gen := r.active.Generation()
	if gen.Empty() {
		return nil, nil
	}

	if opts.TopK < 1 {
		opts.TopK = DefaultTopK
	}

	// Scoring assumes stored vectors are unit length; normalize a copy of
	// the query so cosine similarity reduces to a dot product.
	q := make([]float32, len(queryVector))
	copy(q, queryVector)
	q = domain.NormalizeVector(q)

	if r.index != nil && opts.Topic == "" {
		return r.searchIndex(ctx, gen, q, opts)
	}
	return r.scan(gen, q, opts), nil
}

// scan is the exact brute-force path over the active generation.
func (r *Retriever) scan(gen *domain.Generation, q []float32, opts domain.SearchOptions) []domain.ScoredChunk {
	scored := make([]domain.ScoredChunk, 0, len(gen.Chunks))
	for _, chunk := range gen.Chunks {
		if opts.Topic != "" && chunk.Topic != opts.Topic {
			continue
		}
		vec, ok := gen.Vector(chunk.ID)
		if !ok || len(vec) != len(q) {
			continue
		}

		var score float64
		if gen.Normalized {
			score = domain.Dot(q, vec)
		} else {
			score = domain.CosineSimilarity(q, vec)
		}
		if opts.MinScore > 0 && score < opts.MinScore {
			continue
		}
		scored = append(scored, domain.ScoredChunk{Chunk: chunk, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if len(scored) > opts.TopK {
		scored = scored[:opts.TopK]
	}
	return scored
}

// searchIndex delegates to the configured vector index and resolves hits
// back to chunks from the active generation. Hits are re-sorted with the
// same comparator as scan, so tie ordering does not depend on the index
// implementation.
func (r *Retriever) searchIndex(ctx context.Context, gen *domain.Generation, q []float32, opts domain.SearchOptions) ([]domain.ScoredChunk, error) {
	hits, err := r.index.Search(ctx, q, opts.TopK)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Chunk, len(gen.Chunks))
	for _, c := range gen.Chunks {
		byID[c.ID] = c
	}

	scored := make([]domain.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := byID[hit.ChunkID]
		if !ok {
			continue
		}
		if opts.MinScore > 0 && hit.Similarity < opts.MinScore {
			continue
		}
		scored = append(scored, domain.ScoredChunk{Chunk: chunk, Score: hit.Similarity})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})
	return scored, nil
}
