package domain

import "time"

// Generation is an immutable, versioned snapshot of all chunks and their
// embeddings produced by one pipeline run. Once activated it is never edited
// in place; a rebuild produces a new Generation and swaps the active pointer.
type Generation struct {
	ID             string               `json:"id"`
	CreatedAt      time.Time            `json:"created_at"`
	EmbeddingModel string               `json:"embedding_model"`
	Dimensions     int                  `json:"dimensions"`
	Normalized     bool                 `json:"normalized"` // vectors L2-normalized at build time
	Chunks         []Chunk              `json:"chunks"`     // insertion order preserved
	Vectors        map[string][]float32 `json:"vectors"`    // chunk ID -> embedding
	Degraded       []string             `json:"degraded,omitempty"` // chunk IDs excluded after exhausted retries
	Topics         map[string][]float32 `json:"topics,omitempty"`   // topic name -> profile embedding
}

// Vector returns the embedding for a chunk ID, if fully written.
func (g *Generation) Vector(chunkID string) ([]float32, bool) {
	v, ok := g.Vectors[chunkID]
	return v, ok
}

// Len returns the number of queryable chunks: those with both text and a
// fully computed vector.
func (g *Generation) Len() int {
	n := 0
	for _, c := range g.Chunks {
		if _, ok := g.Vectors[c.ID]; ok {
			n++
		}
	}
	return n
}

// Empty reports whether the generation has no queryable chunks.
func (g *Generation) Empty() bool {
	return g == nil || g.Len() == 0
}
