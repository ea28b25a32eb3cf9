package chromem

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// Rebuild alternates between two collections: the new generation is staged
// into the inactive one and only swapped in once fully written.
const (
	primaryCollection   = "chunks-a"
	secondaryCollection = "chunks-b"
)

// Index implements driven.VectorIndex on chromem-go, an embedded vector
// database. Search queries by a precomputed embedding, so chromem's own
// embedding functions are never used.
type Index struct {
	mu         sync.RWMutex
	db         *chromemgo.DB
	collection *chromemgo.Collection
	name       string
}

// NewIndex creates an in-memory Index.
func NewIndex() (*Index, error) {
	return newIndex(chromemgo.NewDB())
}

// NewPersistentIndex creates an Index backed by a directory on disk.
func NewPersistentIndex(path string) (*Index, error) {
	db, err := chromemgo.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open persistent database: %w", err)
	}
	return newIndex(db)
}

func newIndex(db *chromemgo.DB) (*Index, error) {
	name := primaryCollection
	if pc := db.GetCollection(primaryCollection, nil); pc == nil || pc.Count() == 0 {
		if sc := db.GetCollection(secondaryCollection, nil); sc != nil && sc.Count() > 0 {
			name = secondaryCollection
		}
	}
	collection, err := db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{db: db, collection: collection, name: name}, nil
}

// Rebuild stages the generation's chunks into a fresh collection and serves
// from it only once fully written; a failed rebuild keeps serving the
// previous contents. Chunks without a vector (degraded) are skipped.
func (i *Index) Rebuild(ctx context.Context, gen *domain.Generation) error {
	docs := make([]chromemgo.Document, 0, len(gen.Chunks))
	for _, chunk := range gen.Chunks {
		vec, ok := gen.Vector(chunk.ID)
		if !ok {
			continue
		}
		docs = append(docs, chromemgo.Document{
			ID:        chunk.ID,
			Content:   chunk.Text,
			Metadata:  chunk.Metadata,
			Embedding: vec,
		})
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	next := primaryCollection
	if i.name == primaryCollection {
		next = secondaryCollection
	}
	if err := i.db.DeleteCollection(next); err != nil {
		return fmt.Errorf("reset staging collection: %w", err)
	}
	staged, err := i.db.GetOrCreateCollection(next, nil, nil)
	if err != nil {
		return fmt.Errorf("create staging collection: %w", err)
	}
	if len(docs) > 0 {
		if err := staged.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("add documents: %w", err)
		}
	}

	old := i.name
	i.collection = staged
	i.name = next
	// The old collection is no longer served; a leftover from a failed
	// delete is cleared when a later rebuild stages into its name.
	_ = i.db.DeleteCollection(old)
	return nil
}

// Search returns the k most similar chunk IDs to the query embedding,
// ordered by descending similarity with ties broken by ascending chunk ID.
// k is clamped to the collection size; an empty collection yields no hits.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	count := i.collection.Count()
	if count == 0 || k < 1 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := i.collection.QueryEmbedding(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	hits := make([]driven.VectorHit, len(results))
	for j, res := range results {
		hits[j] = driven.VectorHit{
			ChunkID:    res.ID,
			Similarity: float64(res.Similarity),
		}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Similarity != hits[b].Similarity {
			return hits[a].Similarity > hits[b].Similarity
		}
		return hits[a].ChunkID < hits[b].ChunkID
	})
	return hits, nil
}

// Size returns the number of indexed chunks.
func (i *Index) Size() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.collection.Count()
}

// Close releases resources held by the index
func (i *Index) Close() error {
	return nil
}
