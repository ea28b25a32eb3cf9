package services

import (
	"sync"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

// ActiveIndex holds the pointer to the currently serving index generation.
// It is the single synchronization point between the rebuild path (one
// writer) and the query path (many readers): readers see either the old or
// the new generation in full, never a mix. The generation itself is
// immutable once swapped in.
type ActiveIndex struct {
	mu  sync.RWMutex
	gen *domain.Generation
}

// NewActiveIndex creates an ActiveIndex, optionally seeded with a previously
// persisted generation.
func NewActiveIndex(gen *domain.Generation) *ActiveIndex {
	return &ActiveIndex{gen: gen}
}

// Generation returns the currently active generation (may be nil when no
// pipeline run has completed yet).
func (a *ActiveIndex) Generation() *domain.Generation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.gen
}

// Swap atomically replaces the active generation and returns the previous
// one. Called only by the pipeline coordinator after the new generation has
// been fully persisted.
func (a *ActiveIndex) Swap(gen *domain.Generation) *domain.Generation {
	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.gen
	a.gen = gen
	return prev
}
