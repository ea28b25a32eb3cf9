package driven

import (
	"context"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

// GenerationStore persists index generations as a unit.
//
// Save must have atomic-replace semantics: a reader loading concurrently sees
// either the previously saved generation or the new one in full, never a mix.
// A failed Save leaves the previously saved generation untouched.
type GenerationStore interface {
	// Save persists the generation and makes it the one Load returns.
	Save(ctx context.Context, gen *domain.Generation) error

	// Load returns the most recently saved generation.
	// Returns domain.ErrNoGeneration when none exists yet.
	Load(ctx context.Context) (*domain.Generation, error)

	// Discard removes partially written artifacts of an unfinished
	// generation. Safe to call when nothing was written.
	Discard(ctx context.Context, generationID string) error

	// Close releases resources held by the store
	Close() error
}
