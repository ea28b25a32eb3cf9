package driven

import (
	"context"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

// RebuildStateStore persists the rebuild state so that status survives
// restarts and is visible to every instance serving the status endpoint.
type RebuildStateStore interface {
	// Save stores the current rebuild state.
	Save(ctx context.Context, state *domain.RebuildState) error

	// Get returns the stored rebuild state.
	// Returns domain.ErrNotFound when none has been saved.
	Get(ctx context.Context) (*domain.RebuildState, error)
}
