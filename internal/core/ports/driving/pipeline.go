package driving

import (
	"context"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

// PipelineService exposes rebuild control to the external trigger layer
// (HTTP admin endpoints, CLI).
type PipelineService interface {
	// StartRebuild begins an asynchronous index rebuild and returns the new
	// generation ID. Returns domain.ErrRebuildInProgress when a rebuild is
	// already running; the request is rejected, not queued.
	StartRebuild(ctx context.Context) (string, error)

	// Status returns the state of the most recent rebuild.
	Status(ctx context.Context) *domain.RebuildState

	// Stop cancels a running rebuild and waits for it to wind down.
	// The active generation is left untouched.
	Stop()
}
