package driven

import (
	"context"
)

// GenerationService produces the final natural-language answer from a
// fully assembled grounded prompt.
type GenerationService interface {
	// Generate synthesizes an answer for the given prompt.
	// Transient failures are surfaced as-is; the caller owns retries.
	Generate(ctx context.Context, prompt string) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the generation service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the generation service
	Close() error
}
