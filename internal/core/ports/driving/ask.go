package driving

import (
	"context"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

// AskService answers a single natural-language question about the academic
// program, grounded in the active index generation.
type AskService interface {
	// Ask embeds the question, retrieves the most relevant chunks, and
	// synthesizes a grounded answer. When retrieval yields nothing relevant
	// it returns the fixed no-context answer without calling the generation
	// service.
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}
