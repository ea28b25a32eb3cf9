package driven

import (
	"context"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

// RecordSource is the boundary to the external extraction service.
// It supplies the raw structured records one extraction run produced;
// how the PDFs were fetched and parsed is out of scope for the core.
type RecordSource interface {
	// Fetch returns all raw records of the current extraction drop,
	// in a stable order.
	Fetch(ctx context.Context) ([]domain.RawRecord, error)

	// Name identifies the source for logging.
	Name() string
}
