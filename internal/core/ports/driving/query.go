package driving

import (
	"context"

	"github.com/insight-labs/harvester/internal/core/domain"
)

// QueryService is the synchronous search surface.
type QueryService interface {
	// Search embeds the query text and returns articles ranked by cosine
	// similarity. Rejects limit outside [domain.MinLimit, domain.MaxLimit]
	// and threshold outside [domain.MinThreshold, domain.MaxThreshold]
	// with domain.ErrInvalidInput before any external call.
	Search(ctx context.Context, query string, limit int, threshold float64) (*domain.SearchResponse, error)

	// Health reports service and store status. A down store degrades the
	// report rather than producing an error.
	Health(ctx context.Context) domain.HealthStatus

	// Stats summarises the ingested corpus.
	Stats(ctx context.Context) (*domain.StoreStats, error)
}
