package driven

import (
	"context"

	"github.com/insight-labs/harvester/internal/core/domain"
)

// EnrichInput is the article material handed to the LLM for enrichment.
type EnrichInput struct {
	// Title is the extracted article title.
	Title string

	// Snippet is the feed-supplied excerpt, possibly empty.
	Snippet string

	// Content is the cleaned body text. Adapters truncate it to the
	// model's context budget before prompting.
	Content string
}

// LLMService produces structured article metadata via a language model.
//
// This is an optional service - when nil, harvest runs fall back to the
// feed-supplied title and snippet.
type LLMService interface {
	// Enrich generates an SEO title, summary and taxonomy tag for the
	// article. Returned tags are validated against the configured
	// taxonomy by the adapter.
	Enrich(ctx context.Context, input EnrichInput) (*domain.Enrichment, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
