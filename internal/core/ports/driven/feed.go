package driven

import (
	"context"

	"github.com/insight-labs/harvester/internal/core/domain"
)

// SearchFeed discovers article URLs for a keyword via an external search
// service. One call covers one keyword; callers iterate the configured
// keyword list and deduplicate across calls by URL.
type SearchFeed interface {
	// Search returns feed items for the keyword, newest first where the
	// backend supports it. May return fewer items than requested.
	Search(ctx context.Context, keyword string, maxResults int) ([]domain.FeedItem, error)

	// Name identifies the feed backend for logging.
	Name() string
}

// Extractor turns an article URL into extracted, cleaned content.
type Extractor interface {
	// Extract fetches the URL and returns its readable text. The returned
	// document's Path is the URL itself.
	Extract(ctx context.Context, url string) (*domain.SourceDocument, error)
}
