package domain

import "time"

// Query parameter bounds. Requests outside these ranges are rejected with
// ErrInvalidInput before any embedding call is made.
const (
	// MinLimit is the smallest accepted result limit.
	MinLimit = 1

	// MaxLimit is the largest accepted result limit.
	MaxLimit = 50

	// DefaultLimit is used when the caller does not specify a limit.
	DefaultLimit = 10

	// MinThreshold is the smallest accepted similarity threshold.
	MinThreshold = 0.0

	// MaxThreshold is the largest accepted similarity threshold.
	MaxThreshold = 1.0

	// DefaultThreshold is used when the caller does not specify a threshold.
	DefaultThreshold = 0.7

	// PreviewLength is the character budget for result text previews.
	// Longer previews are cut and marked with an ellipsis.
	PreviewLength = 200
)

// SearchResult is a ranked projection of an article and its similarity
// to the query embedding.
type SearchResult struct {
	// ID is the matched article's identifier.
	ID string `json:"id"`

	// Title is the article title.
	Title string `json:"title"`

	// Path is the article's source locator.
	Path string `json:"filepath"`

	// Similarity is the cosine similarity to the query, in [-1, 1].
	Similarity float64 `json:"similarity"`

	// TextPreview is a truncated excerpt of the embedded text.
	TextPreview string `json:"text_preview"`

	// URL is the display URL derived from Path, empty when none applies.
	URL string `json:"url,omitempty"`
}

// SearchResponse is the complete answer to a search request.
type SearchResponse struct {
	// Query is the original query text.
	Query string `json:"query"`

	// Results is ordered by similarity, descending.
	Results []SearchResult `json:"results"`

	// TotalResults is len(Results).
	TotalResults int `json:"total_results"`

	// SearchTimeMS is elapsed wall-clock time in milliseconds.
	SearchTimeMS float64 `json:"search_time_ms"`
}

// HealthStatus reports service liveness and store reachability.
type HealthStatus struct {
	// Status is the overall service status, "healthy" even when the
	// store is down (the service degrades rather than failing hard).
	Status string `json:"status"`

	// Timestamp is when the check ran.
	Timestamp time.Time `json:"timestamp"`

	// DatabaseStatus is "healthy" or "unhealthy".
	DatabaseStatus string `json:"database_status"`
}

// StoreStats summarises the ingested corpus.
type StoreStats struct {
	// TotalArticles is the number of stored articles.
	TotalArticles int `json:"total_articles"`

	// TotalEmbeddings is the number of stored embedding records.
	TotalEmbeddings int `json:"total_embeddings"`

	// LastUpdated is the most recent article update time.
	LastUpdated time.Time `json:"last_updated"`
}
