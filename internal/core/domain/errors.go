package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// For ingestion's "is this new" check it is a normal outcome, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or out-of-range input.
	// Query validation rejects with this before any outbound call is made.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingFailed indicates the embedding service call failed or
	// returned unusable output. Callers must treat this as "skip this
	// document" or "abort this query", never as a valid zero vector.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrRankingUnsupported indicates the article store cannot rank by
	// similarity natively. The search engine recovers from this locally by
	// scanning embeddings and computing cosine similarity itself; it is
	// never surfaced to callers. Stores must return it only for the missing
	// capability, so genuine store errors are never misread as unsupported.
	ErrRankingUnsupported = errors.New("similarity ranking not supported")

	// ErrStoreUnavailable indicates the article store is unreachable.
	// The health endpoint reports degraded rather than failing on this.
	ErrStoreUnavailable = errors.New("article store unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Enrichment falls back to feed-supplied metadata without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
