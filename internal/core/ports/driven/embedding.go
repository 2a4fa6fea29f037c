package driven

import "context"

// MaxEmbedChars is the character budget for embedding input. Adapters
// truncate deterministically (first N characters) before calling the
// model, which has a bounded context window.
const MaxEmbedChars = 8000

// EmbeddingService generates vector embeddings from text. Ingestion uses
// it on documents and the query service uses the same implementation on
// query text, so both sides land in the same vector space.
//
// Implementations must fail with an error wrapping domain.ErrEmbeddingFailed
// rather than returning an empty or zero vector: callers treat a failed
// embed as "skip this document" or "abort this query", never as a valid
// zero-similarity vector.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	// Constant for a given service; every stored vector shares it.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
