package driven

import (
	"context"
	"time"

	"github.com/insight-labs/harvester/internal/core/domain"
)

// StoredEmbedding pairs an article with its persisted vector.
// Returned by the full-scan path only.
type StoredEmbedding struct {
	// Article is the owning article.
	Article domain.Article

	// Vector is the stored embedding.
	Vector []float32

	// Preview is the truncated embed text kept for result previews.
	Preview string
}

// RankedArticle is a native-ranking hit: an article with its similarity
// to the query vector, already filtered and ordered by the store.
type RankedArticle struct {
	// Article is the matched article.
	Article domain.Article

	// Similarity is the cosine similarity reported by the store.
	Similarity float64

	// Preview is the stored embed text excerpt.
	Preview string
}

// ArticleStore persists articles and their embedding records.
//
// Each article owns exactly one embedding record, replaced wholesale on
// re-ingestion. Implementations must be safe for concurrent reads and
// writes; callers serialise concurrent ingestion of the same path.
type ArticleStore interface {
	// GetByPath retrieves an article by its source locator.
	// Returns domain.ErrNotFound on a miss.
	GetByPath(ctx context.Context, path string) (*domain.Article, error)

	// UpsertArticle inserts or replaces an article keyed on its path and
	// returns the resulting article ID. Idempotent under identical input.
	UpsertArticle(ctx context.Context, article *domain.Article) (string, error)

	// UpsertEmbedding replaces the embedding record owned by articleID.
	UpsertEmbedding(ctx context.Context, articleID string, vector []float32, preview string) error

	// HasEmbedding reports whether an embedding record exists for the
	// article. Used to re-embed articles whose embedding write failed
	// after the article write succeeded.
	HasEmbedding(ctx context.Context, articleID string) (bool, error)

	// ListEmbeddings returns every (article, vector) pair. Used only by
	// the fallback search path; O(corpus size) and restartable.
	ListEmbeddings(ctx context.Context) ([]StoredEmbedding, error)

	// RankBySimilarity returns up to limit articles with similarity at or
	// above threshold, ordered by similarity descending. Stores without a
	// native ranking capability return domain.ErrRankingUnsupported and
	// nothing else for that condition, so genuine failures stay distinct.
	RankBySimilarity(ctx context.Context, vector []float32, threshold float64, limit int) ([]RankedArticle, error)

	// CountArticles returns the number of stored articles.
	CountArticles(ctx context.Context) (int, error)

	// CountEmbeddings returns the number of stored embedding records.
	CountEmbeddings(ctx context.Context) (int, error)

	// LastUpdated returns the most recent article update time, zero when
	// the store is empty.
	LastUpdated(ctx context.Context) (time.Time, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
