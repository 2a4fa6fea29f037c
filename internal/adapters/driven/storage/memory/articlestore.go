// Package memory provides in-memory implementations of driven ports for
// development and testing.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/insight-labs/harvester/internal/core/domain"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
)

// Ensure ArticleStore implements the interface.
var _ driven.ArticleStore = (*ArticleStore)(nil)

// ArticleStore is an in-memory implementation of driven.ArticleStore.
// Native ranking is off by default so the store behaves like SQLite;
// WithNativeRanking makes it behave like a vector database instead.
type ArticleStore struct {
	mu       sync.RWMutex
	byPath   map[string]domain.Article
	vectors  map[string][]float32 // keyed by article ID
	previews map[string]string

	nativeRanking bool
}

// NewArticleStore creates a new in-memory article store.
func NewArticleStore() *ArticleStore {
	return &ArticleStore{
		byPath:   make(map[string]domain.Article),
		vectors:  make(map[string][]float32),
		previews: make(map[string]string),
	}
}

// WithNativeRanking enables server-side similarity ranking.
func (s *ArticleStore) WithNativeRanking() *ArticleStore {
	s.nativeRanking = true
	return s
}

// GetByPath retrieves an article by its source path.
func (s *ArticleStore) GetByPath(_ context.Context, path string) (*domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	article, ok := s.byPath[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &article, nil
}

// UpsertArticle inserts or replaces an article keyed on its path.
func (s *ArticleStore) UpsertArticle(_ context.Context, article *domain.Article) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *article
	if existing, ok := s.byPath[article.Path]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	s.byPath[article.Path] = stored
	return stored.ID, nil
}

// UpsertEmbedding replaces the embedding record owned by articleID.
func (s *ArticleStore) UpsertEmbedding(_ context.Context, articleID string, vector []float32, preview string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[articleID] = append([]float32(nil), vector...)
	s.previews[articleID] = preview
	return nil
}

// HasEmbedding reports whether an embedding record exists for the article.
func (s *ArticleStore) HasEmbedding(_ context.Context, articleID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.vectors[articleID]
	return ok, nil
}

// ListEmbeddings returns every stored (article, vector) pair.
func (s *ArticleStore) ListEmbeddings(_ context.Context) ([]driven.StoredEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stored []driven.StoredEmbedding
	for _, article := range s.byPath {
		vector, ok := s.vectors[article.ID]
		if !ok {
			continue
		}
		stored = append(stored, driven.StoredEmbedding{
			Article: article,
			Vector:  append([]float32(nil), vector...),
			Preview: s.previews[article.ID],
		})
	}
	return stored, nil
}

// RankBySimilarity ranks stored articles by cosine similarity when native
// ranking is enabled, otherwise reports the capability as unsupported.
func (s *ArticleStore) RankBySimilarity(ctx context.Context, vector []float32, threshold float64, limit int) ([]driven.RankedArticle, error) {
	if !s.nativeRanking {
		return nil, domain.ErrRankingUnsupported
	}

	stored, err := s.ListEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	var ranked []driven.RankedArticle
	for _, rec := range stored {
		sim, ok := cosine(vector, rec.Vector)
		if !ok || sim < threshold {
			continue
		}
		ranked = append(ranked, driven.RankedArticle{
			Article:    rec.Article,
			Similarity: sim,
			Preview:    rec.Preview,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		return ranked[i].Article.ID < ranked[j].Article.ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// CountArticles returns the number of stored articles.
func (s *ArticleStore) CountArticles(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPath), nil
}

// CountEmbeddings returns the number of stored embedding records.
func (s *ArticleStore) CountEmbeddings(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

// LastUpdated returns the most recent article update time.
func (s *ArticleStore) LastUpdated(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest time.Time
	for _, article := range s.byPath {
		if article.UpdatedAt.After(latest) {
			latest = article.UpdatedAt
		}
	}
	return latest, nil
}

// Ping always succeeds for the in-memory store.
func (s *ArticleStore) Ping(_ context.Context) error {
	return nil
}

// Close releases nothing; it exists to satisfy the interface.
func (s *ArticleStore) Close() error {
	return nil
}

// cosine returns the cosine similarity, false when undefined.
func cosine(a, b []float32) (float64, bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
