package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/insight-labs/harvester/internal/core/domain"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
	"github.com/insight-labs/harvester/internal/core/ports/driving"
	"github.com/insight-labs/harvester/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.QueryService = (*SearchService)(nil)

// SearchService answers text queries by embedding them and ranking stored
// articles by cosine similarity. The store's native ranking is preferred;
// when the backend lacks it, the service scans every stored embedding and
// computes the similarity itself.
type SearchService struct {
	store    driven.ArticleStore
	embedder driven.EmbeddingService
}

// NewSearchService creates a new search service.
func NewSearchService(store driven.ArticleStore, embedder driven.EmbeddingService) *SearchService {
	return &SearchService{
		store:    store,
		embedder: embedder,
	}
}

// Search embeds the query and returns ranked results.
func (s *SearchService) Search(
	ctx context.Context, query string, limit int, threshold float64,
) (*domain.SearchResponse, error) {
	start := time.Now()

	logger.Section("Search Execution")
	logger.Debug("Query: %q, limit=%d, threshold=%.2f", query, limit, threshold)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}
	if limit < domain.MinLimit || limit > domain.MaxLimit {
		return nil, fmt.Errorf("%w: limit must be between %d and %d",
			domain.ErrInvalidInput, domain.MinLimit, domain.MaxLimit)
	}
	if threshold < domain.MinThreshold || threshold > domain.MaxThreshold {
		return nil, fmt.Errorf("%w: threshold must be between %.1f and %.1f",
			domain.ErrInvalidInput, domain.MinThreshold, domain.MaxThreshold)
	}

	if s.embedder == nil {
		return nil, errors.New("embedding service unavailable")
	}

	logger.Debug("Generating query embedding...")
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	ranked, err := s.rank(ctx, vector, limit, threshold)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := formatResults(ranked)
	logger.Info("Final results: %d", len(results))

	return &domain.SearchResponse{
		Query:        query,
		Results:      results,
		TotalResults: len(results),
		SearchTimeMS: float64(time.Since(start).Microseconds()) / 1000.0,
	}, nil
}

// rank runs the similarity search over the store, preferring the native
// ranking path and falling back to a client-side scan when the store
// reports the capability as unsupported. Any other store failure aborts
// the search; no partial results are returned.
func (s *SearchService) rank(
	ctx context.Context, vector []float32, limit int, threshold float64,
) ([]driven.RankedArticle, error) {
	if limit <= 0 {
		return nil, nil
	}
	// No vector can score outside [-1, 1]; an unsatisfiable threshold is
	// an empty result, not an error.
	if threshold > 1.0 || threshold < -1.0 {
		return nil, nil
	}

	ranked, err := s.store.RankBySimilarity(ctx, vector, threshold, limit)
	if err == nil {
		logger.Debug("Native ranking: %d hits", len(ranked))
		return ranked, nil
	}
	if !errors.Is(err, domain.ErrRankingUnsupported) {
		return nil, fmt.Errorf("rank by similarity: %w", err)
	}

	logger.Debug("Native ranking unsupported, scanning embeddings")
	return s.scanRank(ctx, vector, limit, threshold)
}

// scanRank is the fallback path: load every stored embedding and compute
// cosine similarity locally.
func (s *SearchService) scanRank(
	ctx context.Context, vector []float32, limit int, threshold float64,
) ([]driven.RankedArticle, error) {
	stored, err := s.store.ListEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	logger.Debug("Scanning %d stored embeddings", len(stored))

	ranked := make([]driven.RankedArticle, 0, len(stored))
	for _, rec := range stored {
		sim, ok := cosineSimilarity(vector, rec.Vector)
		if !ok || sim < threshold {
			continue
		}
		ranked = append(ranked, driven.RankedArticle{
			Article:    rec.Article,
			Similarity: sim,
			Preview:    rec.Preview,
		})
	}

	// Similarity descending; ties broken by article ID so output is
	// deterministic.
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

// cosineSimilarity returns dot(a,b) / (|a| * |b|). The second return is
// false when either vector has zero norm, where similarity is undefined.
func cosineSimilarity(a, b []float32) (float64, bool) {
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

// formatResults projects ranked articles into the response shape.
func formatResults(ranked []driven.RankedArticle) []domain.SearchResult {
	results := make([]domain.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		title := r.Article.Title
		if title == "" {
			title = "Untitled"
		}
		results = append(results, domain.SearchResult{
			ID:          r.Article.ID,
			Title:       title,
			Path:        r.Article.Path,
			Similarity:  r.Similarity,
			TextPreview: previewText(r.Preview),
			URL:         displayURL(r.Article.Path),
		})
	}
	return results
}

// previewText cuts a preview to the budget and marks the cut.
func previewText(text string) string {
	if len(text) <= domain.PreviewLength {
		return text
	}
	return text[:domain.PreviewLength] + "..."
}

// displayURL derives a site URL from the article's source path by
// stripping its extension, e.g. "docs/auto/go-generics.md" -> "/docs/go-generics".
func displayURL(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return "/docs/" + base
}

// Health reports service and store status. The store being unreachable
// degrades the report instead of failing it.
func (s *SearchService) Health(ctx context.Context) domain.HealthStatus {
	status := domain.HealthStatus{
		Status:         "healthy",
		Timestamp:      time.Now().UTC(),
		DatabaseStatus: "healthy",
	}
	if s.store == nil {
		status.DatabaseStatus = "unhealthy"
		return status
	}
	if err := s.store.Ping(ctx); err != nil {
		logger.Warn("Store ping failed: %v", err)
		status.DatabaseStatus = "unhealthy"
	}
	return status
}

// Stats summarises the ingested corpus.
func (s *SearchService) Stats(ctx context.Context) (*domain.StoreStats, error) {
	articles, err := s.store.CountArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}
	embeddings, err := s.store.CountEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("count embeddings: %w", err)
	}
	updated, err := s.store.LastUpdated(ctx)
	if err != nil {
		return nil, fmt.Errorf("last updated: %w", err)
	}
	return &domain.StoreStats{
		TotalArticles:   articles,
		TotalEmbeddings: embeddings,
		LastUpdated:     updated,
	}, nil
}
