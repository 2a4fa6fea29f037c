package services

import (
	"context"
	"sync"
	"time"

	"github.com/insight-labs/harvester/internal/core/domain"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
	"github.com/insight-labs/harvester/internal/core/ports/driving"
)

// --- Mock implementations ---

// mockArticleStore implements driven.ArticleStore for testing. It keeps
// articles in memory and can be configured to fail specific operations
// or to advertise native similarity ranking.
type mockArticleStore struct {
	mu sync.Mutex

	articles   map[string]*domain.Article // keyed by path
	embeddings map[string][]float32       // keyed by article ID
	previews   map[string]string

	supportsRanking bool
	nativeHits      []driven.RankedArticle

	getErr       error
	upsertErr    error
	embeddingErr error
	hasErr       error
	listErr      error
	rankErr      error
	pingErr      error

	embeddingWrites int
}

func newMockArticleStore() *mockArticleStore {
	return &mockArticleStore{
		articles:   make(map[string]*domain.Article),
		embeddings: make(map[string][]float32),
		previews:   make(map[string]string),
	}
}

func (m *mockArticleStore) GetByPath(_ context.Context, path string) (*domain.Article, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockArticleStore) UpsertArticle(_ context.Context, article *domain.Article) (string, error) {
	if m.upsertErr != nil {
		return "", m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *article
	m.articles[article.Path] = &cp
	return article.ID, nil
}

func (m *mockArticleStore) UpsertEmbedding(_ context.Context, articleID string, vector []float32, preview string) error {
	if m.embeddingErr != nil {
		return m.embeddingErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddings[articleID] = append([]float32(nil), vector...)
	m.previews[articleID] = preview
	m.embeddingWrites++
	return nil
}

func (m *mockArticleStore) HasEmbedding(_ context.Context, articleID string) (bool, error) {
	if m.hasErr != nil {
		return false, m.hasErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.embeddings[articleID]
	return ok, nil
}

func (m *mockArticleStore) ListEmbeddings(_ context.Context) ([]driven.StoredEmbedding, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []driven.StoredEmbedding
	for _, a := range m.articles {
		vec, ok := m.embeddings[a.ID]
		if !ok {
			continue
		}
		out = append(out, driven.StoredEmbedding{
			Article: *a,
			Vector:  vec,
			Preview: m.previews[a.ID],
		})
	}
	return out, nil
}

func (m *mockArticleStore) RankBySimilarity(_ context.Context, _ []float32, threshold float64, limit int) ([]driven.RankedArticle, error) {
	if m.rankErr != nil {
		return nil, m.rankErr
	}
	if !m.supportsRanking {
		return nil, domain.ErrRankingUnsupported
	}
	var out []driven.RankedArticle
	for _, h := range m.nativeHits {
		if h.Similarity < threshold {
			continue
		}
		out = append(out, h)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockArticleStore) CountArticles(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.articles), nil
}

func (m *mockArticleStore) CountEmbeddings(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.embeddings), nil
}

func (m *mockArticleStore) LastUpdated(_ context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest time.Time
	for _, a := range m.articles {
		if a.UpdatedAt.After(latest) {
			latest = a.UpdatedAt
		}
	}
	return latest, nil
}

func (m *mockArticleStore) Ping(_ context.Context) error {
	return m.pingErr
}

func (m *mockArticleStore) Close() error {
	return nil
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	vectors    map[string][]float32 // keyed by input text
	defaultVec []float32
	embedErr   error
	calls      int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	if m.defaultVec != nil {
		return m.defaultVec, nil
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return 3
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockFeed implements driven.SearchFeed for testing.
type mockFeed struct {
	items     map[string][]domain.FeedItem // keyed by keyword
	searchErr error
}

func (m *mockFeed) Search(_ context.Context, keyword string, _ int) ([]domain.FeedItem, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.items[keyword], nil
}

func (m *mockFeed) Name() string {
	return "mock-feed"
}

// mockExtractor implements driven.Extractor for testing.
type mockExtractor struct {
	docs       map[string]*domain.SourceDocument // keyed by URL
	extractErr error
}

func (m *mockExtractor) Extract(_ context.Context, url string) (*domain.SourceDocument, error) {
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	if doc, ok := m.docs[url]; ok {
		return doc, nil
	}
	return &domain.SourceDocument{Path: url, Title: "Extracted", Content: "extracted body"}, nil
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	enrichment *domain.Enrichment
	enrichErr  error
	calls      int
}

func (m *mockLLM) Enrich(_ context.Context, _ driven.EnrichInput) (*domain.Enrichment, error) {
	m.calls++
	if m.enrichErr != nil {
		return nil, m.enrichErr
	}
	if m.enrichment != nil {
		return m.enrichment, nil
	}
	return &domain.Enrichment{SEOTitle: "Enriched Title", Summary: "Enriched summary.", Tag: "ai"}, nil
}

func (m *mockLLM) ModelName() string {
	return "mock-llm"
}

func (m *mockLLM) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLM) Close() error {
	return nil
}

// mockWriter implements driven.PageWriter for testing.
type mockWriter struct {
	pages    []domain.Page
	index    []domain.Page
	writeErr error
	indexErr error
}

func (m *mockWriter) WritePage(page domain.Page) (string, error) {
	if m.writeErr != nil {
		return "", m.writeErr
	}
	m.pages = append(m.pages, page)
	return "content/" + page.Title + ".md", nil
}

func (m *mockWriter) WriteIndex(pages []domain.Page) error {
	if m.indexErr != nil {
		return m.indexErr
	}
	m.index = pages
	return nil
}

// mockIngestor implements driving.Ingestor for testing.
type mockIngestor struct {
	summary *domain.IngestSummary
	dirErr  error
	dirs    []string
}

func (m *mockIngestor) Ingest(_ context.Context, doc domain.SourceDocument) domain.IngestResult {
	return domain.IngestResult{Path: doc.Path, Outcome: domain.Ingested}
}

func (m *mockIngestor) IngestBatch(ctx context.Context, docs []domain.SourceDocument) *domain.IngestSummary {
	summary := &domain.IngestSummary{}
	for _, doc := range docs {
		summary.Add(m.Ingest(ctx, doc))
	}
	return summary
}

func (m *mockIngestor) IngestDir(_ context.Context, dir string) (*domain.IngestSummary, error) {
	m.dirs = append(m.dirs, dir)
	if m.dirErr != nil {
		return nil, m.dirErr
	}
	if m.summary != nil {
		return m.summary, nil
	}
	return &domain.IngestSummary{}, nil
}

var _ driving.Ingestor = (*mockIngestor)(nil)
