// Package qdrant provides a Qdrant-backed implementation of the
// ArticleStore driven port using Qdrant's REST API.
//
// Qdrant ranks vectors server-side, so RankBySimilarity is native and the
// client-side scan fallback is never taken. Articles live as points keyed
// by a deterministic hash of the article ID, with the article fields in
// the point payload.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/insight-labs/harvester/internal/core/domain"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ArticleStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultCollection = "articles"
	DefaultDimensions = 1536
	DefaultTimeout    = 30 * time.Second

	scrollPageSize = 256
)

// Config holds Qdrant connection settings.
type Config struct {
	// Endpoint is the Qdrant base URL, e.g. "http://localhost:6333".
	Endpoint string

	// Collection is the collection name. Defaults to DefaultCollection.
	Collection string

	// Dimensions is the vector size used when creating the collection.
	Dimensions int

	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// Store is a Qdrant-backed article store.
type Store struct {
	endpoint   string
	collection string
	dimensions int
	client     *http.Client

	ensureOnce sync.Once
	ensureErr  error
}

// NewStore creates a Qdrant article store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: qdrant endpoint is required", domain.ErrInvalidInput)
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		endpoint:   cfg.Endpoint,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// pointID produces a deterministic uint64 hash for use as a Qdrant point ID.
func pointID(id string) uint64 {
	var h uint64 = 14695981039346656037 // FNV-1a offset basis
	for i := 0; i < len(id); i++ {
		h ^= uint64(id[i])
		h *= 1099511628211 // FNV-1a prime
	}
	return h
}

// ensureCollection creates the collection if it doesn't exist.
func (s *Store) ensureCollection(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		url := fmt.Sprintf("%s/collections/%s", s.endpoint, s.collection)
		status, _, err := s.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			s.ensureErr = err
			return
		}
		if status == http.StatusOK {
			return
		}

		body := map[string]any{
			"vectors": map[string]any{
				"size":     s.dimensions,
				"distance": "Cosine",
			},
		}
		status, resp, err := s.do(ctx, http.MethodPut, url, body)
		if err != nil {
			s.ensureErr = err
			return
		}
		if status >= 300 {
			s.ensureErr = fmt.Errorf("creating collection: status %d: %s", status, resp)
		}
	})
	return s.ensureErr
}

// do sends one JSON request and returns status code and raw body.
func (s *Store) do(ctx context.Context, method, url string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshalling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// payload is the article record stored alongside each point.
type payload struct {
	ArticleID    string `json:"article_id"`
	Path         string `json:"path"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Fingerprint  string `json:"fingerprint"`
	Preview      string `json:"preview"`
	HasEmbedding bool   `json:"has_embedding"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func (p payload) article() domain.Article {
	created, _ := time.Parse(time.RFC3339Nano, p.CreatedAt)
	updated, _ := time.Parse(time.RFC3339Nano, p.UpdatedAt)
	return domain.Article{
		ID:          p.ArticleID,
		Path:        p.Path,
		Title:       p.Title,
		Content:     p.Content,
		Fingerprint: p.Fingerprint,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}
}

func articlePayload(article *domain.Article) payload {
	return payload{
		ArticleID:   article.ID,
		Path:        article.Path,
		Title:       article.Title,
		Content:     article.Content,
		Fingerprint: article.Fingerprint,
		CreatedAt:   article.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   article.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// pathFilter matches points whose payload path equals the given value.
func pathFilter(path string) map[string]any {
	return map[string]any{
		"must": []any{
			map[string]any{
				"key":   "path",
				"match": map[string]any{"value": path},
			},
		},
	}
}

// embeddedFilter matches points that carry a real vector.
func embeddedFilter() map[string]any {
	return map[string]any{
		"must": []any{
			map[string]any{
				"key":   "has_embedding",
				"match": map[string]any{"value": true},
			},
		},
	}
}

// GetByPath retrieves an article by its source path.
func (s *Store) GetByPath(ctx context.Context, path string) (*domain.Article, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	body := map[string]any{
		"filter":       pathFilter(path),
		"limit":        1,
		"with_payload": true,
	}
	url := fmt.Sprintf("%s/collections/%s/points/scroll", s.endpoint, s.collection)
	status, data, err := s.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("qdrant scroll failed: status %d: %s", status, data)
	}

	var result struct {
		Result struct {
			Points []struct {
				Payload payload `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding scroll response: %w", err)
	}
	if len(result.Result.Points) == 0 {
		return nil, domain.ErrNotFound
	}

	article := result.Result.Points[0].Payload.article()
	return &article, nil
}

// UpsertArticle inserts or replaces the article's point. A fresh article
// gets a zero placeholder vector; UpsertEmbedding replaces it.
func (s *Store) UpsertArticle(ctx context.Context, article *domain.Article) (string, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return "", fmt.Errorf("ensure collection: %w", err)
	}

	// A path conflict keeps the original article ID.
	existing, err := s.GetByPath(ctx, article.Path)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	id := article.ID
	if existing != nil {
		id = existing.ID
	}

	stored := *article
	stored.ID = id
	p := articlePayload(&stored)

	vector := make([]float32, s.dimensions)
	if existing != nil {
		if prev, vErr := s.getPoint(ctx, existing.ID); vErr == nil && prev != nil {
			vector = prev.vector
			p.Preview = prev.payload.Preview
			p.HasEmbedding = prev.payload.HasEmbedding
		}
	}

	if err := s.upsertPoint(ctx, id, vector, p); err != nil {
		return "", err
	}
	return id, nil
}

// UpsertEmbedding replaces the vector and preview for the article.
func (s *Store) UpsertEmbedding(ctx context.Context, articleID string, vector []float32, preview string) error {
	if err := s.ensureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	point, err := s.getPoint(ctx, articleID)
	if err != nil {
		return err
	}
	if point == nil {
		return fmt.Errorf("article %s: %w", articleID, domain.ErrNotFound)
	}

	p := point.payload
	p.Preview = preview
	p.HasEmbedding = true
	return s.upsertPoint(ctx, articleID, vector, p)
}

// HasEmbedding reports whether a real vector is stored for the article.
func (s *Store) HasEmbedding(ctx context.Context, articleID string) (bool, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return false, fmt.Errorf("ensure collection: %w", err)
	}

	point, err := s.getPoint(ctx, articleID)
	if err != nil {
		return false, err
	}
	return point != nil && point.payload.HasEmbedding, nil
}

// ListEmbeddings scrolls every embedded point, following pagination.
func (s *Store) ListEmbeddings(ctx context.Context) ([]driven.StoredEmbedding, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/scroll", s.endpoint, s.collection)
	var stored []driven.StoredEmbedding
	var offset any

	for {
		body := map[string]any{
			"filter":       embeddedFilter(),
			"limit":        scrollPageSize,
			"with_payload": true,
			"with_vector":  true,
		}
		if offset != nil {
			body["offset"] = offset
		}

		status, data, err := s.do(ctx, http.MethodPost, url, body)
		if err != nil {
			return nil, err
		}
		if status >= 300 {
			return nil, fmt.Errorf("qdrant scroll failed: status %d: %s", status, data)
		}

		var result struct {
			Result struct {
				Points []struct {
					Payload payload   `json:"payload"`
					Vector  []float32 `json:"vector"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("decoding scroll response: %w", err)
		}

		for _, pt := range result.Result.Points {
			stored = append(stored, driven.StoredEmbedding{
				Article: pt.Payload.article(),
				Vector:  pt.Vector,
				Preview: pt.Payload.Preview,
			})
		}

		if result.Result.NextPageOffset == nil {
			return stored, nil
		}
		offset = result.Result.NextPageOffset
	}
}

// RankBySimilarity runs a native vector search with a score threshold.
func (s *Store) RankBySimilarity(ctx context.Context, vector []float32, threshold float64, limit int) ([]driven.RankedArticle, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	body := map[string]any{
		"vector":          vector,
		"limit":           limit,
		"score_threshold": threshold,
		"with_payload":    true,
		"filter":          embeddedFilter(),
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.endpoint, s.collection)
	status, data, err := s.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("qdrant search failed: status %d: %s", status, data)
	}

	var result struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload payload `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	ranked := make([]driven.RankedArticle, 0, len(result.Result))
	for _, hit := range result.Result {
		ranked = append(ranked, driven.RankedArticle{
			Article:    hit.Payload.article(),
			Similarity: hit.Score,
			Preview:    hit.Payload.Preview,
		})
	}
	return ranked, nil
}

// CountArticles returns the number of stored articles.
func (s *Store) CountArticles(ctx context.Context) (int, error) {
	return s.count(ctx, nil)
}

// CountEmbeddings returns the number of points carrying a real vector.
func (s *Store) CountEmbeddings(ctx context.Context) (int, error) {
	return s.count(ctx, embeddedFilter())
}

func (s *Store) count(ctx context.Context, filter map[string]any) (int, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return 0, fmt.Errorf("ensure collection: %w", err)
	}

	body := map[string]any{"exact": true}
	if filter != nil {
		body["filter"] = filter
	}
	url := fmt.Sprintf("%s/collections/%s/points/count", s.endpoint, s.collection)
	status, data, err := s.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return 0, err
	}
	if status >= 300 {
		return 0, fmt.Errorf("qdrant count failed: status %d: %s", status, data)
	}

	var result struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return 0, fmt.Errorf("decoding count response: %w", err)
	}
	return result.Result.Count, nil
}

// LastUpdated scans payloads for the most recent update time.
func (s *Store) LastUpdated(ctx context.Context) (time.Time, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return time.Time{}, fmt.Errorf("ensure collection: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/scroll", s.endpoint, s.collection)
	var latest time.Time
	var offset any

	for {
		body := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": true,
		}
		if offset != nil {
			body["offset"] = offset
		}

		status, data, err := s.do(ctx, http.MethodPost, url, body)
		if err != nil {
			return time.Time{}, err
		}
		if status >= 300 {
			return time.Time{}, fmt.Errorf("qdrant scroll failed: status %d: %s", status, data)
		}

		var result struct {
			Result struct {
				Points []struct {
					Payload payload `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return time.Time{}, fmt.Errorf("decoding scroll response: %w", err)
		}

		for _, pt := range result.Result.Points {
			if updated, err := time.Parse(time.RFC3339Nano, pt.Payload.UpdatedAt); err == nil && updated.After(latest) {
				latest = updated
			}
		}

		if result.Result.NextPageOffset == nil {
			return latest, nil
		}
		offset = result.Result.NextPageOffset
	}
}

// Ping checks the Qdrant instance is reachable.
func (s *Store) Ping(ctx context.Context) error {
	status, _, err := s.do(ctx, http.MethodGet, s.endpoint+"/healthz", nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("%w: qdrant status %d", domain.ErrStoreUnavailable, status)
	}
	return nil
}

// Close releases nothing; connections are pooled by the HTTP client.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// storedPoint is one retrieved point with its vector.
type storedPoint struct {
	payload payload
	vector  []float32
}

// getPoint retrieves one point by article ID, nil when absent.
func (s *Store) getPoint(ctx context.Context, articleID string) (*storedPoint, error) {
	body := map[string]any{
		"ids":          []uint64{pointID(articleID)},
		"with_payload": true,
		"with_vector":  true,
	}
	url := fmt.Sprintf("%s/collections/%s/points", s.endpoint, s.collection)
	status, data, err := s.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("qdrant retrieve failed: status %d: %s", status, data)
	}

	var result struct {
		Result []struct {
			Payload payload   `json:"payload"`
			Vector  []float32 `json:"vector"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding retrieve response: %w", err)
	}
	if len(result.Result) == 0 {
		return nil, nil
	}
	return &storedPoint{
		payload: result.Result[0].Payload,
		vector:  result.Result[0].Vector,
	}, nil
}

// upsertPoint writes one point.
func (s *Store) upsertPoint(ctx context.Context, articleID string, vector []float32, p payload) error {
	body := map[string]any{
		"points": []any{
			map[string]any{
				"id":      pointID(articleID),
				"vector":  vector,
				"payload": p,
			},
		},
	}
	url := fmt.Sprintf("%s/collections/%s/points", s.endpoint, s.collection)
	status, data, err := s.do(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("qdrant upsert failed: status %d: %s", status, data)
	}
	return nil
}
