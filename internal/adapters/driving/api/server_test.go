package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insight-labs/harvester/internal/core/domain"
)

// --- Mock query service ---

type mockQueryService struct {
	response  *domain.SearchResponse
	searchErr error
	statsErr  error

	gotQuery     string
	gotLimit     int
	gotThreshold float64
}

func (m *mockQueryService) Search(_ context.Context, query string, limit int, threshold float64) (*domain.SearchResponse, error) {
	m.gotQuery = query
	m.gotLimit = limit
	m.gotThreshold = threshold

	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.response != nil {
		return m.response, nil
	}
	return &domain.SearchResponse{Query: query, Results: []domain.SearchResult{}}, nil
}

func (m *mockQueryService) Health(_ context.Context) domain.HealthStatus {
	return domain.HealthStatus{
		Status:         "healthy",
		Timestamp:      time.Now().UTC(),
		DatabaseStatus: "healthy",
	}
}

func (m *mockQueryService) Stats(_ context.Context) (*domain.StoreStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return &domain.StoreStats{TotalArticles: 3, TotalEmbeddings: 3}, nil
}

func newTestServer(t *testing.T, query *mockQueryService) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(NewServer(query, ServerConfig{RateLimit: -1}).Handler())
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

// ==================== Search ====================

func TestSearch(t *testing.T) {
	query := &mockQueryService{
		response: &domain.SearchResponse{
			Query: "go generics",
			Results: []domain.SearchResult{
				{ID: "1", Title: "Go Generics", Path: "docs/go-generics.md", Similarity: 0.93},
			},
			TotalResults: 1,
		},
	}
	server := newTestServer(t, query)

	var got domain.SearchResponse
	status := getJSON(t, server.URL+"/search?q=go+generics&limit=5&threshold=0.5", &got)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "go generics", query.gotQuery)
	assert.Equal(t, 5, query.gotLimit)
	assert.Equal(t, 0.5, query.gotThreshold)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "Go Generics", got.Results[0].Title)
}

func TestSearch_DefaultsApplied(t *testing.T) {
	query := &mockQueryService{}
	server := newTestServer(t, query)

	var got domain.SearchResponse
	status := getJSON(t, server.URL+"/search?q=rust", &got)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.DefaultLimit, query.gotLimit)
	assert.Equal(t, domain.DefaultThreshold, query.gotThreshold)
}

func TestSearch_MalformedLimit(t *testing.T) {
	server := newTestServer(t, &mockQueryService{})

	var got errorResponse
	status := getJSON(t, server.URL+"/search?q=rust&limit=ten", &got)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, got.Error, "invalid limit")
}

func TestSearch_MalformedThreshold(t *testing.T) {
	server := newTestServer(t, &mockQueryService{})

	var got errorResponse
	status := getJSON(t, server.URL+"/search?q=rust&threshold=high", &got)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, got.Error, "invalid threshold")
}

func TestSearch_InvalidInputIsBadRequest(t *testing.T) {
	server := newTestServer(t, &mockQueryService{searchErr: domain.ErrInvalidInput})

	var got errorResponse
	status := getJSON(t, server.URL+"/search?q=", &got)

	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSearch_UpstreamFailureIsBadGateway(t *testing.T) {
	server := newTestServer(t, &mockQueryService{searchErr: domain.ErrEmbeddingFailed})

	var got errorResponse
	status := getJSON(t, server.URL+"/search?q=rust", &got)

	assert.Equal(t, http.StatusBadGateway, status)
}

func TestSearch_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t, &mockQueryService{})

	resp, err := http.Post(server.URL+"/search", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// ==================== Health and stats ====================

func TestHealth(t *testing.T) {
	server := newTestServer(t, &mockQueryService{})

	var got domain.HealthStatus
	status := getJSON(t, server.URL+"/health", &got)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", got.Status)
	assert.Equal(t, "healthy", got.DatabaseStatus)
}

func TestStats(t *testing.T) {
	server := newTestServer(t, &mockQueryService{})

	var got domain.StoreStats
	status := getJSON(t, server.URL+"/stats", &got)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, got.TotalArticles)
}

func TestStats_Error(t *testing.T) {
	server := newTestServer(t, &mockQueryService{statsErr: domain.ErrStoreUnavailable})

	var got errorResponse
	status := getJSON(t, server.URL+"/stats", &got)

	assert.Equal(t, http.StatusInternalServerError, status)
}

// ==================== Root and routing ====================

func TestRoot(t *testing.T) {
	server := newTestServer(t, &mockQueryService{})

	var got map[string]any
	status := getJSON(t, server.URL+"/", &got)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "tech-insight-harvester", got["service"])
}

func TestUnknownPath(t *testing.T) {
	server := newTestServer(t, &mockQueryService{})

	var got errorResponse
	status := getJSON(t, server.URL+"/nope", &got)

	assert.Equal(t, http.StatusNotFound, status)
}

// ==================== Rate limiting ====================

func TestRateLimit(t *testing.T) {
	handler := NewServer(&mockQueryService{}, ServerConfig{RateLimit: 2}).Handler()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := &http.Client{}
	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req, err := http.NewRequest(http.MethodGet, server.URL+"/health", nil)
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", "203.0.113.9")

		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, http.StatusOK, statuses[0])
	assert.Equal(t, http.StatusOK, statuses[1])
	assert.Equal(t, http.StatusTooManyRequests, statuses[2])
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.7:54321"
	assert.Equal(t, "192.0.2.7", clientKey(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientKey(req))
}
