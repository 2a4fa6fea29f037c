// Package googlecse provides a search feed adapter backed by the Google
// Programmable Search (Custom Search) API.
package googlecse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/insight-labs/harvester/internal/core/domain"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
)

// Ensure Feed implements the interface.
var _ driven.SearchFeed = (*Feed)(nil)

// Default configuration values.
const (
	DefaultDateRange = "week"
	DefaultLanguage  = "en"

	// maxPerRequest is the Custom Search API's hard cap per call.
	maxPerRequest = 10

	// requestInterval spaces out API calls to stay under quota.
	requestInterval = 100 * time.Millisecond
)

// dateRestricts maps a human-readable range to the API's dateRestrict value.
var dateRestricts = map[string]string{
	"day":   "d1",
	"week":  "d7",
	"month": "m1",
	"year":  "y1",
}

// FeedConfig holds configuration for the Google Custom Search feed.
type FeedConfig struct {
	// APIKey is the Google API key (required).
	APIKey string

	// CXID is the Programmable Search Engine ID (required).
	CXID string

	// DateRange restricts results by age: day, week, month or year
	// (default: week).
	DateRange string

	// Language restricts results by language code (default: en).
	Language string

	// Endpoint overrides the API base URL. Used in tests.
	Endpoint string
}

// Feed discovers article URLs through Google Custom Search.
type Feed struct {
	svc          *customsearch.Service
	cxID         string
	dateRestrict string
	language     string
	limiter      *rate.Limiter
}

// NewFeed creates a new Google Custom Search feed.
func NewFeed(ctx context.Context, cfg FeedConfig) (*Feed, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: google API key is required", domain.ErrInvalidInput)
	}
	if cfg.CXID == "" {
		return nil, fmt.Errorf("%w: google search engine ID is required", domain.ErrInvalidInput)
	}
	if cfg.DateRange == "" {
		cfg.DateRange = DefaultDateRange
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}

	restrict, ok := dateRestricts[cfg.DateRange]
	if !ok {
		return nil, fmt.Errorf("%w: unknown date range %q", domain.ErrInvalidInput, cfg.DateRange)
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create search service: %w", err)
	}

	return &Feed{
		svc:          svc,
		cxID:         cfg.CXID,
		dateRestrict: restrict,
		language:     cfg.Language,
		limiter:      rate.NewLimiter(rate.Every(requestInterval), 1),
	}, nil
}

// Search returns feed items for the keyword, newest first.
func (f *Feed) Search(ctx context.Context, keyword string, maxResults int) ([]domain.FeedItem, error) {
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is empty", domain.ErrInvalidInput)
	}
	if maxResults <= 0 || maxResults > maxPerRequest {
		maxResults = maxPerRequest
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := f.svc.Cse.List().
		Q(keyword).
		Cx(f.cxID).
		Num(int64(maxResults)).
		Lr("lang_" + f.language).
		DateRestrict(f.dateRestrict).
		Sort("date").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}

	now := time.Now().UTC()
	items := make([]domain.FeedItem, 0, len(resp.Items))
	for _, hit := range resp.Items {
		if hit.Link == "" {
			continue
		}
		items = append(items, domain.FeedItem{
			Title:        hit.Title,
			URL:          hit.Link,
			Snippet:      hit.Snippet,
			Keyword:      keyword,
			SourceDomain: extractDomain(hit.Link),
			PublishedAt:  extractPublished(hit, now),
			CrawledAt:    now,
		})
	}
	return items, nil
}

// Name identifies the feed backend for logging.
func (f *Feed) Name() string {
	return "google-cse"
}

// extractPublished digs a publication timestamp out of the result's
// pagemap metadata, falling back to the crawl time.
func extractPublished(hit *customsearch.Result, fallback time.Time) time.Time {
	if len(hit.Pagemap) == 0 {
		return fallback
	}

	var pagemap map[string][]map[string]any
	if err := json.Unmarshal(hit.Pagemap, &pagemap); err != nil {
		return fallback
	}

	for _, section := range []string{"metatags", "article", "newsarticle"} {
		for _, meta := range pagemap[section] {
			for _, key := range []string{"article:published_time", "datepublished", "publishedtime"} {
				raw, ok := meta[key].(string)
				if !ok || raw == "" {
					continue
				}
				if ts, err := parseTimestamp(raw); err == nil {
					return ts
				}
			}
		}
	}
	return fallback
}

// parseTimestamp accepts the timestamp formats seen in pagemap metadata.
func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// extractDomain returns the host part of the URL without a www prefix.
func extractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
