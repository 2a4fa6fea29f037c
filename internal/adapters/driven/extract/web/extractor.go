// Package web provides an extractor that fetches article URLs over HTTP
// and reduces the page to readable text.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/insight-labs/harvester/internal/core/domain"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
	"github.com/insight-labs/harvester/internal/normalisers/html"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// maxBodyBytes caps the response body read per page.
	maxBodyBytes = 2 << 20

	// minRegionChars is the minimum text length for an article region to
	// be preferred over the full page.
	minRegionChars = 200

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Article regions tried in order before falling back to the whole page.
var regionRes = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<article[^>]*>.*</article>`),
	regexp.MustCompile(`(?is)<main[^>]*>.*</main>`),
}

// ExtractorConfig holds configuration for the web extractor.
type ExtractorConfig struct {
	// Timeout is the per-page fetch timeout (default: 30s).
	Timeout time.Duration
}

// Extractor fetches pages and extracts their readable text.
type Extractor struct {
	client *http.Client
}

// NewExtractor creates a new web extractor.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Extractor{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Extract fetches the URL and returns its readable text. The returned
// document's Path is the URL itself.
func (e *Extractor) Extract(ctx context.Context, url string) (*domain.SourceDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !isHTML(contentType) {
		return nil, fmt.Errorf("fetch %s: unsupported content type %q", url, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	page := string(body)
	doc := html.Normalise(page, url)

	// Prefer the article region when the page marks one up and it
	// carries enough text to stand alone.
	if region := articleRegion(page); region != "" {
		if text := html.Strip(region); len(text) >= minRegionChars {
			doc.Content = text
		}
	}

	if doc.Content == "" {
		return nil, fmt.Errorf("extract %s: no readable content", url)
	}
	return &doc, nil
}

// articleRegion returns the first matching article markup region, or "".
func articleRegion(page string) string {
	for _, re := range regionRes {
		if m := re.FindString(page); m != "" {
			return m
		}
	}
	return ""
}

// isHTML reports whether the content type is an HTML media type.
func isHTML(contentType string) bool {
	mediaType := contentType
	if idx := strings.Index(mediaType, ";"); idx != -1 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
