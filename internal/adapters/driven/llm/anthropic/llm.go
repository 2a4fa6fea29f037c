// Package anthropic provides an LLM enrichment adapter using the
// Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/insight-labs/harvester/internal/core/domain"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.anthropic.com/v1"
	DefaultLLMModel   = "claude-sonnet-4-20250514"
	DefaultLLMTimeout = 120 * time.Second
	DefaultFallback   = "development"

	apiVersion = "2023-06-01"

	maxContentChars = 8000
)

// DefaultTags mirrors the OpenAI adapter's taxonomy.
var DefaultTags = []string{
	"ai", "cloud", "security", "devops", "data", "web", "mobile", "development",
}

// LLMConfig holds configuration for the Anthropic LLM service.
type LLMConfig struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com/v1).
	BaseURL string

	// Model is the LLM model to use.
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Tags is the taxonomy the model picks from (default: DefaultTags).
	Tags []string

	// FallbackTag files articles whose returned tag is not in the taxonomy.
	FallbackTag string
}

// LLMService generates article metadata using the Anthropic API.
type LLMService struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	tags        []string
	fallbackTag string
}

// messagesRequest is the Anthropic /messages request format.
type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

// message is the Anthropic chat message format.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic /messages response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// enrichPayload is the JSON shape the model is asked to return.
type enrichPayload struct {
	SEOTitle string `json:"seo_title"`
	Summary  string `json:"summary"`
	Tag      string `json:"tag"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	if len(cfg.Tags) == 0 {
		cfg.Tags = DefaultTags
	}
	if cfg.FallbackTag == "" {
		cfg.FallbackTag = DefaultFallback
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		tags:        cfg.Tags,
		fallbackTag: cfg.FallbackTag,
	}, nil
}

// Enrich generates an SEO title, summary and taxonomy tag for the article.
func (s *LLMService) Enrich(ctx context.Context, input driven.EnrichInput) (*domain.Enrichment, error) {
	content := input.Content
	if len(content) > maxContentChars {
		content = content[:maxContentChars] + "..."
	}

	system := fmt.Sprintf(`You are an expert technical content analyst.
Available tags (choose ONE that best fits): %s
If no tag fits well, use %q.
You must respond with a valid JSON object containing "seo_title", "summary" and "tag".`,
		strings.Join(s.tags, ", "), s.fallbackTag)

	user := fmt.Sprintf("Analyze this technology article and generate the required metadata:\n\nTitle: %s\n\nSnippet: %s\n\nContent:\n%s\n\nRespond with valid JSON only.",
		input.Title, input.Snippet, content)

	reqBody := messagesRequest{
		Model:       s.model,
		MaxTokens:   1500,
		System:      system,
		Messages:    []message{{Role: "user", Content: user}},
		Temperature: 0.3,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if msgResp.Error != nil {
		return nil, fmt.Errorf("%w: anthropic: %s", domain.ErrLLMUnavailable, msgResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: anthropic status %d: %s", domain.ErrLLMUnavailable, resp.StatusCode, string(body))
	}

	var text string
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in response", domain.ErrLLMUnavailable)
	}

	var payload enrichPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON in response: %v", domain.ErrLLMUnavailable, err)
	}
	if payload.SEOTitle == "" || payload.Summary == "" || payload.Tag == "" {
		return nil, fmt.Errorf("%w: response missing required fields", domain.ErrLLMUnavailable)
	}

	tag := payload.Tag
	if !s.validTag(tag) {
		tag = s.fallbackTag
	}

	return &domain.Enrichment{
		SEOTitle: payload.SEOTitle,
		Summary:  payload.Summary,
		Tag:      tag,
	}, nil
}

// validTag reports whether the tag is in the configured taxonomy.
func (s *LLMService) validTag(tag string) bool {
	for _, t := range s.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key with a minimal request.
func (s *LLMService) Ping(ctx context.Context) error {
	reqBody := messagesRequest{
		Model:     s.model,
		MaxTokens: 1,
		Messages:  []message{{Role: "user", Content: "ping"}},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("anthropic: marshal ping request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("anthropic: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
