// Package ollama provides an LLM enrichment adapter using a local Ollama
// instance. Useful for harvest runs without a cloud API key.
package ollama

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
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
	DefaultFallback   = "development"

	maxContentChars = 8000
)

// DefaultTags mirrors the OpenAI adapter's taxonomy.
var DefaultTags = []string{
	"ai", "cloud", "security", "devops", "data", "web", "mobile", "development",
}

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Tags is the taxonomy the model picks from (default: DefaultTags).
	Tags []string

	// FallbackTag files articles whose returned tag is not in the taxonomy.
	FallbackTag string
}

// LLMService generates article metadata using Ollama.
type LLMService struct {
	client      *http.Client
	baseURL     string
	model       string
	tags        []string
	fallbackTag string
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  *options      `json:"options,omitempty"`
}

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// options holds Ollama generation options.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// chatResponse is the Ollama /api/chat response format.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// enrichPayload is the JSON shape the model is asked to return.
type enrichPayload struct {
	SEOTitle string `json:"seo_title"`
	Summary  string `json:"summary"`
	Tag      string `json:"tag"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
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
		model:       cfg.Model,
		tags:        cfg.Tags,
		fallbackTag: cfg.FallbackTag,
	}
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
Respond with a JSON object with keys "seo_title", "summary" and "tag".`,
		strings.Join(s.tags, ", "), s.fallbackTag)

	user := fmt.Sprintf("Analyze this technology article and generate the required metadata:\n\nTitle: %s\n\nSnippet: %s\n\nContent:\n%s",
		input.Title, input.Snippet, content)

	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
		Format: "json",
		Options: &options{
			NumPredict:  1500,
			Temperature: 0.3,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/chat",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama status %d: %s", domain.ErrLLMUnavailable, resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var payload enrichPayload
	if err := json.Unmarshal([]byte(chatResp.Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON from model: %v", domain.ErrLLMUnavailable, err)
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

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
