// Package openai provides an LLM enrichment adapter using the OpenAI API.
package openai

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
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o"
	DefaultLLMTimeout = 120 * time.Second
	DefaultFallback   = "development"

	// maxContentChars leaves room for the prompt and response within the
	// model's context window.
	maxContentChars = 8000
)

// DefaultTags is the taxonomy articles are filed under when the caller
// provides none.
var DefaultTags = []string{
	"ai", "cloud", "security", "devops", "data", "web", "mobile", "development",
}

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Tags is the taxonomy the model picks from (default: DefaultTags).
	Tags []string

	// FallbackTag files articles whose returned tag is not in the
	// taxonomy (default: "development").
	FallbackTag string
}

// LLMService generates article metadata using the OpenAI API.
type LLMService struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	tags        []string
	fallbackTag string
}

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
}

// chatCompletionMsg is the OpenAI chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the OpenAI /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// enrichPayload is the JSON shape the model is asked to return.
type enrichPayload struct {
	SEOTitle string `json:"seo_title"`
	Summary  string `json:"summary"`
	Tag      string `json:"tag"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
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
// A returned tag outside the taxonomy is replaced with the fallback tag.
func (s *LLMService) Enrich(ctx context.Context, input driven.EnrichInput) (*domain.Enrichment, error) {
	content, err := s.chatCompletion(ctx, s.systemPrompt(), userPrompt(input))
	if err != nil {
		return nil, err
	}

	payload, err := parseEnrichResponse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
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

// systemPrompt builds the analyst instructions including the taxonomy.
func (s *LLMService) systemPrompt() string {
	return fmt.Sprintf(`You are an expert technical content analyst. Your task is to analyze technology articles and generate structured metadata.

Available tags (choose ONE that best fits):
%s

Tag selection rules:
- Choose exactly 1 tag
- Prefer specific tags over general categories when applicable
- If no tag fits well, use %q

You must respond with a valid JSON object containing:
1. "seo_title": An engaging, SEO-optimized title (50-60 characters)
2. "summary": A compelling 3-sentence summary highlighting key insights
3. "tag": Single most relevant tag from the provided taxonomy`,
		strings.Join(s.tags, ", "), s.fallbackTag)
}

// userPrompt assembles the article material, truncating the body to the
// model's context budget.
func userPrompt(input driven.EnrichInput) string {
	content := input.Content
	if len(content) > maxContentChars {
		content = content[:maxContentChars] + "..."
	}
	return fmt.Sprintf(`Analyze this technology article and generate the required metadata:

Title: %s

Snippet: %s

Content:
%s

Respond with valid JSON only.`, input.Title, input.Snippet, content)
}

// chatCompletion sends one system+user exchange and returns the reply text.
func (s *LLMService) chatCompletion(ctx context.Context, system, user string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: s.model,
		Messages: []chatCompletionMsg{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   1500,
		Temperature: 0.3,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: openai: %s", domain.ErrLLMUnavailable, chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: openai status %d: %s", domain.ErrLLMUnavailable, resp.StatusCode, string(body))
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", domain.ErrLLMUnavailable)
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// parseEnrichResponse extracts the JSON object from the reply, tolerating
// markdown fences around it.
func parseEnrichResponse(content string) (*enrichPayload, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var payload enrichPayload
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON in response: %w", err)
	}
	if payload.SEOTitle == "" || payload.Summary == "" || payload.Tag == "" {
		return nil, fmt.Errorf("response missing required fields")
	}
	return &payload, nil
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

// Ping validates the service is reachable by checking the /models endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
