package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/insight-labs/harvester/internal/adapters/driven/embedding/ollama"
	"github.com/insight-labs/harvester/internal/adapters/driven/embedding/openai"
	"github.com/insight-labs/harvester/internal/adapters/driven/extract/web"
	"github.com/insight-labs/harvester/internal/adapters/driven/feed/googlecse"
	llmanthropic "github.com/insight-labs/harvester/internal/adapters/driven/llm/anthropic"
	llmollama "github.com/insight-labs/harvester/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/insight-labs/harvester/internal/adapters/driven/llm/openai"
	"github.com/insight-labs/harvester/internal/adapters/driven/storage/memory"
	"github.com/insight-labs/harvester/internal/adapters/driven/storage/qdrant"
	"github.com/insight-labs/harvester/internal/adapters/driven/storage/sqlite"
	writermd "github.com/insight-labs/harvester/internal/adapters/driven/writer/markdown"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
	"github.com/insight-labs/harvester/internal/core/services"
	"github.com/insight-labs/harvester/internal/logger"
)

// defaultContentDir is where harvested pages land when unconfigured.
const defaultContentDir = "content/auto"

// buildArticleStore selects the article store backend from config.
// Backends: sqlite (default), qdrant, memory.
func buildArticleStore() (driven.ArticleStore, error) {
	backend := cfg.GetString("store.backend")
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "sqlite":
		return sqlite.NewStore(cfg.GetString("store.data_dir"))
	case "qdrant":
		return qdrant.NewStore(qdrant.Config{
			Endpoint:   cfg.GetString("qdrant.endpoint"),
			Collection: cfg.GetString("qdrant.collection"),
			Dimensions: cfg.GetInt("qdrant.dimensions"),
		})
	case "memory":
		return memory.NewArticleStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// buildEmbedder selects the embedding provider from config.
// Providers: openai (default), ollama.
func buildEmbedder() (driven.EmbeddingService, error) {
	provider := cfg.GetString("embedding.provider")
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.GetString("openai.api_key"),
			BaseURL:    cfg.GetString("openai.base_url"),
			Model:      cfg.GetString("openai.embedding_model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString("ollama.base_url"),
			Model:      cfg.GetString("ollama.embedding_model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// buildLLM selects the enrichment provider from config. Returns nil
// without error when enrichment is disabled; harvest then falls back to
// feed-supplied metadata.
func buildLLM() (driven.LLMService, error) {
	provider := cfg.GetString("llm.provider")
	if provider == "" || provider == "none" {
		return nil, nil
	}

	tags := cfg.GetStringSlice("llm.tags")
	fallback := cfg.GetString("llm.fallback_tag")

	switch provider {
	case "openai":
		return llmopenai.NewLLMService(llmopenai.LLMConfig{
			APIKey:      cfg.GetString("openai.api_key"),
			BaseURL:     cfg.GetString("openai.base_url"),
			Model:       cfg.GetString("openai.model"),
			Tags:        tags,
			FallbackTag: fallback,
		})
	case "ollama":
		return llmollama.NewLLMService(llmollama.LLMConfig{
			BaseURL:     cfg.GetString("ollama.base_url"),
			Model:       cfg.GetString("ollama.model"),
			Tags:        tags,
			FallbackTag: fallback,
		}), nil
	case "anthropic":
		return llmanthropic.NewLLMService(llmanthropic.LLMConfig{
			APIKey:      cfg.GetString("anthropic.api_key"),
			Model:       cfg.GetString("anthropic.model"),
			Tags:        tags,
			FallbackTag: fallback,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

// buildFeed creates the keyword search feed from config.
func buildFeed(ctx context.Context) (driven.SearchFeed, error) {
	return googlecse.NewFeed(ctx, googlecse.FeedConfig{
		APIKey:    cfg.GetString("google.api_key"),
		CXID:      cfg.GetString("google.cx_id"),
		DateRange: cfg.GetString("search.date_range"),
		Language:  cfg.GetString("search.language"),
	})
}

// contentDir resolves the harvested pages directory from config.
func contentDir() string {
	if dir := cfg.GetString("search.content_dir"); dir != "" {
		return dir
	}
	return defaultContentDir
}

// newQueryService wires the search service against the configured
// store and embedder.
func newQueryService() (*services.SearchService, error) {
	store, err := buildArticleStore()
	if err != nil {
		return nil, fmt.Errorf("build article store: %w", err)
	}
	embedder, err := buildEmbedder()
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}
	return services.NewSearchService(store, embedder), nil
}

// newIngestService wires the ingestion pipeline.
func newIngestService() (*services.IngestService, error) {
	store, err := buildArticleStore()
	if err != nil {
		return nil, fmt.Errorf("build article store: %w", err)
	}
	embedder, err := buildEmbedder()
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}
	return services.NewIngestService(store, embedder), nil
}

// newHarvestService wires the full harvest pipeline: feed, extractor,
// optional LLM, page writer and ingestor.
func newHarvestService(ctx context.Context, keywords []string, maxResults int) (*services.HarvestService, error) {
	feed, err := buildFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("build feed: %w", err)
	}

	llm, err := buildLLM()
	if err != nil {
		return nil, fmt.Errorf("build llm: %w", err)
	}
	if llm == nil {
		logger.Debug("no LLM provider configured, using fallback enrichment")
	}

	dir := contentDir()
	writer, err := writermd.NewWriter(writermd.WriterConfig{ContentDir: dir})
	if err != nil {
		return nil, fmt.Errorf("build writer: %w", err)
	}

	ingestor, err := newIngestService()
	if err != nil {
		return nil, err
	}

	if len(keywords) == 0 {
		keywords = cfg.GetStringSlice("search.keywords")
	}
	if maxResults == 0 {
		maxResults = cfg.GetInt("search.max_results")
	}

	extractor := web.NewExtractor(web.ExtractorConfig{
		Timeout: 30 * time.Second,
	})

	return services.NewHarvestService(
		feed,
		extractor,
		llm,
		writer,
		ingestor,
		services.HarvestConfig{
			Keywords:             keywords,
			MaxResultsPerKeyword: maxResults,
			ContentDir:           dir,
		},
	), nil
}
