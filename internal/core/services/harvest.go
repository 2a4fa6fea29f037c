package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/insight-labs/harvester/internal/core/domain"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
	"github.com/insight-labs/harvester/internal/core/ports/driving"
	"github.com/insight-labs/harvester/internal/logger"
)

// Ensure HarvestService implements the interface.
var _ driving.Harvester = (*HarvestService)(nil)

// FallbackTag files articles the LLM could not classify.
const FallbackTag = "development"

// HarvestConfig controls a pipeline run.
type HarvestConfig struct {
	// Keywords to crawl. Each keyword is one feed query.
	Keywords []string

	// MaxResultsPerKeyword bounds each feed query.
	MaxResultsPerKeyword int

	// ContentDir is where pages land and where ingestion reads from.
	ContentDir string
}

// HarvestService runs the full pipeline: crawl, extract, enrich, write,
// ingest. The feed, extractor and writer are required; the LLM is
// optional and falls back to feed-supplied metadata when absent.
type HarvestService struct {
	feed      driven.SearchFeed
	extractor driven.Extractor
	llm       driven.LLMService
	writer    driven.PageWriter
	ingestor  driving.Ingestor
	cfg       HarvestConfig
}

// NewHarvestService creates a new harvest pipeline service.
func NewHarvestService(
	feed driven.SearchFeed,
	extractor driven.Extractor,
	llm driven.LLMService,
	writer driven.PageWriter,
	ingestor driving.Ingestor,
	cfg HarvestConfig,
) *HarvestService {
	return &HarvestService{
		feed:      feed,
		extractor: extractor,
		llm:       llm,
		writer:    writer,
		ingestor:  ingestor,
		cfg:       cfg,
	}
}

// harvested carries one article through the pipeline stages.
type harvested struct {
	item     domain.FeedItem
	doc      *domain.SourceDocument
	enriched domain.Enrichment
}

// Run executes the pipeline. A stage failure stops downstream stages;
// per-item failures within a stage are tolerated and counted.
func (s *HarvestService) Run(ctx context.Context) *driving.HarvestReport {
	report := &driving.HarvestReport{}

	items, crawl := s.crawl(ctx)
	report.Stages = append(report.Stages, crawl)
	if crawl.Err != nil {
		return report
	}

	articles, extract := s.extract(ctx, items)
	report.Stages = append(report.Stages, extract)
	if extract.Err != nil {
		return report
	}

	enrich := s.enrich(ctx, articles)
	report.Stages = append(report.Stages, enrich)

	_, write := s.write(articles)
	report.Stages = append(report.Stages, write)
	if write.Err != nil {
		return report
	}

	ingest := driving.StageReport{Stage: "ingest"}
	summary, err := s.ingestor.IngestDir(ctx, s.cfg.ContentDir)
	if err != nil {
		ingest.Err = fmt.Errorf("ingest content dir: %w", err)
	} else {
		ingest.Items = summary.Total
		ingest.Errors = summary.Failed
		report.Ingest = summary
	}
	report.Stages = append(report.Stages, ingest)

	return report
}

// crawl queries the feed for every keyword and deduplicates by URL.
func (s *HarvestService) crawl(ctx context.Context) ([]domain.FeedItem, driving.StageReport) {
	stage := driving.StageReport{Stage: "crawl"}

	if s.feed == nil {
		stage.Err = fmt.Errorf("no search feed configured: %w", domain.ErrInvalidInput)
		return nil, stage
	}
	if len(s.cfg.Keywords) == 0 {
		stage.Err = fmt.Errorf("no keywords configured: %w", domain.ErrInvalidInput)
		return nil, stage
	}

	logger.Section("Crawl")
	logger.Info("Querying %s for %d keywords", s.feed.Name(), len(s.cfg.Keywords))

	seen := make(map[string]bool)
	var items []domain.FeedItem

	for _, keyword := range s.cfg.Keywords {
		results, err := s.feed.Search(ctx, keyword, s.cfg.MaxResultsPerKeyword)
		if err != nil {
			logger.Warn("Feed query %q failed: %v", keyword, err)
			stage.Errors++
			continue
		}
		for _, item := range results {
			if item.URL == "" || seen[item.URL] {
				continue
			}
			seen[item.URL] = true
			items = append(items, item)
		}
	}

	stage.Items = len(items)
	logger.Info("Crawl found %d unique articles", len(items))

	// Every keyword failing means the feed itself is down.
	if len(items) == 0 && stage.Errors == len(s.cfg.Keywords) {
		stage.Err = fmt.Errorf("all feed queries failed: %w", domain.ErrStoreUnavailable)
	}
	return items, stage
}

// extract fetches each article's readable text.
func (s *HarvestService) extract(ctx context.Context, items []domain.FeedItem) ([]*harvested, driving.StageReport) {
	stage := driving.StageReport{Stage: "extract"}

	if s.extractor == nil {
		stage.Err = fmt.Errorf("no extractor configured: %w", domain.ErrInvalidInput)
		return nil, stage
	}

	logger.Section("Extract")

	var articles []*harvested
	for _, item := range items {
		doc, err := s.extractor.Extract(ctx, item.URL)
		if err != nil {
			logger.Warn("Extract %s failed: %v", item.URL, err)
			stage.Errors++
			continue
		}
		articles = append(articles, &harvested{item: item, doc: doc})
	}

	stage.Items = len(articles)
	logger.Info("Extracted %d of %d articles", len(articles), len(items))
	return articles, stage
}

// enrich asks the LLM for a title, summary and tag per article, falling
// back to feed metadata when the LLM is absent or a call fails.
func (s *HarvestService) enrich(ctx context.Context, articles []*harvested) driving.StageReport {
	stage := driving.StageReport{Stage: "enrich"}

	logger.Section("Enrich")
	if s.llm == nil {
		logger.Info("No LLM configured, using feed metadata")
	} else {
		logger.Info("Enriching %d articles with %s", len(articles), s.llm.ModelName())
	}

	for _, a := range articles {
		if s.llm != nil {
			enriched, err := s.llm.Enrich(ctx, driven.EnrichInput{
				Title:   a.doc.Title,
				Snippet: a.item.Snippet,
				Content: a.doc.Content,
			})
			if err == nil {
				a.enriched = *enriched
				stage.Items++
				continue
			}
			logger.Warn("Enrich %s failed: %v", a.item.URL, err)
			stage.Errors++
		}
		a.enriched = fallbackEnrichment(a)
	}
	return stage
}

// write renders each article as a markdown page, then the index.
func (s *HarvestService) write(articles []*harvested) ([]domain.Page, driving.StageReport) {
	stage := driving.StageReport{Stage: "write"}

	if s.writer == nil {
		stage.Err = fmt.Errorf("no page writer configured: %w", domain.ErrInvalidInput)
		return nil, stage
	}

	logger.Section("Write")

	var pages []domain.Page
	for _, a := range articles {
		page := buildPage(a)
		path, err := s.writer.WritePage(page)
		if err != nil {
			logger.Warn("Write %s failed: %v", page.Title, err)
			stage.Errors++
			continue
		}
		logger.Debug("Wrote %s", path)
		pages = append(pages, page)
	}
	stage.Items = len(pages)

	if err := s.writer.WriteIndex(pages); err != nil {
		stage.Err = fmt.Errorf("write index: %w", err)
		return pages, stage
	}

	logger.Info("Wrote %d pages", len(pages))
	return pages, stage
}

// buildPage assembles a content page from the pipeline artefacts.
func buildPage(a *harvested) domain.Page {
	body := a.doc.Content
	if len(body) > domain.MaxPageBodyChars {
		body = body[:domain.MaxPageBodyChars]
	}

	crawledAt := a.item.CrawledAt
	if crawledAt.IsZero() {
		crawledAt = time.Now().UTC()
	}

	return domain.Page{
		Title:        a.enriched.SEOTitle,
		Summary:      a.enriched.Summary,
		Tag:          a.enriched.Tag,
		URL:          a.item.URL,
		SourceDomain: sourceDomain(a.item),
		Keyword:      a.item.Keyword,
		PublishedAt:  a.item.PublishedAt,
		CrawledAt:    crawledAt,
		Body:         body,
	}
}

// fallbackEnrichment derives metadata from the feed item alone.
func fallbackEnrichment(a *harvested) domain.Enrichment {
	title := a.doc.Title
	if title == "" {
		title = a.item.Title
	}
	summary := a.item.Snippet
	if summary == "" && a.doc.Content != "" {
		summary = truncate(a.doc.Content, 200)
	}
	return domain.Enrichment{
		SEOTitle: title,
		Summary:  summary,
		Tag:      FallbackTag,
	}
}

// sourceDomain resolves the article's host, preferring the feed value.
func sourceDomain(item domain.FeedItem) string {
	if item.SourceDomain != "" {
		return item.SourceDomain
	}
	u, err := url.Parse(item.URL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
