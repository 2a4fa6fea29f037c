package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/insight-labs/harvester/internal/core/domain"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
	"github.com/insight-labs/harvester/internal/core/ports/driving"
	"github.com/insight-labs/harvester/internal/logger"
	"github.com/insight-labs/harvester/internal/normalisers/markdown"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// previewBudget caps the embed-text excerpt stored alongside the vector.
const previewBudget = 2000

// IngestService runs the ingestion pipeline: fingerprint, skip unchanged
// documents, embed and upsert the rest. It holds no state across calls;
// concurrent ingestion of different paths is safe, the caller serialises
// writes to the same path.
type IngestService struct {
	store    driven.ArticleStore
	embedder driven.EmbeddingService
}

// NewIngestService creates a new ingestion service.
func NewIngestService(store driven.ArticleStore, embedder driven.EmbeddingService) *IngestService {
	return &IngestService{
		store:    store,
		embedder: embedder,
	}
}

// Ingest processes a single document.
func (s *IngestService) Ingest(ctx context.Context, doc domain.SourceDocument) domain.IngestResult {
	result := domain.IngestResult{Path: doc.Path}

	raw := doc.Raw
	if raw == "" {
		raw = doc.Content
	}
	fingerprint := domain.Fingerprint(raw)

	existing, err := s.store.GetByPath(ctx, doc.Path)
	if err != nil && !isNotFound(err) {
		result.Outcome = domain.IngestFailed
		result.Err = fmt.Errorf("lookup article: %w", err)
		return result
	}

	if existing != nil && existing.Fingerprint == fingerprint {
		// Unchanged content still needs an embedding row: an earlier run
		// may have written the article and then failed the embedding
		// upsert. Skip only when the record is complete.
		hasEmbedding, err := s.store.HasEmbedding(ctx, existing.ID)
		if err != nil {
			result.Outcome = domain.IngestFailed
			result.Err = fmt.Errorf("check embedding: %w", err)
			return result
		}
		if hasEmbedding {
			logger.Debug("Skipping unchanged document: %s", doc.Path)
			result.Outcome = domain.IngestSkipped
			return result
		}
		logger.Debug("Re-embedding %s: article present but embedding missing", doc.Path)
	}

	embedText := truncate(doc.EmbedText(), driven.MaxEmbedChars)
	vector, err := s.embedder.Embed(ctx, embedText)
	if err != nil {
		result.Outcome = domain.IngestFailed
		result.Err = fmt.Errorf("embed document: %w", err)
		return result
	}

	now := time.Now().UTC()
	article := &domain.Article{
		Path:        doc.Path,
		Title:       doc.Title,
		Content:     doc.Content,
		Fingerprint: fingerprint,
		UpdatedAt:   now,
	}
	if existing != nil {
		article.ID = existing.ID
		article.CreatedAt = existing.CreatedAt
	} else {
		article.ID = uuid.New().String()
		article.CreatedAt = now
	}

	articleID, err := s.store.UpsertArticle(ctx, article)
	if err != nil {
		result.Outcome = domain.IngestFailed
		result.Err = fmt.Errorf("upsert article: %w", err)
		return result
	}

	if err := s.store.UpsertEmbedding(ctx, articleID, vector, truncate(embedText, previewBudget)); err != nil {
		// The article write stands; the missing embedding row makes the
		// next run re-embed this path.
		result.Outcome = domain.IngestFailed
		result.Err = fmt.Errorf("upsert embedding: %w", err)
		return result
	}

	logger.Debug("Ingested %s (article %s)", doc.Path, articleID)
	result.Outcome = domain.Ingested
	return result
}

// IngestBatch processes documents sequentially. One document's failure
// never aborts the remainder.
func (s *IngestService) IngestBatch(ctx context.Context, docs []domain.SourceDocument) *domain.IngestSummary {
	summary := &domain.IngestSummary{}

	logger.Section("Ingestion")
	logger.Info("Processing %d documents", len(docs))

	for i, doc := range docs {
		logger.Debug("[%d/%d] %s", i+1, len(docs), doc.Path)
		r := s.Ingest(ctx, doc)
		if r.Err != nil {
			logger.Warn("Ingest %s failed: %v", doc.Path, r.Err)
		}
		summary.Add(r)
	}

	logger.Info("Ingestion complete: %d ingested, %d skipped, %d failed",
		summary.Ingested, summary.Skipped, summary.Failed)
	return summary
}

// IngestDir walks dir for markdown files and ingests each one.
func (s *IngestService) IngestDir(ctx context.Context, dir string) (*domain.IngestSummary, error) {
	var docs []domain.SourceDocument

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".md") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		docs = append(docs, markdown.Normalise(string(raw), path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	return s.IngestBatch(ctx, docs), nil
}

// isNotFound reports whether err is the store's lookup miss.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// truncate deterministically cuts s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
