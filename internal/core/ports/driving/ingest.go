package driving

import (
	"context"

	"github.com/insight-labs/harvester/internal/core/domain"
)

// Ingestor drives the ingestion pipeline.
type Ingestor interface {
	// Ingest processes a single document: fingerprint, skip when
	// unchanged, otherwise embed and upsert.
	Ingest(ctx context.Context, doc domain.SourceDocument) domain.IngestResult

	// IngestBatch processes documents sequentially. Per-document failures
	// are isolated; the summary carries the counts.
	IngestBatch(ctx context.Context, docs []domain.SourceDocument) *domain.IngestSummary

	// IngestDir walks dir for markdown files and ingests each one.
	IngestDir(ctx context.Context, dir string) (*domain.IngestSummary, error)
}
