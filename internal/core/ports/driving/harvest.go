package driving

import (
	"context"

	"github.com/insight-labs/harvester/internal/core/domain"
)

// StageReport records the outcome of one harvest stage.
type StageReport struct {
	// Stage is the stage name ("crawl", "extract", "enrich", "write", "ingest").
	Stage string

	// Items is the number of articles the stage produced or touched.
	Items int

	// Errors counts per-item failures the stage tolerated.
	Errors int

	// Err is set when the stage failed outright, stopping downstream stages.
	Err error
}

// HarvestReport aggregates a full pipeline run.
type HarvestReport struct {
	// Stages holds per-stage outcomes in execution order.
	Stages []StageReport

	// Ingest carries the final ingestion summary when that stage ran.
	Ingest *domain.IngestSummary
}

// Failed reports whether any stage failed outright.
func (r *HarvestReport) Failed() bool {
	for _, s := range r.Stages {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Harvester runs the full pipeline: crawl, extract, enrich, write, ingest.
type Harvester interface {
	// Run executes the pipeline stages in order. A stage failure stops
	// downstream stages but still yields a report.
	Run(ctx context.Context) *HarvestReport
}
