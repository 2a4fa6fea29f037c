package domain

// IngestOutcome classifies what happened to a single document.
type IngestOutcome int

const (
	// IngestFailed means the document could not be ingested.
	IngestFailed IngestOutcome = iota

	// Ingested means the document was embedded and written.
	Ingested

	// IngestSkipped means the stored fingerprint matched and the existing
	// embedding was kept; no embedding call was made.
	IngestSkipped
)

// String returns a readable outcome name.
func (o IngestOutcome) String() string {
	switch o {
	case Ingested:
		return "ingested"
	case IngestSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// IngestResult is the per-document record of a batch run.
type IngestResult struct {
	// Path is the document's source locator.
	Path string

	// Outcome classifies the result.
	Outcome IngestOutcome

	// Err carries the cause for failed outcomes.
	Err error
}

// IngestSummary aggregates a batch ingestion run. One document's failure
// never aborts the rest of the batch; it is counted here instead.
type IngestSummary struct {
	// Total is the number of documents processed.
	Total int

	// Ingested counts documents embedded and written.
	Ingested int

	// Skipped counts unchanged documents.
	Skipped int

	// Failed counts documents that could not be ingested.
	Failed int

	// Results holds the per-document outcomes in processing order.
	Results []IngestResult
}

// Add records one result and updates the counters.
func (s *IngestSummary) Add(r IngestResult) {
	s.Total++
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case Ingested:
		s.Ingested++
	case IngestSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}
