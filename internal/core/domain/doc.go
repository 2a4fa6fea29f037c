// Package domain defines the core business entities for the harvester.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Article: An ingested article with metadata
//   - SourceDocument: A unit of content handed to ingestion
//   - SearchResult / SearchResponse: Ranked query output
//   - IngestSummary: Batch ingestion accounting
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
