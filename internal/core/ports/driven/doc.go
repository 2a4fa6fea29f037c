// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ArticleStore: Article and embedding persistence (SQLite, Qdrant, memory)
//   - EmbeddingService: Generates vector embeddings for documents and queries
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Title/summary/tag enrichment. Without it, harvest falls back
//     to feed-supplied metadata.
//   - SearchFeed: Keyword discovery. Without it, only local ingestion works.
//   - Extractor: URL content extraction. Only needed by harvest runs.
//   - PageWriter: Markdown page output. Only needed by harvest runs.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
