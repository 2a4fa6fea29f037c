// Package sqlite provides a SQLite-backed implementation of the
// ArticleStore driven port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. Articles and their
// embedding records live in two tables joined on article ID; vectors are
// stored as little-endian float32 blobs.
//
// SQLite has no native vector search, so RankBySimilarity always returns
// domain.ErrRankingUnsupported and search falls back to a client-side scan
// over ListEmbeddings.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.harvester/data/articles.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
