package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/insight-labs/harvester/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/insight-labs/harvester/internal/core/domain"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
)

var _ driven.ArticleStore = (*Store)(nil)

// Store is a SQLite-backed article store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.harvester/data/articles.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".harvester", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "articles.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// GetByPath retrieves an article by its source path.
func (s *Store) GetByPath(ctx context.Context, path string) (*domain.Article, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, title, content, fingerprint, created_at, updated_at
		FROM articles WHERE path = ?
	`, path)

	return scanArticleRow(row)
}

// UpsertArticle inserts or replaces an article keyed on its path.
func (s *Store) UpsertArticle(ctx context.Context, article *domain.Article) (string, error) {
	now := time.Now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	if article.UpdatedAt.IsZero() {
		article.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (id, path, title, content, fingerprint, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			fingerprint = excluded.fingerprint,
			updated_at = excluded.updated_at
	`, article.ID, article.Path, article.Title, article.Content,
		article.Fingerprint, article.CreatedAt, article.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("saving article: %w", err)
	}

	// The conflict path keeps the original row's ID.
	var id string
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM articles WHERE path = ?", article.Path).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("reading article id: %w", err)
	}
	return id, nil
}

// UpsertEmbedding replaces the embedding record owned by articleID.
func (s *Store) UpsertEmbedding(ctx context.Context, articleID string, vector []float32, preview string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (article_id, vector, preview, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(article_id) DO UPDATE SET
			vector = excluded.vector,
			preview = excluded.preview,
			updated_at = excluded.updated_at
	`, articleID, float32SliceToBytes(vector), preview, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// HasEmbedding reports whether an embedding record exists for the article.
func (s *Store) HasEmbedding(ctx context.Context, articleID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM embeddings WHERE article_id = ?", articleID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking embedding: %w", err)
	}
	return count > 0, nil
}

// ListEmbeddings returns every stored (article, vector) pair.
func (s *Store) ListEmbeddings(ctx context.Context) ([]driven.StoredEmbedding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.path, a.title, a.content, a.fingerprint, a.created_at, a.updated_at,
		       e.vector, e.preview
		FROM articles a
		JOIN embeddings e ON e.article_id = a.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var stored []driven.StoredEmbedding //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec driven.StoredEmbedding
		var blob []byte
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&rec.Article.ID, &rec.Article.Path, &rec.Article.Title,
			&rec.Article.Content, &rec.Article.Fingerprint, &createdAt, &updatedAt,
			&blob, &rec.Preview); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		if createdAt.Valid {
			rec.Article.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			rec.Article.UpdatedAt = updatedAt.Time
		}
		rec.Vector = bytesToFloat32Slice(blob)
		stored = append(stored, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	return stored, nil
}

// RankBySimilarity is not supported by SQLite; callers fall back to a
// client-side scan over ListEmbeddings.
func (s *Store) RankBySimilarity(_ context.Context, _ []float32, _ float64, _ int) ([]driven.RankedArticle, error) {
	return nil, domain.ErrRankingUnsupported
}

// CountArticles returns the number of stored articles.
func (s *Store) CountArticles(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return count, nil
}

// CountEmbeddings returns the number of stored embedding records.
func (s *Store) CountEmbeddings(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return count, nil
}

// LastUpdated returns the most recent article update time, zero when the
// store is empty.
func (s *Store) LastUpdated(ctx context.Context) (time.Time, error) {
	var updated sql.NullTime
	err := s.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM articles").Scan(&updated)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading last update: %w", err)
	}
	if !updated.Valid {
		return time.Time{}, nil
	}
	return updated.Time, nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// scanArticleRow scans a single article row.
func scanArticleRow(row *sql.Row) (*domain.Article, error) {
	var article domain.Article
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&article.ID, &article.Path, &article.Title, &article.Content,
		&article.Fingerprint, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning article: %w", err)
	}

	if createdAt.Valid {
		article.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		article.UpdatedAt = updatedAt.Time
	}

	return &article, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
