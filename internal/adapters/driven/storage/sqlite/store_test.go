package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insight-labs/harvester/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

// saveTestArticle stores an article with an embedding and returns its ID.
func saveTestArticle(t *testing.T, store *Store, id, path string, vector []float32) string {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	articleID, err := store.UpsertArticle(ctx, &domain.Article{
		ID:          id,
		Path:        path,
		Title:       "Test Article " + id,
		Content:     "Body of " + id,
		Fingerprint: "fp-" + id,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	require.NoError(t, err)
	require.NoError(t, store.UpsertEmbedding(ctx, articleID, vector, "preview "+id))
	return articleID
}

// ==================== Store Creation Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	dbPath := filepath.Join(tempDir, "articles.db")
	assert.Equal(t, dbPath, store.Path())

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

// ==================== Article Tests ====================

func TestStore_UpsertAndGetByPath(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveTestArticle(t, store, "a1", "docs/a1.md", []float32{1, 0})

	article, err := store.GetByPath(ctx, "docs/a1.md")
	require.NoError(t, err)
	assert.Equal(t, "a1", article.ID)
	assert.Equal(t, "Test Article a1", article.Title)
	assert.Equal(t, "fp-a1", article.Fingerprint)
	assert.False(t, article.CreatedAt.IsZero())
}

func TestStore_GetByPath_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetByPath(context.Background(), "docs/missing.md")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_UpsertArticle_KeepsIDOnConflict(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveTestArticle(t, store, "a1", "docs/a1.md", []float32{1, 0})

	// Re-upsert the same path under a different candidate ID.
	id, err := store.UpsertArticle(ctx, &domain.Article{
		ID:          "a1-new",
		Path:        "docs/a1.md",
		Title:       "Updated Title",
		Fingerprint: "fp-a1-v2",
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", id, "path conflict keeps the original article ID")

	article, err := store.GetByPath(ctx, "docs/a1.md")
	require.NoError(t, err)
	assert.Equal(t, "Updated Title", article.Title)
	assert.Equal(t, "fp-a1-v2", article.Fingerprint)
}

// ==================== Embedding Tests ====================

func TestStore_HasEmbedding(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id := saveTestArticle(t, store, "a1", "docs/a1.md", []float32{1, 0})

	has, err := store.HasEmbedding(ctx, id)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = store.HasEmbedding(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStore_UpsertEmbedding_Replaces(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id := saveTestArticle(t, store, "a1", "docs/a1.md", []float32{1, 0})
	require.NoError(t, store.UpsertEmbedding(ctx, id, []float32{0.5, 0.5}, "new preview"))

	stored, err := store.ListEmbeddings(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, []float32{0.5, 0.5}, stored[0].Vector)
	assert.Equal(t, "new preview", stored[0].Preview)

	count, err := store.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_ListEmbeddings_RoundTripsVectors(t *testing.T) {
	store := setupTestStore(t)

	saveTestArticle(t, store, "a1", "docs/a1.md", []float32{1, 0, -0.25})
	saveTestArticle(t, store, "a2", "docs/a2.md", []float32{0.125, 0.5, 0.75})

	stored, err := store.ListEmbeddings(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)

	byID := map[string][]float32{}
	for _, rec := range stored {
		byID[rec.Article.ID] = rec.Vector
	}
	assert.Equal(t, []float32{1, 0, -0.25}, byID["a1"])
	assert.Equal(t, []float32{0.125, 0.5, 0.75}, byID["a2"])
}

func TestStore_RankBySimilarity_Unsupported(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.RankBySimilarity(context.Background(), []float32{1, 0}, 0.7, 10)

	assert.ErrorIs(t, err, domain.ErrRankingUnsupported)
}

// ==================== Stats Tests ====================

func TestStore_Counts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	articles, err := store.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, articles)

	saveTestArticle(t, store, "a1", "docs/a1.md", []float32{1, 0})
	saveTestArticle(t, store, "a2", "docs/a2.md", []float32{0, 1})

	articles, err = store.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, articles)

	embeddings, err := store.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, embeddings)
}

func TestStore_LastUpdated(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	updated, err := store.LastUpdated(ctx)
	require.NoError(t, err)
	assert.True(t, updated.IsZero())

	saveTestArticle(t, store, "a1", "docs/a1.md", []float32{1, 0})

	updated, err = store.LastUpdated(ctx)
	require.NoError(t, err)
	assert.False(t, updated.IsZero())
}

func TestStore_Ping(t *testing.T) {
	store := setupTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

// ==================== Encoding Tests ====================

func TestFloat32BlobRoundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 0.333, 1e-7}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	assert.Equal(t, in, out)

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
