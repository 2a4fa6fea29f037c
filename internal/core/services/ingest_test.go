package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insight-labs/harvester/internal/core/domain"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
)

func testDoc() domain.SourceDocument {
	return domain.SourceDocument{
		Path:    "docs/go-generics.md",
		Title:   "Go Generics",
		Content: "Type parameters arrived in Go 1.18.",
		Raw:     "# Go Generics\n\nType parameters arrived in Go 1.18.",
	}
}

func TestIngestService_Ingest_NewDocument(t *testing.T) {
	store := newMockArticleStore()
	embedder := &mockEmbeddingService{}
	service := NewIngestService(store, embedder)
	ctx := context.Background()

	result := service.Ingest(ctx, testDoc())

	require.NoError(t, result.Err)
	assert.Equal(t, domain.Ingested, result.Outcome)
	assert.Equal(t, 1, embedder.calls)

	stored, err := store.GetByPath(ctx, "docs/go-generics.md")
	require.NoError(t, err)
	assert.Equal(t, "Go Generics", stored.Title)
	assert.NotEmpty(t, stored.ID)
	assert.NotEmpty(t, stored.Fingerprint)

	has, err := store.HasEmbedding(ctx, stored.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestIngestService_Ingest_UnchangedSkipped(t *testing.T) {
	store := newMockArticleStore()
	embedder := &mockEmbeddingService{}
	service := NewIngestService(store, embedder)
	ctx := context.Background()

	first := service.Ingest(ctx, testDoc())
	require.Equal(t, domain.Ingested, first.Outcome)

	second := service.Ingest(ctx, testDoc())

	assert.Equal(t, domain.IngestSkipped, second.Outcome)
	assert.NoError(t, second.Err)
	assert.Equal(t, 1, embedder.calls, "unchanged document must not be re-embedded")
}

func TestIngestService_Ingest_ChangedContentReingested(t *testing.T) {
	store := newMockArticleStore()
	embedder := &mockEmbeddingService{}
	service := NewIngestService(store, embedder)
	ctx := context.Background()

	first := service.Ingest(ctx, testDoc())
	require.Equal(t, domain.Ingested, first.Outcome)
	original, err := store.GetByPath(ctx, "docs/go-generics.md")
	require.NoError(t, err)

	changed := testDoc()
	changed.Content = "Type parameters arrived in Go 1.18, with a revised syntax."
	changed.Raw = "# Go Generics\n\n" + changed.Content

	second := service.Ingest(ctx, changed)

	assert.Equal(t, domain.Ingested, second.Outcome)
	assert.Equal(t, 2, embedder.calls)

	updated, err := store.GetByPath(ctx, "docs/go-generics.md")
	require.NoError(t, err)
	assert.Equal(t, original.ID, updated.ID, "re-ingestion keeps the article ID")
	assert.NotEqual(t, original.Fingerprint, updated.Fingerprint)
}

func TestIngestService_Ingest_EmbedFailureNoWrites(t *testing.T) {
	store := newMockArticleStore()
	embedder := &mockEmbeddingService{embedErr: domain.ErrEmbeddingFailed}
	service := NewIngestService(store, embedder)
	ctx := context.Background()

	result := service.Ingest(ctx, testDoc())

	assert.Equal(t, domain.IngestFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, domain.ErrEmbeddingFailed)

	_, err := store.GetByPath(ctx, "docs/go-generics.md")
	assert.ErrorIs(t, err, domain.ErrNotFound, "failed embed must not write the article")
}

func TestIngestService_Ingest_PartialWriteSelfHeals(t *testing.T) {
	store := newMockArticleStore()
	store.embeddingErr = errors.New("disk full")
	embedder := &mockEmbeddingService{}
	service := NewIngestService(store, embedder)
	ctx := context.Background()

	// Article write lands, embedding write fails.
	first := service.Ingest(ctx, testDoc())
	require.Equal(t, domain.IngestFailed, first.Outcome)
	_, err := store.GetByPath(ctx, "docs/go-generics.md")
	require.NoError(t, err, "article row survives the failed embedding write")

	// Next run sees an unchanged fingerprint but no embedding row, so it
	// re-embeds rather than skipping.
	store.embeddingErr = nil
	second := service.Ingest(ctx, testDoc())

	assert.Equal(t, domain.Ingested, second.Outcome)
	assert.Equal(t, 2, embedder.calls)
}

func TestIngestService_Ingest_EmbedTextTruncated(t *testing.T) {
	store := newMockArticleStore()
	embedder := &mockEmbeddingService{}
	service := NewIngestService(store, embedder)
	ctx := context.Background()

	doc := testDoc()
	body := make([]byte, driven.MaxEmbedChars*2)
	for i := range body {
		body[i] = 'x'
	}
	doc.Content = string(body)
	doc.Raw = doc.Content

	result := service.Ingest(ctx, doc)
	require.Equal(t, domain.Ingested, result.Outcome)
	assert.Greater(t, len(doc.EmbedText()), driven.MaxEmbedChars)

	stored, err := store.GetByPath(ctx, doc.Path)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(store.previews[stored.ID]), previewBudget)
}

func TestIngestService_IngestBatch(t *testing.T) {
	store := newMockArticleStore()
	embedder := &mockEmbeddingService{}
	service := NewIngestService(store, embedder)
	ctx := context.Background()

	docs := []domain.SourceDocument{
		{Path: "a.md", Title: "A", Content: "alpha", Raw: "alpha"},
		{Path: "b.md", Title: "B", Content: "beta", Raw: "beta"},
	}

	summary := service.IngestBatch(ctx, docs)
	require.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Ingested)

	// Second pass skips everything.
	summary = service.IngestBatch(ctx, docs)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 0, summary.Ingested)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
}

func TestIngestService_IngestBatch_FailureIsolated(t *testing.T) {
	store := newMockArticleStore()
	embedder := &mockEmbeddingService{
		vectors: map[string][]float32{},
	}
	service := NewIngestService(store, embedder)
	ctx := context.Background()

	// Fail only the first document by poisoning the store lookup once.
	store.getErr = errors.New("transient")
	summary := service.IngestBatch(ctx, []domain.SourceDocument{
		{Path: "a.md", Content: "alpha", Raw: "alpha"},
	})
	assert.Equal(t, 1, summary.Failed)

	store.getErr = nil
	summary = service.IngestBatch(ctx, []domain.SourceDocument{
		{Path: "a.md", Content: "alpha", Raw: "alpha"},
		{Path: "b.md", Content: "beta", Raw: "beta"},
	})
	assert.Equal(t, 2, summary.Ingested)
	assert.Equal(t, 0, summary.Failed)
}

func TestIngestService_IngestDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "post.md"),
		[]byte("---\ntitle: \"Harvested Post\"\n---\n\nBody text here."), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "notes.txt"),
		[]byte("not markdown"), 0o644))

	store := newMockArticleStore()
	service := NewIngestService(store, &mockEmbeddingService{})

	summary, err := service.IngestDir(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total, "only markdown files are ingested")
	assert.Equal(t, 1, summary.Ingested)

	stored, err := store.GetByPath(context.Background(), filepath.Join(dir, "post.md"))
	require.NoError(t, err)
	assert.Equal(t, "Harvested Post", stored.Title)
}

func TestIngestService_IngestDir_MissingDir(t *testing.T) {
	service := NewIngestService(newMockArticleStore(), &mockEmbeddingService{})

	_, err := service.IngestDir(context.Background(), "/nonexistent/path")

	require.Error(t, err)
}
