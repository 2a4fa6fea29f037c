package markdown

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insight-labs/harvester/internal/core/domain"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()

	writer, err := NewWriter(WriterConfig{ContentDir: t.TempDir()})
	require.NoError(t, err)
	return writer
}

func testPage() domain.Page {
	return domain.Page{
		Title:        "Go Generics in Practice",
		Summary:      "A practical look at generics. With examples.",
		Tag:          "development",
		URL:          "https://example.com/go-generics",
		SourceDomain: "example.com",
		Keyword:      "golang",
		PublishedAt:  time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC),
		CrawledAt:    time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		Body:         "Generics landed in Go 1.18 and changed library design.",
	}
}

func TestNewWriter_CreatesContentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "content", "auto")

	writer, err := NewWriter(WriterConfig{ContentDir: dir})

	require.NoError(t, err)
	assert.Equal(t, dir, writer.ContentDir())
	assert.DirExists(t, dir)
}

func TestWritePage(t *testing.T) {
	writer := newTestWriter(t)

	path, err := writer.WritePage(testPage())

	require.NoError(t, err)
	assert.Equal(t, "20260214-go-generics-in-practice.md", filepath.Base(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)

	assert.True(t, strings.HasPrefix(content, "---\n"))
	assert.Contains(t, content, `title: "Go Generics in Practice"`)
	assert.Contains(t, content, "tag: development")
	assert.Contains(t, content, "source_url: https://example.com/go-generics")
	assert.Contains(t, content, "keyword: golang")
	assert.Contains(t, content, "# Go Generics in Practice")
	assert.Contains(t, content, "Generics landed in Go 1.18")
	assert.Contains(t, content, "[Read the original article](https://example.com/go-generics)")
}

func TestWritePage_DuplicateTitlesGetCounterSuffix(t *testing.T) {
	writer := newTestWriter(t)
	page := testPage()

	first, err := writer.WritePage(page)
	require.NoError(t, err)
	second, err := writer.WritePage(page)
	require.NoError(t, err)

	assert.Equal(t, "20260214-go-generics-in-practice.md", filepath.Base(first))
	assert.Equal(t, "20260214-go-generics-in-practice-1.md", filepath.Base(second))
}

func TestWritePage_BlankTitle(t *testing.T) {
	writer := newTestWriter(t)
	page := testPage()
	page.Title = "   "

	path, err := writer.WritePage(page)

	require.NoError(t, err)
	assert.Equal(t, "20260214-untitled-article.md", filepath.Base(path))
}

func TestWritePage_EscapesFrontMatterConflicts(t *testing.T) {
	writer := newTestWriter(t)
	page := testPage()
	page.Body = "before\n---\nafter"

	path, err := writer.WritePage(page)

	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `\-\-\-`)
}

func TestWritePage_EmptyBody(t *testing.T) {
	writer := newTestWriter(t)
	page := testPage()
	page.Body = ""

	path, err := writer.WritePage(page)

	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Content not available.")
}

func TestWriteIndex(t *testing.T) {
	writer := newTestWriter(t)

	devPage := testPage()
	aiPage := testPage()
	aiPage.Title = "Transformers Explained"
	aiPage.Tag = "ai"
	aiPage.URL = "https://example.com/transformers"
	aiPage.Summary = "Attention is all you need. And more."

	err := writer.WriteIndex([]domain.Page{devPage, aiPage})

	require.NoError(t, err)
	raw, err := os.ReadFile(filepath.Join(writer.ContentDir(), "index.md"))
	require.NoError(t, err)
	content := string(raw)

	// Tags sorted alphabetically, first sentence only
	assert.Contains(t, content, "### Ai")
	assert.Contains(t, content, "### Development")
	assert.Less(t, strings.Index(content, "### Ai"), strings.Index(content, "### Development"))
	assert.Contains(t, content, "- **[Transformers Explained](https://example.com/transformers)** - Attention is all you need.")
	assert.Contains(t, content, "Last updated:")
}

func TestWriteIndex_CapsArticlesPerTag(t *testing.T) {
	writer := newTestWriter(t)

	var pages []domain.Page
	for i := 0; i < maxIndexPerTag+5; i++ {
		page := testPage()
		page.Title = "Post " + strings.Repeat("x", i+1)
		pages = append(pages, page)
	}

	err := writer.WriteIndex(pages)

	require.NoError(t, err)
	raw, err := os.ReadFile(filepath.Join(writer.ContentDir(), "index.md"))
	require.NoError(t, err)

	assert.Equal(t, maxIndexPerTag, strings.Count(string(raw), "- **["))
}

func TestWriteIndex_UntaggedPagesDefaultToDevelopment(t *testing.T) {
	writer := newTestWriter(t)
	page := testPage()
	page.Tag = ""

	err := writer.WriteIndex([]domain.Page{page})

	require.NoError(t, err)
	raw, err := os.ReadFile(filepath.Join(writer.ContentDir(), "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "### Development")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "go-generics-in-practice", slugify("Go Generics in Practice"))
	assert.Equal(t, "c-vs-rust", slugify("C++ vs Rust!?"))
	assert.Equal(t, "untitled", slugify("!!!"))

	long := slugify(strings.Repeat("word ", 30))
	assert.LessOrEqual(t, len(long), maxSlugChars)
}

func TestFirstSentence(t *testing.T) {
	assert.Equal(t, "First part.", firstSentence("First part. Second part."))
	assert.Equal(t, "No trailing period.", firstSentence("No trailing period"))
	assert.Equal(t, "No summary available.", firstSentence("  "))
}
