// Package markdown provides a page writer that renders harvested
// articles as markdown files with front matter, plus a tag-grouped
// index. The output directory doubles as the ingestion source.
package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/insight-labs/harvester/internal/core/domain"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.PageWriter = (*Writer)(nil)

// Default configuration values.
const (
	DefaultContentDir = "content/auto"

	// maxSlugChars caps slug length to keep filenames manageable.
	maxSlugChars = 50

	// maxIndexPerTag caps how many articles the index lists per tag.
	maxIndexPerTag = 10
)

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// pageTemplate renders a single harvested article.
var pageTemplate = template.Must(template.New("page").Parse(`---
title: {{printf "%q" .Title}}
summary: {{printf "%q" .Summary}}
tag: {{.Tag}}
source_url: {{.URL}}
source_domain: {{.SourceDomain}}
keyword: {{.Keyword}}
published_at: {{.PublishedAt}}
crawled_at: {{.CrawledAt}}
---

# {{.Title}}

{{.Summary}}

{{.Body}}

[Read the original article]({{.URL}})
`))

// pageContext is the template input for a single page.
type pageContext struct {
	Title        string
	Summary      string
	Tag          string
	URL          string
	SourceDomain string
	Keyword      string
	PublishedAt  string
	CrawledAt    string
	Body         string
}

// WriterConfig holds configuration for the markdown writer.
type WriterConfig struct {
	// ContentDir is where pages are written (default: content/auto).
	ContentDir string
}

// Writer renders harvested pages to a content directory.
type Writer struct {
	contentDir string
}

// NewWriter creates a new markdown page writer.
func NewWriter(cfg WriterConfig) (*Writer, error) {
	if cfg.ContentDir == "" {
		cfg.ContentDir = DefaultContentDir
	}
	if err := os.MkdirAll(cfg.ContentDir, 0755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	return &Writer{contentDir: cfg.ContentDir}, nil
}

// WritePage renders the page to a dated, slugged markdown file and
// returns the file path.
func (w *Writer) WritePage(page domain.Page) (string, error) {
	slug := w.uniqueSlug(page)
	filename := fmt.Sprintf("%s-%s.md", page.CrawledAt.Format("20060102"), slug)
	path := filepath.Join(w.contentDir, filename)

	ctx := pageContext{
		Title:        titleOf(page),
		Summary:      page.Summary,
		Tag:          page.Tag,
		URL:          page.URL,
		SourceDomain: page.SourceDomain,
		Keyword:      page.Keyword,
		PublishedAt:  formatDate(page.PublishedAt),
		CrawledAt:    formatDate(page.CrawledAt),
		Body:         cleanBody(page.Body),
	}

	var rendered strings.Builder
	if err := pageTemplate.Execute(&rendered, ctx); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}

	if err := os.WriteFile(path, []byte(rendered.String()), 0644); err != nil {
		return "", fmt.Errorf("write page: %w", err)
	}
	return path, nil
}

// WriteIndex renders a tag-grouped index of the pages.
func (w *Writer) WriteIndex(pages []domain.Page) error {
	var b strings.Builder
	b.WriteString(`---
title: "Tech Insights - Latest Articles"
---

# Tech Insights

Automatically curated technology articles and insights.

## Latest Articles
`)

	byTag := make(map[string][]domain.Page)
	for _, page := range pages {
		tag := page.Tag
		if tag == "" {
			tag = "development"
		}
		byTag[tag] = append(byTag[tag], page)
	}

	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		fmt.Fprintf(&b, "\n### %s\n\n", headingCase(tag))

		group := byTag[tag]
		if len(group) > maxIndexPerTag {
			group = group[:maxIndexPerTag]
		}
		for _, page := range group {
			fmt.Fprintf(&b, "- **[%s](%s)** - %s\n", titleOf(page), page.URL, firstSentence(page.Summary))
		}
	}

	fmt.Fprintf(&b, "\n*Last updated: %s*\n", time.Now().UTC().Format("2006-01-02 15:04 UTC"))

	path := filepath.Join(w.contentDir, "index.md")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// uniqueSlug derives a slug from the page title, suffixing a counter
// when the dated filename already exists.
func (w *Writer) uniqueSlug(page domain.Page) string {
	base := slugify(titleOf(page))
	date := page.CrawledAt.Format("20060102")

	slug := base
	for counter := 1; ; counter++ {
		path := filepath.Join(w.contentDir, fmt.Sprintf("%s-%s.md", date, slug))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

// slugify converts a title to a URL-friendly filename fragment.
func slugify(title string) string {
	slug := strings.ToLower(title)
	slug = nonSlugRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "untitled"
	}
	if len(slug) > maxSlugChars {
		slug = strings.Trim(slug[:maxSlugChars], "-")
	}
	return slug
}

// titleOf returns the page title with a fallback for blank titles.
func titleOf(page domain.Page) string {
	if strings.TrimSpace(page.Title) == "" {
		return "Untitled Article"
	}
	return strings.TrimSpace(page.Title)
}

// cleanBody prepares extracted text for markdown output. Horizontal
// rules are escaped so the body cannot open a second front matter block.
func cleanBody(body string) string {
	if strings.TrimSpace(body) == "" {
		return "Content not available."
	}
	body = strings.ReplaceAll(body, "---", `\-\-\-`)
	return strings.TrimSpace(body)
}

// formatDate renders a timestamp for front matter, blank when unset.
func formatDate(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format("2006-01-02 15:04 UTC")
}

// headingCase upper-cases the first letter of a tag for index headings.
func headingCase(tag string) string {
	if tag == "" {
		return tag
	}
	return strings.ToUpper(tag[:1]) + tag[1:]
}

// firstSentence truncates a summary to its first sentence for the index.
func firstSentence(summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "No summary available."
	}
	if idx := strings.Index(summary, ". "); idx != -1 {
		return summary[:idx+1]
	}
	if !strings.HasSuffix(summary, ".") {
		summary += "."
	}
	return summary
}

// ContentDir returns the directory pages are written to.
func (w *Writer) ContentDir() string {
	return w.contentDir
}
