package domain

import "time"

// Article represents an ingested article with metadata.
// It is the canonical representation after extraction and cleaning.
type Article struct {
	// ID is the unique identifier for the article.
	ID string

	// Path is the source locator (file path or URL). At most one live
	// article exists per path; ingestion upserts on this key.
	Path string

	// Title is the human-readable title.
	Title string

	// Content is the cleaned text content used for embedding.
	Content string

	// Fingerprint is the digest of the raw source text, used to detect
	// whether re-ingestion is necessary. Not a security hash.
	Fingerprint string

	// CreatedAt is when the article was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the article was last re-ingested.
	UpdatedAt time.Time
}

// SourceDocument is a unit of content handed to the ingestion pipeline
// by an upstream producer (directory walk, harvest run, watch event).
type SourceDocument struct {
	// Path is the source locator.
	Path string

	// Title is the extracted title, possibly empty.
	Title string

	// Content is the cleaned body text.
	Content string

	// Raw is the original unprocessed text. The fingerprint is computed
	// over Raw so formatting-only pipeline changes do not force re-embeds.
	Raw string
}

// EmbedText returns the text an article is embedded under: the title and
// the cleaned body joined with a single space, matching the query side.
func (d SourceDocument) EmbedText() string {
	if d.Title == "" {
		return d.Content
	}
	return d.Title + " " + d.Content
}

// Enrichment holds LLM-generated article metadata.
type Enrichment struct {
	// SEOTitle is an engagement-optimised title, 50-60 characters.
	SEOTitle string

	// Summary is a short multi-sentence summary.
	Summary string

	// Tag is the single taxonomy tag assigned to the article.
	Tag string
}

// FeedItem is a single hit returned by a keyword search feed.
type FeedItem struct {
	// Title is the result title as reported by the feed.
	Title string

	// URL is the article location.
	URL string

	// Snippet is the feed's extract of the page content.
	Snippet string

	// Keyword is the search term that produced this item.
	Keyword string

	// SourceDomain is the host part of URL.
	SourceDomain string

	// PublishedAt is the publication timestamp when the feed reports one.
	PublishedAt time.Time

	// CrawledAt is when the item was retrieved.
	CrawledAt time.Time
}
