package domain

import "time"

// MaxPageBodyChars caps the body written into a content page. Longer
// extractions are truncated so pages stay readable and embed cleanly.
const MaxPageBodyChars = 5000

// Page is a harvested article rendered as a markdown content page.
type Page struct {
	// Title is the display title, enriched when an LLM is configured.
	Title string

	// Summary is a short abstract for front matter and the index.
	Summary string

	// Tag is the taxonomy tag the article was filed under.
	Tag string

	// URL is the canonical source URL.
	URL string

	// SourceDomain is the host the article came from.
	SourceDomain string

	// Keyword is the search keyword that surfaced the article.
	Keyword string

	// PublishedAt is the source publication time, zero when unknown.
	PublishedAt time.Time

	// CrawledAt records when the harvester fetched the article.
	CrawledAt time.Time

	// Body is the cleaned article text, capped at MaxPageBodyChars.
	Body string
}
