package driven

import "github.com/insight-labs/harvester/internal/core/domain"

// PageWriter persists harvested articles as markdown content pages.
type PageWriter interface {
	// WritePage renders the page and writes it under the content
	// directory, returning the file path. Existing pages for the same
	// article are overwritten.
	WritePage(page domain.Page) (string, error)

	// WriteIndex renders the index page listing all given pages,
	// grouped by tag.
	WriteIndex(pages []domain.Page) error
}
