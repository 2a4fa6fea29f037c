// Package html converts fetched web pages into source documents: the
// title comes from the <title> tag, and markup is stripped down to
// readable text before the page reaches enrichment and embedding.
package html

import (
	"html"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/insight-labs/harvester/internal/core/domain"
)

var (
	titleTagRe     = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTagRe    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTagRe     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTagRe  = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTagRe      = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTagRe       = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	commentRe      = regexp.MustCompile(`(?s)<!--.*?-->`)
	openBlockRe    = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	closeBlockRe   = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	brTagRe        = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTagRe        = regexp.MustCompile(`(?i)<hr\s*/?>`)
	anyTagRe       = regexp.MustCompile(`<[^>]+>`)
	multiSpaceRe   = regexp.MustCompile(`[ \t]+`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
)

// Normalise converts a raw HTML page into a SourceDocument. The title
// comes from the <title> tag, then the page URL. Path is the URL the
// page was fetched from.
func Normalise(raw, pageURL string) domain.SourceDocument {
	title := extractTitle(raw)
	if title == "" {
		title = titleFromURL(pageURL)
	}

	return domain.SourceDocument{
		Path:    pageURL,
		Title:   title,
		Content: Strip(raw),
		Raw:     raw,
	}
}

// Strip removes markup and extracts readable text content.
func Strip(content string) string {
	content = scriptTagRe.ReplaceAllString(content, "")
	content = styleTagRe.ReplaceAllString(content, "")
	content = noscriptTagRe.ReplaceAllString(content, "")
	content = headTagRe.ReplaceAllString(content, "")
	content = svgTagRe.ReplaceAllString(content, "")
	content = commentRe.ReplaceAllString(content, "")

	// Block boundaries become line breaks so the text keeps its shape.
	content = openBlockRe.ReplaceAllString(content, "\n")
	content = closeBlockRe.ReplaceAllString(content, "\n")
	content = brTagRe.ReplaceAllString(content, "\n")
	content = hrTagRe.ReplaceAllString(content, "\n")

	content = anyTagRe.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	content = multiSpaceRe.ReplaceAllString(content, " ")
	content = multiNewlineRe.ReplaceAllString(content, "\n\n")

	lines := strings.Split(content, "\n")
	var kept []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// extractTitle returns the <title> tag text, or "".
func extractTitle(content string) string {
	m := titleTagRe.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

// titleFromURL derives a human-readable title from the URL's last path
// segment, falling back to the host.
func titleFromURL(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	segment := path.Base(parsed.Path)
	if segment == "" || segment == "/" || segment == "." {
		return parsed.Hostname()
	}
	if ext := path.Ext(segment); ext != "" {
		segment = strings.TrimSuffix(segment, ext)
	}
	segment = strings.ReplaceAll(segment, "_", " ")
	segment = strings.ReplaceAll(segment, "-", " ")
	return strings.TrimSpace(segment)
}
