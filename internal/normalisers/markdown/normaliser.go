// Package markdown converts raw markdown files into source documents
// ready for embedding: front matter is parsed for a title, formatting
// markers are stripped so the vector reflects prose rather than syntax.
package markdown

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/insight-labs/harvester/internal/core/domain"
)

var (
	frontMatterRe = regexp.MustCompile(`(?s)\A---\n(.*?)\n---\n?`)
	titleFieldRe  = regexp.MustCompile(`(?m)^title:\s*(.+)$`)

	codeBlockRe    = regexp.MustCompile("(?s)```[^`]*```")
	inlineCodeRe   = regexp.MustCompile("`[^`]+`")
	imageRe        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linkRe         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingRe      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquoteRe   = regexp.MustCompile(`(?m)^>\s*`)
	hrRe           = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkerRe   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedListRe = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
)

// Normalise converts raw markdown into a SourceDocument. The title comes
// from front matter, then the first H1, then the filename. Content is the
// body with markdown formatting stripped.
func Normalise(raw, path string) domain.SourceDocument {
	body := raw
	title := ""

	if m := frontMatterRe.FindStringSubmatch(body); m != nil {
		if t := titleFieldRe.FindStringSubmatch(m[1]); t != nil {
			title = strings.Trim(strings.TrimSpace(t[1]), `"'`)
		}
		body = body[len(m[0]):]
	}

	if title == "" {
		title = firstHeading(body)
	}
	if title == "" {
		title = titleFromPath(path)
	}

	return domain.SourceDocument{
		Path:    path,
		Title:   title,
		Content: Strip(body),
		Raw:     raw,
	}
}

// Strip removes common markdown formatting, leaving plain text.
func Strip(content string) string {
	content = codeBlockRe.ReplaceAllString(content, "")
	content = inlineCodeRe.ReplaceAllString(content, "")
	content = imageRe.ReplaceAllString(content, "")
	content = linkRe.ReplaceAllString(content, "$1")
	content = headingRe.ReplaceAllString(content, "")

	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")

	content = blockquoteRe.ReplaceAllString(content, "")
	content = hrRe.ReplaceAllString(content, "")
	content = listMarkerRe.ReplaceAllString(content, "")
	content = numberedListRe.ReplaceAllString(content, "")
	content = multiNewlineRe.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}

// firstHeading returns the first H1 text, or "".
func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

// titleFromPath derives a human-readable title from the filename.
func titleFromPath(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}
