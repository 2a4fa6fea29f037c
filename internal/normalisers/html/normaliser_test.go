package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title>Go Concurrency Patterns &amp; Pipelines</title>
	<style>body { color: red; }</style>
	<script>console.log("tracking");</script>
</head>
<body>
	<!-- navigation -->
	<h1>Go Concurrency Patterns</h1>
	<p>Channels make pipelines <strong>composable</strong>.</p>
	<div>Fan-in and fan-out stages.</div>
	<script>analytics.track();</script>
</body>
</html>`

func TestNormalise(t *testing.T) {
	doc := Normalise(samplePage, "https://example.com/posts/go-concurrency")

	assert.Equal(t, "https://example.com/posts/go-concurrency", doc.Path)
	assert.Equal(t, "Go Concurrency Patterns & Pipelines", doc.Title)
	assert.Equal(t, samplePage, doc.Raw)

	assert.Contains(t, doc.Content, "Channels make pipelines composable.")
	assert.Contains(t, doc.Content, "Fan-in and fan-out stages.")
	assert.NotContains(t, doc.Content, "<p>")
	assert.NotContains(t, doc.Content, "analytics")
	assert.NotContains(t, doc.Content, "color: red")
	assert.NotContains(t, doc.Content, "navigation")
}

func TestNormalise_TitleFallsBackToURL(t *testing.T) {
	doc := Normalise("<p>no title here</p>", "https://example.com/posts/rust-in-production.html")

	assert.Equal(t, "rust in production", doc.Title)
}

func TestNormalise_TitleFallsBackToHost(t *testing.T) {
	doc := Normalise("<p>front page</p>", "https://blog.example.org/")

	assert.Equal(t, "blog.example.org", doc.Title)
}

func TestStrip(t *testing.T) {
	got := Strip("<div>first</div><p>second &lt;tag&gt;</p><br>third")

	require.NotEmpty(t, got)
	assert.Equal(t, "first\nsecond <tag>\nthird", got)
}

func TestStrip_CollapsesWhitespace(t *testing.T) {
	got := Strip("<p>a    lot\t\tof   space</p>\n\n\n\n<p>next</p>")

	assert.Equal(t, "a lot of space\nnext", got)
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Hello", extractTitle(`<title>  Hello  </title>`))
	assert.Equal(t, "A & B", extractTitle(`<TITLE>A &amp; B</TITLE>`))
	assert.Equal(t, "", extractTitle(`<h1>no title tag</h1>`))
}
