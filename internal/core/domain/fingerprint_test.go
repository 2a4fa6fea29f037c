package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("some article body")
	b := Fingerprint("some article body")

	assert.Equal(t, a, b)
	assert.Len(t, a, 32) // hex-encoded 128-bit digest
}

func TestFingerprint_DiffersOnChange(t *testing.T) {
	a := Fingerprint("some article body")
	b := Fingerprint("some article body.")

	assert.NotEqual(t, a, b)
}

func TestFingerprint_EmptyInput(t *testing.T) {
	assert.NotEmpty(t, Fingerprint(""))
}

func TestSourceDocument_EmbedText(t *testing.T) {
	doc := SourceDocument{Title: "Go Generics", Content: "Type parameters arrived in 1.18."}
	assert.Equal(t, "Go Generics Type parameters arrived in 1.18.", doc.EmbedText())

	untitled := SourceDocument{Content: "body only"}
	assert.Equal(t, "body only", untitled.EmbedText())
}

func TestIngestSummary_Add(t *testing.T) {
	var s IngestSummary
	s.Add(IngestResult{Path: "a.md", Outcome: Ingested})
	s.Add(IngestResult{Path: "b.md", Outcome: IngestSkipped})
	s.Add(IngestResult{Path: "c.md", Outcome: IngestFailed, Err: assert.AnError})

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Ingested)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Failed)
	assert.Len(t, s.Results, 3)
}

func TestIngestOutcome_String(t *testing.T) {
	assert.Equal(t, "ingested", Ingested.String())
	assert.Equal(t, "skipped", IngestSkipped.String())
	assert.Equal(t, "failed", IngestFailed.String())
}
