// Package normalisers provides format-specific document cleaning: each
// subpackage turns one raw format into a domain.SourceDocument ready
// for enrichment and embedding.
//
// markdown handles harvested pages and user-authored files; html
// handles fetched web pages before extraction.
package normalisers
