// Package ontology resolves raw, possibly multilingual or noisy food terms to
// canonical concepts through a layered lookup: a primary curated dictionary, a
// variant table of plurals and synonyms, and an embedding-based suggestion
// pass that feeds a curator review queue.
package ontology

import (
	"regexp"
	"strings"
)

// Punctuation becomes whitespace so "self-raising flour" and "self raising
// flour" normalize identically.
var punct = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// Normalize prepares a raw term for lookup: lowercase, punctuation stripped,
// internal whitespace collapsed, surrounding whitespace trimmed.
func Normalize(raw string) string {
	out := strings.ToLower(raw)
	out = punct.ReplaceAllString(out, " ")
	return collapseSpaces(out)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
