package ontology

import "context"

// TermExpander produces alternate surface forms for a term that the
// dictionaries do not know, e.g. translations of a Dutch product name. The
// resolver treats expansions as new lookup keys only; which implementation
// backs the expansion is invisible to matching.
type TermExpander interface {
	Expand(ctx context.Context, term string) ([]string, error)
}

// DictionaryExpander is a trivial map-backed expander used in tests and
// offline runs.
type DictionaryExpander struct {
	entries map[string][]string
}

// NewDictionaryExpander builds an expander from a static expansion table.
func NewDictionaryExpander(entries map[string][]string) *DictionaryExpander {
	normalized := make(map[string][]string, len(entries))
	for term, alts := range entries {
		normalized[Normalize(term)] = alts
	}
	return &DictionaryExpander{entries: normalized}
}

// Expand returns the configured alternates for a term, or nothing.
func (e *DictionaryExpander) Expand(_ context.Context, term string) ([]string, error) {
	return e.entries[Normalize(term)], nil
}
