package ontology

import (
	"context"
	"log/slog"

	"github.com/verspil/mealbox/internal/model"
)

// Resolver maps raw terms to canonical concepts. Resolution is a pure
// function over the two dictionaries: the same raw term always yields the
// same concept until an entry is explicitly promoted.
type Resolver struct {
	primary  map[string]model.Concept
	variants map[string]model.Variant
}

// NewResolver builds a resolver from the primary dictionary and the variant
// table. Keys are normalized on construction so callers may pass surface
// forms as curated.
func NewResolver(primary map[string]model.Concept, variants []model.Variant) *Resolver {
	r := &Resolver{
		primary:  make(map[string]model.Concept, len(primary)),
		variants: make(map[string]model.Variant, len(variants)),
	}

	for raw, concept := range primary {
		r.primary[Normalize(raw)] = concept
	}
	for _, v := range variants {
		key := Normalize(v.Surface)
		if v.Type == "" {
			v.Type = model.ClassifyVariant(key)
		}
		r.variants[key] = v
	}

	return r
}

// Resolve maps a raw term to its concept. The second return value is false
// when neither dictionary knows the term; the term then fails closed in all
// downstream matching.
func (r *Resolver) Resolve(raw string) (model.Resolution, bool) {
	norm := Normalize(raw)
	if norm == "" {
		return model.Resolution{Raw: raw}, false
	}

	if concept, ok := r.primary[norm]; ok {
		return model.Resolution{
			Raw:     raw,
			Concept: concept,
			Source:  model.SourceExact,
		}, true
	}

	if variant, ok := r.variants[norm]; ok {
		return model.Resolution{
			Raw:     raw,
			Concept: variant.Concept,
			Source:  model.SourceVariant,
		}, true
	}

	return model.Resolution{Raw: raw}, false
}

// ResolveExpanded resolves a term, falling back to the expander's alternate
// surface forms (translations, morphological variants) when the direct lookup
// misses. The expander never resolves anything itself; every expansion goes
// back through the same dictionaries.
func (r *Resolver) ResolveExpanded(ctx context.Context, raw string, expander TermExpander) (model.Resolution, bool) {
	if res, ok := r.Resolve(raw); ok {
		return res, true
	}
	if expander == nil {
		return model.Resolution{Raw: raw}, false
	}

	expansions, err := expander.Expand(ctx, Normalize(raw))
	if err != nil {
		slog.Debug("Term expansion failed, term stays unresolved",
			"term", raw,
			"error", err)
		return model.Resolution{Raw: raw}, false
	}

	for _, alt := range expansions {
		if res, ok := r.Resolve(alt); ok {
			res.Raw = raw
			return res, true
		}
	}

	return model.Resolution{Raw: raw}, false
}

// Promote adds a confirmed entry to the primary dictionary. Promotion is the
// only mutation the resolver supports; it backs the suggestion-approval flow.
func (r *Resolver) Promote(raw string, concept model.Concept) {
	r.primary[Normalize(raw)] = concept
}

// KnownTerms returns every normalized raw term in the primary dictionary,
// the candidate pool for embedding-based suggestions.
func (r *Resolver) KnownTerms() []string {
	terms := make([]string, 0, len(r.primary))
	for t := range r.primary {
		terms = append(terms, t)
	}
	return terms
}

// ConceptFor returns the concept for an already-normalized primary term.
func (r *Resolver) ConceptFor(term string) (model.Concept, bool) {
	c, ok := r.primary[term]
	return c, ok
}
