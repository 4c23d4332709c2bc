// Package model defines the core domain models used throughout the application.
package model

import "strings"

// Concept is the canonical identifier for a food item. It is the join key
// between recipe ingredients and store products; it has no structure beyond
// its string identity.
type Concept string

// IsZero reports whether the concept is unresolved.
func (c Concept) IsZero() bool {
	return c == ""
}

// VariantType classifies how a variant surface form relates to its concept.
// The classification is heuristic and used for audit output only, never for
// matching decisions.
type VariantType string

const (
	// VariantPlural marks a surface form that looks like a plural.
	VariantPlural VariantType = "plural"
	// VariantSynonym marks every other surface form.
	VariantSynonym VariantType = "synonym"
)

// ClassifyVariant returns the heuristic variant type for a surface form:
// plural if it ends in "s", synonym otherwise.
func ClassifyVariant(surface string) VariantType {
	if strings.HasSuffix(surface, "s") {
		return VariantPlural
	}
	return VariantSynonym
}

// Variant is an alternate surface form (plural, synonym, translation) that
// maps many-to-one onto a canonical concept.
type Variant struct {
	Surface string
	Concept Concept
	Type    VariantType
}

// ResolutionSource records which layer of the ontology resolved a term.
type ResolutionSource string

const (
	// SourceExact means the primary raw-term dictionary resolved the term.
	SourceExact ResolutionSource = "EXACT"
	// SourceVariant means the variant table resolved the term.
	SourceVariant ResolutionSource = "VARIANT"
	// SourceSemanticSuggestion means an embedding neighbour proposed the
	// concept; suggestions require confirmation before they resolve anything.
	SourceSemanticSuggestion ResolutionSource = "SEMANTIC_SUGGESTION"
)

// Resolution is the outcome of resolving a raw term against the ontology.
type Resolution struct {
	Raw     string
	Concept Concept
	Source  ResolutionSource
}

// ConceptSuggestion is a proposed ontology entry produced by the embedding
// nearest-neighbour pass. It sits in a review queue until a curator confirms
// or rejects it; only confirmed suggestions are promoted to the primary map.
type ConceptSuggestion struct {
	ID         int64
	Raw        string
	Concept    Concept
	Similarity float64
	Status     SuggestionStatus
}

// SuggestionStatus tracks a suggestion through the review queue.
type SuggestionStatus string

const (
	// SuggestionPending awaits curator review.
	SuggestionPending SuggestionStatus = "PENDING"
	// SuggestionApproved has been promoted to the primary dictionary.
	SuggestionApproved SuggestionStatus = "APPROVED"
	// SuggestionRejected was declined by the curator.
	SuggestionRejected SuggestionStatus = "REJECTED"
)
