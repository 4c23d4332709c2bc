package model

import "fmt"

// MatchType identifies which strategy produced a match.
type MatchType string

const (
	// MatchExact is a concept-equality match.
	MatchExact MatchType = "exact"
	// MatchFuzzy is a string-similarity match.
	MatchFuzzy MatchType = "fuzzy"
	// MatchSemantic is an embedding-similarity match.
	MatchSemantic MatchType = "semantic"
	// MatchRandom is a baseline match drawn by the simulator.
	MatchRandom MatchType = "random"
)

// Match links one recipe ingredient to one store product. Matches are
// recomputed on every pipeline run; they are outputs, never authoritative
// state.
type Match struct {
	StoreID           int64
	RecipeName        string
	IngredientConcept Concept
	Product           Product
	Type              MatchType
	Score             float64
}

// Validate ensures the match has valid data.
func (m *Match) Validate() error {
	if m.RecipeName == "" {
		return fmt.Errorf("recipe name is required")
	}
	if m.IngredientConcept.IsZero() {
		return fmt.Errorf("ingredient concept is required")
	}
	if m.Score < 0 || m.Score > 100 {
		return fmt.Errorf("score must be between 0 and 100, got %.2f", m.Score)
	}
	switch m.Type {
	case MatchExact, MatchFuzzy, MatchSemantic, MatchRandom:
	default:
		return fmt.Errorf("unknown match type %q", m.Type)
	}
	return nil
}

// UnmatchedIngredient records an ingredient that found no product in a
// store's inventory. These are surfaced in the audit report, never silently
// dropped.
type UnmatchedIngredient struct {
	StoreID    int64
	RecipeName string
	Raw        string
	Concept    Concept
	Reason     string
}
