package model

import (
	"fmt"
	"sort"
)

// DeploymentCandidate represents one (store, recipe) pair that survived the
// ranking pipeline. Coverage is the fraction of the recipe's ingredients that
// found a match in the store's inventory; only fully covered candidates are
// eligible for deployment.
type DeploymentCandidate struct {
	StoreID     int64
	RecipeName  string
	Ingredients []Concept
	Matches     []Match
	Coverage    float64
	AvgScore    float64
}

// Validate ensures the candidate has valid data.
func (c *DeploymentCandidate) Validate() error {
	if c.RecipeName == "" {
		return fmt.Errorf("recipe name is required")
	}
	if c.Coverage < 0.0 || c.Coverage > 1.0 {
		return fmt.Errorf("coverage must be between 0.0 and 1.0, got %.2f", c.Coverage)
	}
	if c.AvgScore < 0 {
		return fmt.Errorf("average score must not be negative, got %.2f", c.AvgScore)
	}
	return nil
}

// FullyCovered reports whether every ingredient of the recipe matched.
func (c *DeploymentCandidate) FullyCovered() bool {
	return c.Coverage == 1.0
}

// HasRelevance reports whether at least one matched product carries a waste
// or markdown flag.
func (c *DeploymentCandidate) HasRelevance() bool {
	for _, m := range c.Matches {
		if m.Product.WasteFlag || m.Product.MarkdownFlag {
			return true
		}
	}
	return false
}

// DeploymentRanking is a slice of candidates that supports sorting and
// utility methods.
type DeploymentRanking []DeploymentCandidate

// Len implements sort.Interface.
func (r DeploymentRanking) Len() int {
	return len(r)
}

// Less implements sort.Interface - higher scores come first, ties break by
// recipe name for determinism.
func (r DeploymentRanking) Less(i, j int) bool {
	if r[i].AvgScore != r[j].AvgScore {
		return r[i].AvgScore > r[j].AvgScore
	}
	return r[i].RecipeName < r[j].RecipeName
}

// Swap implements sort.Interface.
func (r DeploymentRanking) Swap(i, j int) {
	r[i], r[j] = r[j], r[i]
}

// Sort sorts the ranking by score in descending order.
func (r DeploymentRanking) Sort() {
	sort.Sort(r)
}

// Top returns the highest-scoring candidate, or nil if empty.
func (r DeploymentRanking) Top() *DeploymentCandidate {
	if len(r) == 0 {
		return nil
	}
	r.Sort()
	return &r[0]
}

// TopN returns the N highest-scoring candidates.
func (r DeploymentRanking) TopN(n int) DeploymentRanking {
	if n <= 0 {
		return DeploymentRanking{}
	}

	r.Sort()

	if n > len(r) {
		n = len(r)
	}

	result := make(DeploymentRanking, n)
	copy(result, r[:n])
	return result
}

// ByStore groups candidates by store id, each group sorted.
func (r DeploymentRanking) ByStore() map[int64]DeploymentRanking {
	groups := make(map[int64]DeploymentRanking)
	for _, c := range r {
		groups[c.StoreID] = append(groups[c.StoreID], c)
	}
	for _, g := range groups {
		g.Sort()
	}
	return groups
}

// Validate ensures all candidates in the ranking are valid and that no
// (store, recipe) pair appears twice.
func (r DeploymentRanking) Validate() error {
	type key struct {
		store  int64
		recipe string
	}
	seen := make(map[key]bool)

	for i := range r {
		if err := r[i].Validate(); err != nil {
			return fmt.Errorf("invalid candidate at index %d: %w", i, err)
		}
		k := key{r[i].StoreID, r[i].RecipeName}
		if seen[k] {
			return fmt.Errorf("duplicate candidate for store %d recipe %q", k.store, k.recipe)
		}
		seen[k] = true
	}

	return nil
}
