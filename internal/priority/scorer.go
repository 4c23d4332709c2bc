// Package priority derives waste/markdown flags for products from the
// snapshot concept sets and computes the per-product priority signal.
package priority

import (
	"github.com/verspil/mealbox/internal/model"
	"github.com/verspil/mealbox/internal/service"
)

// FlagScope controls whether a product's flags reflect the snapshot of its
// own store or the global cross-store snapshot. The source pipeline flagged
// globally; per-store scoping is the recommended default.
type FlagScope string

const (
	// ScopeStore flags a product only when its own store wasted or marked
	// down the concept.
	ScopeStore FlagScope = "store"
	// ScopeGlobal flags a product when any store did.
	ScopeGlobal FlagScope = "global"
)

// Score is the outcome of priority scoring one product.
type Score struct {
	WasteFlag    bool
	MarkdownFlag bool
	Priority     int
}

// Scorer tags products with waste/markdown flags. It is a pure function of
// concept membership in the two precomputed snapshot sets.
type Scorer struct {
	waste    map[snapshotKey]bool
	markdown map[snapshotKey]bool
	scope    FlagScope
}

type snapshotKey struct {
	storeID int64 // 0 under global scope
	concept model.Concept
}

// NewScorer builds a scorer from the waste and markdown snapshots.
func NewScorer(waste []service.WasteRecord, markdown []service.MarkdownRecord, scope FlagScope) *Scorer {
	if scope == "" {
		scope = ScopeStore
	}

	s := &Scorer{
		waste:    make(map[snapshotKey]bool, len(waste)),
		markdown: make(map[snapshotKey]bool, len(markdown)),
		scope:    scope,
	}

	for _, r := range waste {
		s.waste[s.key(r.StoreID, r.Concept)] = true
	}
	for _, r := range markdown {
		s.markdown[s.key(r.StoreID, r.Concept)] = true
	}

	return s
}

func (s *Scorer) key(storeID int64, concept model.Concept) snapshotKey {
	if s.scope == ScopeGlobal {
		storeID = 0
	}
	return snapshotKey{storeID: storeID, concept: concept}
}

// Score returns the flags and priority for one product. Unresolved products
// score zero.
func (s *Scorer) Score(product model.Product) Score {
	if !product.Resolved() {
		return Score{}
	}

	k := s.key(product.StoreID, product.Concept)
	score := Score{
		WasteFlag:    s.waste[k],
		MarkdownFlag: s.markdown[k],
	}
	if score.WasteFlag {
		score.Priority++
	}
	if score.MarkdownFlag {
		score.Priority++
	}
	return score
}

// Apply tags every product in place and returns the tagged slice.
func (s *Scorer) Apply(products []model.Product) []model.Product {
	for i := range products {
		score := s.Score(products[i])
		products[i].WasteFlag = score.WasteFlag
		products[i].MarkdownFlag = score.MarkdownFlag
	}
	return products
}
