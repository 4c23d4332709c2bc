package model

// Product is one item of a store's catalog. Concept stays empty when the
// ontology could not resolve the product name. Waste and markdown history
// comes from the snapshot window the pipeline was loaded with.
type Product struct {
	ID           string
	StoreID      int64
	Name         string
	Concept      Concept
	ItemsWasted  float64
	ValueWasted  float64
	WasteFlag    bool
	MarkdownFlag bool
}

// Resolved reports whether the product has a canonical concept.
func (p Product) Resolved() bool {
	return !p.Concept.IsZero()
}

// PriorityScore counts the set waste/markdown flags, yielding 0, 1 or 2.
// It is the simple ranking signal used by the PriorityOnly strategy.
func (p Product) PriorityScore() int {
	score := 0
	if p.WasteFlag {
		score++
	}
	if p.MarkdownFlag {
		score++
	}
	return score
}

// Store owns a product catalog and is the unit of deployment.
type Store struct {
	ID       int64
	Products []Product
}

// ConceptIndex groups the store's resolved products by concept so matchers
// can avoid rescanning the whole catalog for every ingredient.
func (s Store) ConceptIndex() map[Concept][]Product {
	index := make(map[Concept][]Product, len(s.Products))
	for _, p := range s.Products {
		if p.Resolved() {
			index[p.Concept] = append(index[p.Concept], p)
		}
	}
	return index
}
