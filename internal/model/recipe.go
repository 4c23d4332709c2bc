package model

// Ingredient is one required item of a recipe. Raw holds the source text as
// it appeared in the recipe; Concept is the resolved canonical identifier and
// stays empty when the ontology could not resolve the term.
type Ingredient struct {
	Raw     string
	Concept Concept
}

// Resolved reports whether the ingredient has a canonical concept.
func (i Ingredient) Resolved() bool {
	return !i.Concept.IsZero()
}

// Recipe is a named, ordered set of unique ingredients. An ingredient concept
// appears at most once per recipe; duplicates collapse on construction.
type Recipe struct {
	Name        string
	Ingredients []Ingredient
}

// NewRecipe builds a recipe, collapsing ingredients that resolve to the same
// concept. Unresolved ingredients are kept (deduplicated on raw text) so they
// still show up in the unmatched audit.
func NewRecipe(name string, ingredients []Ingredient) Recipe {
	seenConcept := make(map[Concept]bool, len(ingredients))
	seenRaw := make(map[string]bool, len(ingredients))

	deduped := make([]Ingredient, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing.Resolved() {
			if seenConcept[ing.Concept] {
				continue
			}
			seenConcept[ing.Concept] = true
		} else {
			if seenRaw[ing.Raw] {
				continue
			}
			seenRaw[ing.Raw] = true
		}
		deduped = append(deduped, ing)
	}

	return Recipe{Name: name, Ingredients: deduped}
}

// RequiredConcepts returns the distinct resolved concepts the recipe needs.
func (r Recipe) RequiredConcepts() []Concept {
	concepts := make([]Concept, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if ing.Resolved() {
			concepts = append(concepts, ing.Concept)
		}
	}
	return concepts
}
