package testutil

import (
	"github.com/verspil/mealbox/internal/embedding"
	"github.com/verspil/mealbox/internal/model"
)

func conceptOf(s string) model.Concept {
	return model.Concept(s)
}

// StoreBuilder assembles a store catalog for tests.
type StoreBuilder struct {
	store model.Store
}

// NewStore starts a catalog for the given store id.
func NewStore(id int64) *StoreBuilder {
	return &StoreBuilder{store: model.Store{ID: id}}
}

// WithProduct adds an unflagged product.
func (b *StoreBuilder) WithProduct(id, name, concept string) *StoreBuilder {
	b.store.Products = append(b.store.Products, model.Product{
		ID:      id,
		StoreID: b.store.ID,
		Name:    name,
		Concept: model.Concept(concept),
	})
	return b
}

// WithWastedProduct adds a product flagged for waste with the given totals.
func (b *StoreBuilder) WithWastedProduct(id, name, concept string, items, value float64) *StoreBuilder {
	b.store.Products = append(b.store.Products, model.Product{
		ID:          id,
		StoreID:     b.store.ID,
		Name:        name,
		Concept:     model.Concept(concept),
		ItemsWasted: items,
		ValueWasted: value,
		WasteFlag:   true,
	})
	return b
}

// WithMarkdownProduct adds a product flagged for markdown.
func (b *StoreBuilder) WithMarkdownProduct(id, name, concept string) *StoreBuilder {
	b.store.Products = append(b.store.Products, model.Product{
		ID:           id,
		StoreID:      b.store.ID,
		Name:         name,
		Concept:      model.Concept(concept),
		MarkdownFlag: true,
	})
	return b
}

// Build returns the assembled store.
func (b *StoreBuilder) Build() model.Store {
	return b.store
}

// SimpleRecipe builds a recipe whose ingredient raw text and concepts are the
// same strings.
func SimpleRecipe(name string, concepts ...string) model.Recipe {
	ingredients := make([]model.Ingredient, 0, len(concepts))
	for _, c := range concepts {
		ingredients = append(ingredients, model.Ingredient{Raw: c, Concept: model.Concept(c)})
	}
	return model.NewRecipe(name, ingredients)
}

// EmbeddingStore builds an in-memory embedding store from term vectors. All
// vectors must share the same dimension.
func EmbeddingStore(dim int, vectors map[string][]float64) *embedding.Store {
	store := embedding.NewStore(dim)
	for term, raw := range vectors {
		store.Put(term, embedding.Vector(raw))
	}
	return store
}
