package ontology

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verspil/mealbox/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "lowercase", raw: "Greek Yogurt", want: "greek yogurt"},
		{name: "punctuation to space", raw: "self-raising flour", want: "self raising flour"},
		{name: "collapse whitespace", raw: "  volle   yoghurt ", want: "volle yoghurt"},
		{name: "unicode letters survive", raw: "Crème Fraîche", want: "crème fraîche"},
		{name: "empty", raw: "", want: ""},
		{name: "only punctuation", raw: "!!!", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func newTestResolver() *Resolver {
	return NewResolver(
		map[string]model.Concept{
			"yogurt":     "yogurt",
			"strawberry": "strawberry",
		},
		[]model.Variant{
			{Surface: "strawberries", Concept: "strawberry"},
			{Surface: "yoghurt", Concept: "yogurt", Type: model.VariantSynonym},
		},
	)
}

func TestResolveExact(t *testing.T) {
	r := newTestResolver()

	res, ok := r.Resolve("Yogurt")
	require.True(t, ok)
	assert.Equal(t, model.Concept("yogurt"), res.Concept)
	assert.Equal(t, model.SourceExact, res.Source)
}

func TestResolveVariant(t *testing.T) {
	r := newTestResolver()

	// Plural surface form maps through the variant table.
	res, ok := r.Resolve("strawberries")
	require.True(t, ok)
	assert.Equal(t, model.Concept("strawberry"), res.Concept)
	assert.Equal(t, model.SourceVariant, res.Source)
}

func TestResolveUnknown(t *testing.T) {
	r := newTestResolver()

	res, ok := r.Resolve("dragon fruit")
	assert.False(t, ok)
	assert.True(t, res.Concept.IsZero())
}

func TestResolveEmpty(t *testing.T) {
	r := newTestResolver()

	_, ok := r.Resolve("   ")
	assert.False(t, ok)
}

func TestResolveDeterministic(t *testing.T) {
	r := newTestResolver()

	first, ok := r.Resolve("strawberries")
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		again, ok := r.Resolve("strawberries")
		require.True(t, ok)
		assert.Equal(t, first.Concept, again.Concept)
	}
}

func TestResolveExpanded(t *testing.T) {
	r := newTestResolver()
	expander := NewDictionaryExpander(map[string][]string{
		"aardbeien": {"strawberries"},
	})

	res, ok := r.ResolveExpanded(context.Background(), "aardbeien", expander)
	require.True(t, ok)
	assert.Equal(t, model.Concept("strawberry"), res.Concept)
	// The resolution keeps the original raw term, not the expansion.
	assert.Equal(t, "aardbeien", res.Raw)
}

func TestResolveExpandedNilExpander(t *testing.T) {
	r := newTestResolver()

	_, ok := r.ResolveExpanded(context.Background(), "aardbeien", nil)
	assert.False(t, ok)
}

func TestPromote(t *testing.T) {
	r := newTestResolver()

	_, ok := r.Resolve("skyr")
	require.False(t, ok)

	r.Promote("Skyr", "yogurt")

	res, ok := r.Resolve("skyr")
	require.True(t, ok)
	assert.Equal(t, model.Concept("yogurt"), res.Concept)
	assert.Equal(t, model.SourceExact, res.Source)
}

func TestClassifyVariant(t *testing.T) {
	assert.Equal(t, model.VariantPlural, model.ClassifyVariant("strawberries"))
	assert.Equal(t, model.VariantSynonym, model.ClassifyVariant("yoghurt"))
}
