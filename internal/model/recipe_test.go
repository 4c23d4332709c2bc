package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecipeCollapsesDuplicateConcepts(t *testing.T) {
	recipe := NewRecipe("Yogurt Bowl", []Ingredient{
		{Raw: "yogurt", Concept: "yogurt"},
		{Raw: "greek yogurt", Concept: "yogurt"},
		{Raw: "honey", Concept: "honey"},
	})

	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, Concept("yogurt"), recipe.Ingredients[0].Concept)
	assert.Equal(t, Concept("honey"), recipe.Ingredients[1].Concept)
}

func TestNewRecipeKeepsUnresolvedIngredients(t *testing.T) {
	recipe := NewRecipe("Mystery Bowl", []Ingredient{
		{Raw: "yogurt", Concept: "yogurt"},
		{Raw: "volle kwark"},
		{Raw: "volle kwark"},
		{Raw: "skyr"},
	})

	// Unresolved ingredients dedup on raw text and stay for the audit.
	require.Len(t, recipe.Ingredients, 3)
	assert.False(t, recipe.Ingredients[1].Resolved())
	assert.Equal(t, "volle kwark", recipe.Ingredients[1].Raw)
}

func TestRequiredConcepts(t *testing.T) {
	recipe := NewRecipe("Bowl", []Ingredient{
		{Raw: "yogurt", Concept: "yogurt"},
		{Raw: "unknown thing"},
		{Raw: "honey", Concept: "honey"},
	})

	concepts := recipe.RequiredConcepts()
	assert.Equal(t, []Concept{"yogurt", "honey"}, concepts)
}
