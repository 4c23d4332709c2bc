package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verspil/mealbox/internal/embedding"
	"github.com/verspil/mealbox/internal/matcher"
	"github.com/verspil/mealbox/internal/model"
)

func newTestEngine(config Config) *RankingEngine {
	m := matcher.New(embedding.NewStore(3), matcher.DefaultConfig())
	return NewWithConfig(m, config)
}

func recipe(name string, concepts ...string) model.Recipe {
	ingredients := make([]model.Ingredient, 0, len(concepts))
	for _, c := range concepts {
		ingredients = append(ingredients, model.Ingredient{Raw: c, Concept: model.Concept(c)})
	}
	return model.NewRecipe(name, ingredients)
}

func TestRankStoreCoverageGate(t *testing.T) {
	eng := newTestEngine(Config{Strategy: StrategyPriorityOnly, MinDeployableRecipes: 1})

	store := model.Store{ID: 1024, Products: []model.Product{
		{ID: "p1", StoreID: 1024, Concept: "yogurt", WasteFlag: true},
	}}

	// Honey has no product anywhere, so the recipe never reaches the ranking.
	result, err := eng.RankStore(context.Background(), store, []model.Recipe{
		recipe("Greek Yogurt & Honey", "yogurt", "honey"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Ranking)
	assert.True(t, result.Underperforming)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, model.Concept("honey"), result.Unmatched[0].Concept)
}

func TestRankStoreRelevanceFilter(t *testing.T) {
	store := model.Store{ID: 1024, Products: []model.Product{
		{ID: "p1", StoreID: 1024, Concept: "yogurt"},
	}}
	recipes := []model.Recipe{recipe("Greek Yogurt & Honey", "yogurt")}

	// Fully covered but no flagged product: excluded with the filter on.
	filtered := newTestEngine(Config{Strategy: StrategyPriorityOnly, RequireRelevance: true})
	result, err := filtered.RankStore(context.Background(), store, recipes)
	require.NoError(t, err)
	assert.Empty(t, result.Ranking)

	// With the filter disabled the same recipe deploys.
	open := newTestEngine(Config{Strategy: StrategyPriorityOnly, RequireRelevance: false})
	result, err = open.RankStore(context.Background(), store, recipes)
	require.NoError(t, err)
	require.Len(t, result.Ranking, 1)
	assert.Equal(t, 1.0, result.Ranking[0].Coverage)
}

func TestRankStorePriorityOnlyStrategy(t *testing.T) {
	eng := newTestEngine(Config{Strategy: StrategyPriorityOnly})

	store := model.Store{ID: 1, Products: []model.Product{
		{ID: "p1", StoreID: 1, Concept: "yogurt", WasteFlag: true, MarkdownFlag: true},
		{ID: "p2", StoreID: 1, Concept: "honey", WasteFlag: true},
	}}

	result, err := eng.RankStore(context.Background(), store, []model.Recipe{
		recipe("Yogurt Bowl", "yogurt", "honey"),
	})
	require.NoError(t, err)
	require.Len(t, result.Ranking, 1)
	// Mean of priority 2 and priority 1.
	assert.InDelta(t, 1.5, result.Ranking[0].AvgScore, 0.0001)
}

func TestRankStoreBoostedScoreGate(t *testing.T) {
	store := model.Store{ID: 1, Products: []model.Product{
		{ID: "p1", StoreID: 1, Concept: "yogurt", WasteFlag: true},
	}}
	recipes := []model.Recipe{recipe("Yogurt Bowl", "yogurt")}

	// An exact match with one flag scores 105 combined; a gate above that
	// drops the candidate.
	strict := newTestEngine(Config{Strategy: StrategyBoostedScore, MinAvgScore: 110})
	result, err := strict.RankStore(context.Background(), store, recipes)
	require.NoError(t, err)
	assert.Empty(t, result.Ranking)

	lenient := newTestEngine(Config{Strategy: StrategyBoostedScore, MinAvgScore: 40})
	result, err = lenient.RankStore(context.Background(), store, recipes)
	require.NoError(t, err)
	require.Len(t, result.Ranking, 1)
	assert.InDelta(t, 105, result.Ranking[0].AvgScore, 0.0001)
}

func TestRankStoreEmptyInventory(t *testing.T) {
	eng := newTestEngine(DefaultConfig())

	result, err := eng.RankStore(context.Background(), model.Store{ID: 9}, []model.Recipe{
		recipe("Yogurt Bowl", "yogurt"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Ranking)
	assert.True(t, result.Underperforming)
}

func TestRankDeterministicTieBreak(t *testing.T) {
	eng := newTestEngine(Config{Strategy: StrategyPriorityOnly, RequireRelevance: true})

	store := model.Store{ID: 1, Products: []model.Product{
		{ID: "p1", StoreID: 1, Concept: "yogurt", WasteFlag: true},
		{ID: "p2", StoreID: 1, Concept: "honey", WasteFlag: true},
	}}
	recipes := []model.Recipe{
		recipe("Zesty Yogurt", "yogurt"),
		recipe("Acacia Honey Bowl", "honey"),
	}

	for i := 0; i < 3; i++ {
		result, err := eng.RankStore(context.Background(), store, recipes)
		require.NoError(t, err)
		require.Len(t, result.Ranking, 2)
		// Equal scores sort by recipe name.
		assert.Equal(t, "Acacia Honey Bowl", result.Ranking[0].RecipeName)
		assert.Equal(t, "Zesty Yogurt", result.Ranking[1].RecipeName)
	}
}

func TestRankAcrossStores(t *testing.T) {
	eng := newTestEngine(Config{Strategy: StrategyPriorityOnly, MinDeployableRecipes: 1})

	stores := []model.Store{
		{ID: 1, Products: []model.Product{{ID: "p1", StoreID: 1, Concept: "yogurt", WasteFlag: true}}},
		{ID: 2, Products: []model.Product{{ID: "p2", StoreID: 2, Concept: "beef"}}},
	}
	recipes := []model.Recipe{recipe("Yogurt Bowl", "yogurt")}

	result, err := eng.Rank(context.Background(), stores, recipes)
	require.NoError(t, err)
	require.Len(t, result.Plan, 1)
	assert.Equal(t, int64(1), result.Plan[0].StoreID)
	assert.Equal(t, []int64{2}, result.Underperforming)
	assert.NoError(t, result.Plan.Validate())
}

func TestRankCoverageInvariant(t *testing.T) {
	eng := newTestEngine(Config{Strategy: StrategyPriorityOnly})

	stores := []model.Store{
		{ID: 1, Products: []model.Product{
			{ID: "p1", StoreID: 1, Concept: "yogurt", WasteFlag: true},
			{ID: "p2", StoreID: 1, Concept: "honey"},
		}},
	}
	recipes := []model.Recipe{recipe("Yogurt Bowl", "yogurt", "honey")}

	result, err := eng.Rank(context.Background(), stores, recipes)
	require.NoError(t, err)

	for _, candidate := range result.Plan {
		require.Equal(t, 1.0, candidate.Coverage)
		matched := make(map[model.Concept]bool)
		for _, m := range candidate.Matches {
			matched[m.IngredientConcept] = true
		}
		for _, concept := range candidate.Ingredients {
			assert.True(t, matched[concept], "ingredient %s has no match", concept)
		}
	}
}
