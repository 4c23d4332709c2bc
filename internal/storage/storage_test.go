package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verspil/mealbox/internal/common"
	"github.com/verspil/mealbox/internal/model"
	"github.com/verspil/mealbox/internal/service"
)

func setupTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestOntologyRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveOntologyEntry(ctx, "yoghurt", "yogurt"))
	require.NoError(t, store.SaveOntologyEntry(ctx, "strawberries", "strawberry"))
	// Upsert replaces the concept.
	require.NoError(t, store.SaveOntologyEntry(ctx, "yoghurt", "greek yogurt"))

	entries, err := store.GetOntologyEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, model.Concept("greek yogurt"), entries["yoghurt"])
}

func TestSaveOntologyEntryValidation(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveOntologyEntry(ctx, "", "yogurt"), ErrEmptyString)
	assert.ErrorIs(t, store.SaveOntologyEntry(ctx, "yoghurt", ""), common.ErrEmptyConcept)
}

func TestVariantRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveVariant(ctx, model.Variant{Surface: "strawberries", Concept: "strawberry"}))

	variants, err := store.GetVariants(ctx)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, model.Concept("strawberry"), variants[0].Concept)
	// Type is classified on save when missing.
	assert.Equal(t, model.VariantPlural, variants[0].Type)
}

func TestSuggestionLifecycle(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	suggestion := &model.ConceptSuggestion{
		Raw:        "skyr",
		Concept:    "yogurt",
		Similarity: 0.91,
	}
	require.NoError(t, store.SaveSuggestion(ctx, suggestion))
	assert.NotZero(t, suggestion.ID)
	assert.Equal(t, model.SuggestionPending, suggestion.Status)

	pending, err := store.GetPendingSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Approval promotes the entry to the primary dictionary.
	require.NoError(t, store.ResolveSuggestion(ctx, suggestion.ID, model.SuggestionApproved))

	pending, err = store.GetPendingSuggestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	entries, err := store.GetOntologyEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Concept("yogurt"), entries["skyr"])
}

func TestSuggestionRejectionDoesNotPromote(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	suggestion := &model.ConceptSuggestion{Raw: "skyr", Concept: "yogurt", Similarity: 0.91}
	require.NoError(t, store.SaveSuggestion(ctx, suggestion))
	require.NoError(t, store.ResolveSuggestion(ctx, suggestion.ID, model.SuggestionRejected))

	entries, err := store.GetOntologyEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// A resolved suggestion cannot be resolved again.
	assert.Error(t, store.ResolveSuggestion(ctx, suggestion.ID, model.SuggestionApproved))
}

func TestSaveSuggestionRejectsDuplicatePending(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	first := &model.ConceptSuggestion{Raw: "skyr", Concept: "yogurt", Similarity: 0.91}
	require.NoError(t, store.SaveSuggestion(ctx, first))

	second := &model.ConceptSuggestion{Raw: "skyr", Concept: "dairy", Similarity: 0.88}
	assert.ErrorIs(t, store.SaveSuggestion(ctx, second), common.ErrDuplicateEntry)

	// Resolving the pending suggestion frees the term for requeueing.
	require.NoError(t, store.ResolveSuggestion(ctx, first.ID, model.SuggestionRejected))
	assert.NoError(t, store.SaveSuggestion(ctx, second))
}

func TestRecipeRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	recipes := []model.Recipe{
		model.NewRecipe("Yogurt Bowl", []model.Ingredient{
			{Raw: "yoghurt", Concept: "yogurt"},
			{Raw: "honing", Concept: "honey"},
			{Raw: "volle kwark"},
		}),
		model.NewRecipe("Beef Stew", []model.Ingredient{
			{Raw: "beef", Concept: "beef"},
		}),
	}
	require.NoError(t, store.SaveRecipes(ctx, recipes))

	got, err := store.GetRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by name.
	assert.Equal(t, "Beef Stew", got[0].Name)
	require.Len(t, got[1].Ingredients, 3)
	assert.Equal(t, "yoghurt", got[1].Ingredients[0].Raw)
	assert.False(t, got[1].Ingredients[2].Resolved())
}

func TestSaveRecipesReplacesIngredients(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	first := []model.Recipe{model.NewRecipe("Bowl", []model.Ingredient{
		{Raw: "yogurt", Concept: "yogurt"},
		{Raw: "honey", Concept: "honey"},
	})}
	require.NoError(t, store.SaveRecipes(ctx, first))

	second := []model.Recipe{model.NewRecipe("Bowl", []model.Ingredient{
		{Raw: "yogurt", Concept: "yogurt"},
	})}
	require.NoError(t, store.SaveRecipes(ctx, second))

	got, err := store.GetRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Ingredients, 1)
}

func TestProductRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	products := []model.Product{
		{ID: "p1", StoreID: 1024, Name: "Greek Yogurt", Concept: "yogurt", ItemsWasted: 3, ValueWasted: 7.5, WasteFlag: true},
		{ID: "p2", StoreID: 1024, Name: "Honey Jar", Concept: "honey"},
		{ID: "p1", StoreID: 1058, Name: "Volle Yoghurt", Concept: "yogurt", MarkdownFlag: true},
	}
	require.NoError(t, store.SaveProducts(ctx, products))

	stores, err := store.GetStores(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 2)

	s, err := store.GetStore(ctx, 1024)
	require.NoError(t, err)
	require.Len(t, s.Products, 2)
	assert.True(t, s.Products[0].WasteFlag)
	assert.InDelta(t, 7.5, s.Products[0].ValueWasted, 0.0001)

	// Unknown store yields an empty catalog, not an error.
	empty, err := store.GetStore(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, empty.Products)
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	waste := []service.WasteRecord{
		{StoreID: 1, Concept: "yogurt", ItemsWasted: 10, ValueWasted: 25},
		{StoreID: 2, Concept: "beef", ItemsWasted: 4, ValueWasted: 30},
	}
	require.NoError(t, store.SaveWasteRecords(ctx, waste))

	got, err := store.GetWasteRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	markdown := []service.MarkdownRecord{{StoreID: 1, Concept: "yogurt"}}
	require.NoError(t, store.SaveMarkdownRecords(ctx, markdown))

	gotMarkdown, err := store.GetMarkdownRecords(ctx)
	require.NoError(t, err)
	require.Len(t, gotMarkdown, 1)
	assert.Equal(t, model.Concept("yogurt"), gotMarkdown[0].Concept)
}

func TestSaveWasteRecordsReplacesSnapshot(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveWasteRecords(ctx, []service.WasteRecord{
		{StoreID: 1, Concept: "yogurt", ItemsWasted: 10, ValueWasted: 25},
	}))
	require.NoError(t, store.SaveWasteRecords(ctx, []service.WasteRecord{
		{StoreID: 1, Concept: "beef", ItemsWasted: 2, ValueWasted: 12},
	}))

	got, err := store.GetWasteRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.Concept("beef"), got[0].Concept)
}

func TestRunRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	run := &service.PipelineRun{
		ID:        "run-1",
		StartedAt: time.Now().UTC().Truncate(time.Second),
		Strategy:  "boosted",
	}
	require.NoError(t, store.SaveRun(ctx, run))

	matches := []model.Match{
		{StoreID: 1, RecipeName: "Bowl", IngredientConcept: "yogurt",
			Product: model.Product{ID: "p1", StoreID: 1, Concept: "yogurt"},
			Type:    model.MatchExact, Score: 100},
	}
	require.NoError(t, store.SaveMatches(ctx, run.ID, matches))

	plan := model.DeploymentRanking{
		{StoreID: 1, RecipeName: "Bowl", Ingredients: []model.Concept{"yogurt"}, Coverage: 1.0, AvgScore: 105},
	}
	require.NoError(t, store.SaveDeploymentPlan(ctx, run.ID, plan))

	latest, err := store.GetLatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", latest.ID)
	assert.Equal(t, "boosted", latest.Strategy)

	gotPlan, err := store.GetDeploymentPlan(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, gotPlan, 1)
	assert.Equal(t, "Bowl", gotPlan[0].RecipeName)
	assert.Equal(t, []model.Concept{"yogurt"}, gotPlan[0].Ingredients)
	assert.InDelta(t, 1.0, gotPlan[0].Coverage, 0.0001)
}

func TestGetLatestRunEmpty(t *testing.T) {
	store := setupTestStorage(t)

	_, err := store.GetLatestRun(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMigrateIdempotent(t *testing.T) {
	store := setupTestStorage(t)
	// A second migration over an up-to-date schema is a no-op.
	assert.NoError(t, store.Migrate(context.Background()))
}
