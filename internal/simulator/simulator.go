// Package simulator estimates the fraction of historical waste a deployment
// plan would have covered, and compares it against a seeded random-matching
// baseline. The snapshot is assumed static and representative; this is a
// single-shot estimate, not a time-series model.
package simulator

import (
	"log/slog"
	"math/rand"
	"sort"

	"github.com/verspil/mealbox/internal/model"
	"github.com/verspil/mealbox/internal/service"
)

// Impact is the estimated savings for one store.
type Impact struct {
	StoreID    int64
	ItemsSaved float64
	ValueSaved float64
}

// Comparison holds the headline effectiveness metric: ranked-plan savings
// against the random baseline.
type Comparison struct {
	Ranked        []Impact
	Baseline      []Impact
	ItemsSavedNet float64
	ValueSavedNet float64
}

// Simulate joins each store's waste records against the concepts deployed in
// that store's ranked recipes. A record is covered iff its concept is in the
// store's deployed-concept set; covered items and value sum to the savings
// estimate. Per-store savings can never exceed the store's snapshot totals.
func Simulate(plan model.DeploymentRanking, waste []service.WasteRecord) []Impact {
	deployed := deployedConcepts(plan)

	totals := make(map[int64]*Impact)
	for _, record := range waste {
		set, ok := deployed[record.StoreID]
		if !ok || !set[record.Concept] {
			continue
		}

		impact, ok := totals[record.StoreID]
		if !ok {
			impact = &Impact{StoreID: record.StoreID}
			totals[record.StoreID] = impact
		}
		impact.ItemsSaved += record.ItemsWasted
		impact.ValueSaved += record.ValueWasted
	}

	// Stores with a plan but no covered waste still report zero savings.
	for storeID := range deployed {
		if _, ok := totals[storeID]; !ok {
			totals[storeID] = &Impact{StoreID: storeID}
		}
	}

	impacts := make([]Impact, 0, len(totals))
	for _, impact := range totals {
		impacts = append(impacts, *impact)
	}
	sort.Slice(impacts, func(i, j int) bool { return impacts[i].StoreID < impacts[j].StoreID })
	return impacts
}

// RandomBaseline draws one uniformly random product per (store, ingredient)
// pair and returns the resulting deployment plan. The same seed over the same
// input tables yields the identical plan.
func RandomBaseline(stores []model.Store, recipes []model.Recipe, seed int64) model.DeploymentRanking {
	rng := rand.New(rand.NewSource(seed))

	var plan model.DeploymentRanking
	for _, store := range stores {
		if len(store.Products) == 0 {
			continue
		}

		// Stable product order so the draw depends only on the seed.
		products := make([]model.Product, len(store.Products))
		copy(products, store.Products)
		sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

		for _, recipe := range recipes {
			matches := make([]model.Match, 0, len(recipe.Ingredients))
			concepts := make([]model.Concept, 0, len(recipe.Ingredients))

			for _, ingredient := range recipe.Ingredients {
				if !ingredient.Resolved() {
					continue
				}
				product := products[rng.Intn(len(products))]
				matches = append(matches, model.Match{
					StoreID:           store.ID,
					RecipeName:        recipe.Name,
					IngredientConcept: ingredient.Concept,
					Product:           product,
					Type:              model.MatchRandom,
					Score:             0,
				})
				concepts = append(concepts, product.Concept)
			}

			if len(matches) == 0 {
				continue
			}

			plan = append(plan, model.DeploymentCandidate{
				StoreID:     store.ID,
				RecipeName:  recipe.Name,
				Ingredients: concepts,
				Matches:     matches,
				Coverage:    1.0,
			})
		}
	}

	return plan
}

// Compare runs the simulation for the ranked plan and the random baseline and
// reports the net savings difference, the headline effectiveness metric.
func Compare(plan model.DeploymentRanking, stores []model.Store, recipes []model.Recipe, waste []service.WasteRecord, seed int64) Comparison {
	ranked := Simulate(plan, waste)
	baseline := Simulate(RandomBaseline(stores, recipes, seed), waste)

	comparison := Comparison{Ranked: ranked, Baseline: baseline}
	for _, impact := range ranked {
		comparison.ItemsSavedNet += impact.ItemsSaved
		comparison.ValueSavedNet += impact.ValueSaved
	}
	for _, impact := range baseline {
		comparison.ItemsSavedNet -= impact.ItemsSaved
		comparison.ValueSavedNet -= impact.ValueSaved
	}

	slog.Info("Waste impact simulation complete",
		"ranked_stores", len(ranked),
		"baseline_stores", len(baseline),
		"items_saved_net", comparison.ItemsSavedNet,
		"value_saved_net", comparison.ValueSavedNet)

	return comparison
}

// ValuePerRecipe returns the mean value saved per planned recipe for a store.
// The second return value is false when the store has no planned recipes;
// callers must treat that as undefined, not zero.
func ValuePerRecipe(impact Impact, recipesPlanned int) (float64, bool) {
	if recipesPlanned == 0 {
		return 0, false
	}
	return impact.ValueSaved / float64(recipesPlanned), true
}

// deployedConcepts builds the per-store set of ingredient concepts appearing
// in deployed recipes. Concepts of matched products count too, so a fuzzy
// match on a differently named product still covers that product's waste.
func deployedConcepts(plan model.DeploymentRanking) map[int64]map[model.Concept]bool {
	deployed := make(map[int64]map[model.Concept]bool)
	for _, candidate := range plan {
		set, ok := deployed[candidate.StoreID]
		if !ok {
			set = make(map[model.Concept]bool)
			deployed[candidate.StoreID] = set
		}
		for _, concept := range candidate.Ingredients {
			if !concept.IsZero() {
				set[concept] = true
			}
		}
		for _, match := range candidate.Matches {
			if !match.Product.Concept.IsZero() {
				set[match.Product.Concept] = true
			}
		}
	}
	return deployed
}
