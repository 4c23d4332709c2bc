// Package engine implements the recipe ranking engine that turns matcher
// output into a ranked, deployable plan per store.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/verspil/mealbox/internal/matcher"
	"github.com/verspil/mealbox/internal/model"
)

// Strategy names a ranking policy.
type Strategy string

const (
	// StrategyPriorityOnly ranks by the mean priority score of matched
	// products.
	StrategyPriorityOnly Strategy = "priority"
	// StrategyBoostedScore ranks by the mean combined score of matched
	// pairs, with a minimum quality gate.
	StrategyBoostedScore Strategy = "boosted"
)

// Config holds configuration options for the ranking engine.
type Config struct {
	Strategy Strategy
	// MinAvgScore is the quality gate of the boosted strategy.
	MinAvgScore float64
	// MinDeployableRecipes marks stores with fewer ranked recipes as
	// underperforming.
	MinDeployableRecipes int
	// RequireRelevance excludes fully matched recipes with no
	// waste/markdown-flagged product. The engine optimizes for waste
	// reduction, not mere feasibility.
	RequireRelevance bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Strategy:             StrategyBoostedScore,
		MinAvgScore:          40,
		MinDeployableRecipes: 2,
		RequireRelevance:     true,
	}
}

// StoreResult is the ranking output for one store.
type StoreResult struct {
	StoreID         int64
	Ranking         model.DeploymentRanking
	Matches         []model.Match
	Unmatched       []model.UnmatchedIngredient
	Underperforming bool
}

// Result is the ranking output across all stores.
type Result struct {
	Plan            model.DeploymentRanking
	Matches         []model.Match
	Unmatched       []model.UnmatchedIngredient
	Underperforming []int64
}

// RankingEngine combines match completeness, match quality and the waste
// priority signal into one deployability score per (store, recipe) pair.
type RankingEngine struct {
	matcher *matcher.Matcher
	config  Config
}

// New creates a ranking engine with the default configuration.
func New(m *matcher.Matcher) *RankingEngine {
	return NewWithConfig(m, DefaultConfig())
}

// NewWithConfig creates a ranking engine with custom configuration.
func NewWithConfig(m *matcher.Matcher, config Config) *RankingEngine {
	if config.Strategy == "" {
		config.Strategy = StrategyBoostedScore
	}
	return &RankingEngine{matcher: m, config: config}
}

// RankStore evaluates every recipe against one store and returns the store's
// ranked candidates. An empty ranking is not an error; it marks the store as
// underperforming when fewer recipes rank than the configured minimum.
func (e *RankingEngine) RankStore(ctx context.Context, store model.Store, recipes []model.Recipe) (StoreResult, error) {
	result := StoreResult{StoreID: store.ID}

	if len(store.Products) == 0 {
		slog.Debug("Store has empty inventory", "store_id", store.ID)
		result.Underperforming = e.config.MinDeployableRecipes > 0
		return result, nil
	}

	for _, recipe := range recipes {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		matched, err := e.matcher.MatchStore(ctx, store, recipe)
		if err != nil {
			return result, fmt.Errorf("failed to match recipe %q at store %d: %w", recipe.Name, store.ID, err)
		}

		result.Unmatched = append(result.Unmatched, matched.Unmatched...)
		for _, pair := range matched.Pairs {
			result.Matches = append(result.Matches, pair.Match)
		}

		candidate, ok := e.evaluate(store.ID, recipe, matched)
		if !ok {
			continue
		}
		result.Ranking = append(result.Ranking, candidate)
	}

	result.Ranking.Sort()
	result.Underperforming = len(result.Ranking) < e.config.MinDeployableRecipes

	if result.Underperforming {
		slog.Info("Store is underperforming",
			"store_id", store.ID,
			"deployable_recipes", len(result.Ranking),
			"minimum", e.config.MinDeployableRecipes)
	}

	return result, nil
}

// Rank evaluates every recipe against every store.
func (e *RankingEngine) Rank(ctx context.Context, stores []model.Store, recipes []model.Recipe) (Result, error) {
	var result Result

	for _, store := range stores {
		storeResult, err := e.RankStore(ctx, store, recipes)
		if err != nil {
			return result, err
		}

		result.Plan = append(result.Plan, storeResult.Ranking...)
		result.Matches = append(result.Matches, storeResult.Matches...)
		result.Unmatched = append(result.Unmatched, storeResult.Unmatched...)
		if storeResult.Underperforming {
			result.Underperforming = append(result.Underperforming, store.ID)
		}
	}

	slog.Info("Ranking complete",
		"stores", len(stores),
		"recipes", len(recipes),
		"candidates", len(result.Plan),
		"underperforming_stores", len(result.Underperforming))

	return result, nil
}

// evaluate runs one (store, recipe) pair through the completeness check, the
// relevance filter and the configured scoring strategy.
func (e *RankingEngine) evaluate(storeID int64, recipe model.Recipe, matched matcher.StoreRecipeResult) (model.DeploymentCandidate, bool) {
	required := len(recipe.Ingredients)
	if required == 0 {
		return model.DeploymentCandidate{}, false
	}

	matchedConcepts := make(map[model.Concept]bool, len(matched.Pairs))
	matches := make([]model.Match, 0, len(matched.Pairs))
	for _, pair := range matched.Pairs {
		matchedConcepts[pair.Match.IngredientConcept] = true
		matches = append(matches, pair.Match)
	}

	candidate := model.DeploymentCandidate{
		StoreID:     storeID,
		RecipeName:  recipe.Name,
		Ingredients: recipe.RequiredConcepts(),
		Matches:     matches,
		Coverage:    float64(len(matchedConcepts)) / float64(required),
	}

	// Partial deployment is not supported.
	if !candidate.FullyCovered() {
		return model.DeploymentCandidate{}, false
	}

	if e.config.RequireRelevance && !candidate.HasRelevance() {
		slog.Debug("Recipe fully matched but has no waste/markdown relevance",
			"store_id", storeID,
			"recipe", recipe.Name)
		return model.DeploymentCandidate{}, false
	}

	switch e.config.Strategy {
	case StrategyPriorityOnly:
		candidate.AvgScore = meanPriority(matched.Pairs)
	case StrategyBoostedScore:
		candidate.AvgScore = meanCombined(matched.Pairs)
		if candidate.AvgScore < e.config.MinAvgScore {
			return model.DeploymentCandidate{}, false
		}
	default:
		slog.Warn("Unknown ranking strategy, using boosted score", "strategy", e.config.Strategy)
		candidate.AvgScore = meanCombined(matched.Pairs)
		if candidate.AvgScore < e.config.MinAvgScore {
			return model.DeploymentCandidate{}, false
		}
	}

	return candidate, true
}

func meanPriority(pairs []matcher.Pair) float64 {
	if len(pairs) == 0 {
		return 0
	}
	var sum float64
	for _, pair := range pairs {
		sum += float64(pair.Match.Product.PriorityScore())
	}
	return sum / float64(len(pairs))
}

func meanCombined(pairs []matcher.Pair) float64 {
	if len(pairs) == 0 {
		return 0
	}
	var sum float64
	for _, pair := range pairs {
		sum += pair.Combined
	}
	return sum / float64(len(pairs))
}
