package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/verspil/mealbox/internal/engine"
	"github.com/verspil/mealbox/internal/matcher"
)

func TestMatcherConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	assert.Equal(t, matcher.DefaultConfig(), matcherConfig())
}

func TestMatcherConfigViperOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("matcher.fuzzy_threshold", 65.0)
	viper.Set("matcher.strict_threshold", 95.0)
	viper.Set("matcher.semantic_threshold", 0.9)
	viper.Set("matcher.semantic_top_n", 3)
	viper.Set("matcher.fuzzy_weight", 0.7)
	viper.Set("matcher.semantic_weight", 0.3)
	viper.Set("matcher.priority_bonus", 0.0)

	cfg := matcherConfig()
	assert.InDelta(t, 65.0, cfg.FuzzyThreshold, 0.0001)
	assert.InDelta(t, 95.0, cfg.StrictThreshold, 0.0001)
	assert.InDelta(t, 0.9, cfg.SemanticThreshold, 0.0001)
	assert.Equal(t, 3, cfg.SemanticTopN)
	assert.InDelta(t, 0.7, cfg.FuzzyWeight, 0.0001)
	assert.InDelta(t, 0.3, cfg.SemanticWeight, 0.0001)
	assert.Zero(t, cfg.PriorityBonus)
}

func TestEngineConfigOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("engine.min_avg_score", 55.0)
	viper.Set("engine.require_relevance", false)

	cfg := engineConfig("priority")
	assert.Equal(t, engine.StrategyPriorityOnly, cfg.Strategy)
	assert.InDelta(t, 55.0, cfg.MinAvgScore, 0.0001)
	assert.False(t, cfg.RequireRelevance)
}
