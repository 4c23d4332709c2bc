package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/verspil/mealbox/internal/common"
	"github.com/verspil/mealbox/internal/config"
	"github.com/verspil/mealbox/internal/embedding"
	"github.com/verspil/mealbox/internal/engine"
	"github.com/verspil/mealbox/internal/matcher"
	"github.com/verspil/mealbox/internal/model"
	"github.com/verspil/mealbox/internal/ontology"
	"github.com/verspil/mealbox/internal/priority"
	"github.com/verspil/mealbox/internal/service"
	"github.com/verspil/mealbox/internal/storage"
	"github.com/verspil/mealbox/internal/translate"
)

const defaultEmbeddingDim = 300

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadResolver builds the ontology resolver from the persisted dictionaries.
func loadResolver(ctx context.Context, store service.Storage) (*ontology.Resolver, error) {
	entries, err := store.GetOntologyEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ontology entries: %w", err)
	}
	variants, err := store.GetVariants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}
	return ontology.NewResolver(entries, variants), nil
}

// loadEmbeddings reads the embedding table when configured, or returns an
// empty store so semantic scores degrade to zero.
func loadEmbeddings() (*embedding.Store, error) {
	dim := viper.GetInt("embeddings.dim")
	if dim <= 0 {
		dim = defaultEmbeddingDim
	}

	path := config.ExpandPath(viper.GetString("embeddings.path"))
	if path == "" {
		return embedding.NewStore(dim), nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("embeddings file not usable: %w", err)
	}

	return embedding.LoadJSON(path, dim)
}

// loadExpander builds the translation-backed term expander when a translation
// endpoint is configured.
func loadExpander() ontology.TermExpander {
	url := viper.GetString("translate.url")
	if url == "" {
		return nil
	}

	cfg := translate.DefaultConfig()
	cfg.BaseURL = url
	if key := viper.GetString("translate.api_key"); key != "" {
		cfg.APIKey = key
	}
	if source := viper.GetString("translate.source"); source != "" {
		cfg.SourceLang = source
	}
	if target := viper.GetString("translate.target"); target != "" {
		cfg.TargetLang = target
	}
	return translate.NewWithConfig(cfg)
}

// matcherConfig builds the matcher configuration from viper with defaults.
func matcherConfig() matcher.Config {
	cfg := matcher.DefaultConfig()
	if v := viper.GetFloat64("matcher.fuzzy_threshold"); v > 0 {
		cfg.FuzzyThreshold = v
	}
	if v := viper.GetFloat64("matcher.strict_threshold"); v > 0 {
		cfg.StrictThreshold = v
	}
	if v := viper.GetFloat64("matcher.semantic_threshold"); v > 0 {
		cfg.SemanticThreshold = v
	}
	if v := viper.GetInt("matcher.semantic_top_n"); v > 0 {
		cfg.SemanticTopN = v
	}
	if v := viper.GetFloat64("matcher.fuzzy_weight"); v > 0 {
		cfg.FuzzyWeight = v
	}
	if v := viper.GetFloat64("matcher.semantic_weight"); v > 0 {
		cfg.SemanticWeight = v
	}
	// Zero disables the bonus, so presence decides, not the value.
	if viper.IsSet("matcher.priority_bonus") {
		cfg.PriorityBonus = viper.GetFloat64("matcher.priority_bonus")
	}
	if v := viper.GetDuration("matcher.store_timeout"); v > 0 {
		cfg.StoreTimeout = v
	}
	return cfg
}

// engineConfig builds the ranking engine configuration from viper.
func engineConfig(strategy string) engine.Config {
	cfg := engine.DefaultConfig()
	if strategy != "" {
		cfg.Strategy = engine.Strategy(strategy)
	}
	if v := viper.GetFloat64("engine.min_avg_score"); v > 0 {
		cfg.MinAvgScore = v
	}
	if v := viper.GetInt("engine.min_deployable_recipes"); v > 0 {
		cfg.MinDeployableRecipes = v
	}
	if viper.IsSet("engine.require_relevance") {
		cfg.RequireRelevance = viper.GetBool("engine.require_relevance")
	}
	return cfg
}

// loadTaggedStores loads the store catalogs and tags every product with
// waste/markdown flags from the snapshots.
func loadTaggedStores(ctx context.Context, store service.Storage) ([]model.Store, []service.WasteRecord, error) {
	stores, err := store.GetStores(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load stores: %w", err)
	}
	if len(stores) == 0 {
		return nil, nil, fmt.Errorf("import product catalogs first: %w", common.ErrNoStores)
	}
	waste, err := store.GetWasteRecords(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load waste snapshot: %w", err)
	}
	markdown, err := store.GetMarkdownRecords(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load markdown snapshot: %w", err)
	}

	scope := priority.FlagScope(viper.GetString("priority.scope"))
	scorer := priority.NewScorer(waste, markdown, scope)
	for i := range stores {
		stores[i].Products = scorer.Apply(stores[i].Products)
	}

	return stores, waste, nil
}

// loadRecipes loads the recipe book and rejects an empty one, which every
// pipeline stage would otherwise silently produce nothing from.
func loadRecipes(ctx context.Context, store service.Storage) ([]model.Recipe, error) {
	recipes, err := store.GetRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	if len(recipes) == 0 {
		return nil, fmt.Errorf("import recipes first: %w", common.ErrNoRecipes)
	}
	return recipes, nil
}

// newRun builds a pipeline run manifest for the current invocation.
func newRun(strategy string) *service.PipelineRun {
	return &service.PipelineRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Strategy:  strategy,
	}
}
