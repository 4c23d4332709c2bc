package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/verspil/mealbox/internal/cli"
	"github.com/verspil/mealbox/internal/common"
	"github.com/verspil/mealbox/internal/engine"
	"github.com/verspil/mealbox/internal/export"
	"github.com/verspil/mealbox/internal/matcher"
)

func rankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank recipes per store into a deployment plan",
		Long: `Run the full pipeline: match every recipe against every store, gate on
full ingredient coverage and waste relevance, and rank what remains.

The resulting plan is saved under a run id for later simulation.`,
		RunE: runRank,
	}

	cmd.Flags().StringP("strategy", "s", "", "Ranking strategy (priority, boosted)")
	cmd.Flags().StringP("output", "o", "", "Write the plan as CSV to this path")

	_ = viper.BindPFlag("rank.strategy", cmd.Flags().Lookup("strategy"))
	_ = viper.BindPFlag("rank.output", cmd.Flags().Lookup("output"))

	return cmd
}

func runRank(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	strategy := viper.GetString("rank.strategy")
	switch engine.Strategy(strategy) {
	case "", engine.StrategyPriorityOnly, engine.StrategyBoostedScore:
	default:
		return fmt.Errorf("%w: unknown strategy %q (want priority or boosted)", common.ErrInvalidConfig, strategy)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	stores, _, err := loadTaggedStores(ctx, store)
	if err != nil {
		return err
	}
	recipes, err := loadRecipes(ctx, store)
	if err != nil {
		return err
	}
	embeddings, err := loadEmbeddings()
	if err != nil {
		return err
	}

	engCfg := engineConfig(strategy)
	matCfg := matcherConfig()

	slog.Info(cli.FormatTitle("Ranking recipes for deployment"))
	slog.Info("Configuration",
		"strategy", engCfg.Strategy,
		"min_avg_score", engCfg.MinAvgScore,
		"require_relevance", engCfg.RequireRelevance)

	eng := engine.NewWithConfig(matcher.New(embeddings, matCfg), engCfg)
	result, err := eng.Rank(ctx, stores, recipes)
	if err != nil {
		return fmt.Errorf("ranking failed: %w", err)
	}

	run := newRun(string(engCfg.Strategy))
	run.ConfigJSON = marshalRunConfig(engCfg, matCfg)
	run.FinishedAt = time.Now().UTC()
	if err := store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	if err := store.SaveMatches(ctx, run.ID, result.Matches); err != nil {
		return fmt.Errorf("failed to save matches: %w", err)
	}
	if err := store.SaveDeploymentPlan(ctx, run.ID, result.Plan); err != nil {
		return fmt.Errorf("failed to save deployment plan: %w", err)
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Ranked %d deployable (store, recipe) pairs", len(result.Plan))))
	slog.Info("Run recorded", "run_id", run.ID)

	if len(result.Underperforming) > 0 {
		content := fmt.Sprintf("%d stores rank fewer than %d deployable recipes:\n",
			len(result.Underperforming), engCfg.MinDeployableRecipes)
		for _, id := range result.Underperforming {
			content += fmt.Sprintf("  store %d\n", id)
		}
		slog.Info(cli.RenderBox("Underperforming Stores", content))
	}

	if output := viper.GetString("rank.output"); output != "" {
		if err := writeCSV(output, func(f *os.File) error {
			return export.WritePlan(f, result.Plan)
		}); err != nil {
			return err
		}
		slog.Info("Plan exported", "path", output)
	}

	return nil
}

func marshalRunConfig(engCfg engine.Config, matCfg matcher.Config) string {
	data, err := json.Marshal(map[string]any{
		"engine":  engCfg,
		"matcher": matCfg,
	})
	if err != nil {
		return ""
	}
	return string(data)
}
