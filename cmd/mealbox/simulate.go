package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/verspil/mealbox/internal/cli"
	"github.com/verspil/mealbox/internal/export"
	"github.com/verspil/mealbox/internal/simulator"
)

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate the waste impact of the latest deployment plan",
		Long: `Join the latest run's deployment plan against the waste snapshot and
estimate items and value saved per store, compared against a seeded
random-matching baseline.`,
		RunE: runSimulate,
	}

	cmd.Flags().Int64("seed", 42, "Random seed for the baseline draw")
	cmd.Flags().String("run", "", "Simulate a specific run id (default: latest)")
	cmd.Flags().StringP("output", "o", "", "Write per-store impact as CSV to this path")

	_ = viper.BindPFlag("simulate.seed", cmd.Flags().Lookup("seed"))
	_ = viper.BindPFlag("simulate.run", cmd.Flags().Lookup("run"))
	_ = viper.BindPFlag("simulate.output", cmd.Flags().Lookup("output"))

	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	runID := viper.GetString("simulate.run")
	if runID == "" {
		run, err := store.GetLatestRun(ctx)
		if err != nil {
			return fmt.Errorf("no run to simulate, rank first: %w", err)
		}
		runID = run.ID
	}

	plan, err := store.GetDeploymentPlan(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load deployment plan: %w", err)
	}
	stores, waste, err := loadTaggedStores(ctx, store)
	if err != nil {
		return err
	}
	recipes, err := loadRecipes(ctx, store)
	if err != nil {
		return err
	}

	seed := viper.GetInt64("simulate.seed")
	slog.Info(cli.FormatTitle("Simulating waste impact"))
	slog.Info("Simulation input", "run_id", runID, "plan_entries", len(plan), "seed", seed)

	comparison := simulator.Compare(plan, stores, recipes, waste, seed)

	content := fmt.Sprintf(`Stores with savings: %d
Items saved (net vs baseline): %.1f
Value saved (net vs baseline): %.2f`,
		len(comparison.Ranked),
		comparison.ItemsSavedNet,
		comparison.ValueSavedNet)
	slog.Info(cli.RenderBox("Waste Impact", content))

	if output := viper.GetString("simulate.output"); output != "" {
		if err := writeCSV(output, func(f *os.File) error {
			return export.WriteImpact(f, comparison.Ranked)
		}); err != nil {
			return err
		}
		slog.Info("Impact exported", "path", output)
	}

	return nil
}
