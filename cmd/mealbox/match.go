package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/verspil/mealbox/internal/cli"
	"github.com/verspil/mealbox/internal/export"
	"github.com/verspil/mealbox/internal/matcher"
	"github.com/verspil/mealbox/internal/model"
)

func matchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match recipe ingredients against store inventories",
		Long: `Run the concept matcher over every (store, recipe) pair and record the
best product match per ingredient.

Matches are saved with a run id and can be exported as CSV. The audit flag
additionally writes the unmatched-ingredient report.`,
		RunE: runMatch,
	}

	cmd.Flags().StringP("output", "o", "", "Write matches as CSV to this path")
	cmd.Flags().Bool("audit", false, "Also write the unmatched-ingredient audit report")
	cmd.Flags().String("audit-output", "unmatched.csv", "Audit report path")

	_ = viper.BindPFlag("match.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("match.audit", cmd.Flags().Lookup("audit"))
	_ = viper.BindPFlag("match.audit_output", cmd.Flags().Lookup("audit-output"))

	return cmd
}

func runMatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

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

	slog.Info(cli.FormatTitle("Matching ingredients to products"))
	slog.Info("Input sizes", "stores", len(stores), "recipes", len(recipes))

	m := matcher.New(embeddings, matcherConfig())

	bar := progressbar.NewOptions(len(stores)*len(recipes),
		progressbar.OptionSetDescription("Matching"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var matches []model.Match
	var unmatched []model.UnmatchedIngredient
	for _, s := range stores {
		for _, recipe := range recipes {
			result, err := m.MatchStore(ctx, s, recipe)
			if err != nil {
				return fmt.Errorf("matching failed at store %d: %w", s.ID, err)
			}
			for _, pair := range result.Pairs {
				matches = append(matches, pair.Match)
			}
			unmatched = append(unmatched, result.Unmatched...)
			_ = bar.Add(1)
		}
	}
	_ = bar.Finish()

	run := newRun("match")
	if err := store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	if err := store.SaveMatches(ctx, run.ID, matches); err != nil {
		return fmt.Errorf("failed to save matches: %w", err)
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Matched %d ingredient-product pairs (%d unmatched)", len(matches), len(unmatched))))
	slog.Info("Run recorded", "run_id", run.ID)

	if output := viper.GetString("match.output"); output != "" {
		if err := writeCSV(output, func(f *os.File) error {
			return export.WriteMatches(f, matches)
		}); err != nil {
			return err
		}
		slog.Info("Matches exported", "path", output)
	}

	if viper.GetBool("match.audit") {
		auditPath := viper.GetString("match.audit_output")
		if err := writeCSV(auditPath, func(f *os.File) error {
			return export.WriteUnmatched(f, unmatched)
		}); err != nil {
			return err
		}
		slog.Info("Audit report exported", "path", auditPath, "unmatched", len(unmatched))
	}

	return nil
}

func writeCSV(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
