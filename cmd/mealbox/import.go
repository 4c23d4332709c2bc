package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/verspil/mealbox/internal/cli"
	"github.com/verspil/mealbox/internal/common"
	"github.com/verspil/mealbox/internal/importer"
	"github.com/verspil/mealbox/internal/ontology"
	"github.com/verspil/mealbox/internal/service"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import ontology, recipes, inventories and snapshots",
		Long: `Import input tables from CSV or XLSX files into the local database.

Import the ontology and variants first; recipe and product imports resolve
their ingredient and product terms against the already-imported dictionaries.`,
		RunE: runImport,
	}

	cmd.Flags().String("ontology", "", "Ontology table (raw_term, concept)")
	cmd.Flags().String("variants", "", "Variant table (surface, concept)")
	cmd.Flags().String("recipes", "", "Recipe table (recipe_name, ingredient)")
	cmd.Flags().String("products", "", "Product table (store_id, product_id, product_name)")
	cmd.Flags().String("waste", "", "Waste snapshot (store_id, term, items_wasted, value_wasted)")
	cmd.Flags().String("markdown", "", "Markdown snapshot (store_id, term)")
	cmd.Flags().Bool("dry-run", false, "Parse and report without saving")

	_ = viper.BindPFlag("import.ontology", cmd.Flags().Lookup("ontology"))
	_ = viper.BindPFlag("import.variants", cmd.Flags().Lookup("variants"))
	_ = viper.BindPFlag("import.recipes", cmd.Flags().Lookup("recipes"))
	_ = viper.BindPFlag("import.products", cmd.Flags().Lookup("products"))
	_ = viper.BindPFlag("import.waste", cmd.Flags().Lookup("waste"))
	_ = viper.BindPFlag("import.markdown", cmd.Flags().Lookup("markdown"))
	_ = viper.BindPFlag("import.dry_run", cmd.Flags().Lookup("dry-run"))

	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	dryRun := viper.GetBool("import.dry_run")

	if !anyImportInput() {
		return common.NewUserError(
			"nothing to import: pass at least one of --ontology, --variants, --recipes, --products, --waste or --markdown",
			common.ErrMissingConfig)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	slog.Info(cli.FormatTitle("Importing input tables"))
	if dryRun {
		slog.Info(cli.FormatWarning("Dry run mode - not saving to database"))
	}

	if path := viper.GetString("import.ontology"); path != "" {
		if err := importOntology(ctx, store, path, dryRun); err != nil {
			return err
		}
	}
	if path := viper.GetString("import.variants"); path != "" {
		if err := importVariants(ctx, store, path, dryRun); err != nil {
			return err
		}
	}

	// Recipe, product and snapshot imports resolve terms against the
	// dictionaries saved above.
	resolver, err := loadResolver(ctx, store)
	if err != nil {
		return err
	}
	expander := loadExpander()

	if path := viper.GetString("import.recipes"); path != "" {
		if err := importRecipes(ctx, store, resolver, expander, path, dryRun); err != nil {
			return err
		}
	}
	if path := viper.GetString("import.products"); path != "" {
		if err := importProducts(ctx, store, resolver, expander, path, dryRun); err != nil {
			return err
		}
	}
	if path := viper.GetString("import.waste"); path != "" {
		if err := importWaste(ctx, store, resolver, expander, path, dryRun); err != nil {
			return err
		}
	}
	if path := viper.GetString("import.markdown"); path != "" {
		if err := importMarkdown(ctx, store, resolver, expander, path, dryRun); err != nil {
			return err
		}
	}

	slog.Info(cli.FormatSuccess("Import complete!"))
	return nil
}

func anyImportInput() bool {
	for _, key := range []string{
		"import.ontology", "import.variants", "import.recipes",
		"import.products", "import.waste", "import.markdown",
	} {
		if viper.GetString(key) != "" {
			return true
		}
	}
	return false
}

func importOntology(ctx context.Context, store service.Storage, path string, dryRun bool) error {
	rows, err := importer.ReadTable(path)
	if err != nil {
		return fmt.Errorf("failed to read ontology table: %w", err)
	}

	entries := importer.ParseOntology(rows)
	slog.Info("Parsed ontology entries", "path", path, "entries", len(entries))
	if dryRun {
		return nil
	}

	for raw, concept := range entries {
		if err := store.SaveOntologyEntry(ctx, raw, concept); err != nil {
			return fmt.Errorf("failed to save ontology entry %q: %w", raw, err)
		}
	}
	return nil
}

func importVariants(ctx context.Context, store service.Storage, path string, dryRun bool) error {
	rows, err := importer.ReadTable(path)
	if err != nil {
		return fmt.Errorf("failed to read variant table: %w", err)
	}

	variants := importer.ParseVariants(rows)
	slog.Info("Parsed variants", "path", path, "variants", len(variants))
	if dryRun {
		return nil
	}

	for _, v := range variants {
		if err := store.SaveVariant(ctx, v); err != nil {
			return fmt.Errorf("failed to save variant %q: %w", v.Surface, err)
		}
	}
	return nil
}

func importRecipes(ctx context.Context, store service.Storage, resolver *ontology.Resolver, expander ontology.TermExpander, path string, dryRun bool) error {
	rows, err := importer.ReadTable(path)
	if err != nil {
		return fmt.Errorf("failed to read recipe table: %w", err)
	}

	recipes := importer.ParseRecipes(ctx, rows, resolver, expander)
	unresolved := 0
	for _, r := range recipes {
		for _, ing := range r.Ingredients {
			if !ing.Resolved() {
				unresolved++
			}
		}
	}
	slog.Info("Parsed recipes", "path", path, "recipes", len(recipes), "unresolved_ingredients", unresolved)
	if dryRun {
		return nil
	}

	if err := store.SaveRecipes(ctx, recipes); err != nil {
		return fmt.Errorf("failed to save recipes: %w", err)
	}
	return nil
}

func importProducts(ctx context.Context, store service.Storage, resolver *ontology.Resolver, expander ontology.TermExpander, path string, dryRun bool) error {
	rows, err := importer.ReadTable(path)
	if err != nil {
		return fmt.Errorf("failed to read product table: %w", err)
	}

	products := importer.ParseProducts(ctx, rows, resolver, expander)
	slog.Info("Parsed products", "path", path, "products", len(products))
	if dryRun {
		return nil
	}

	if err := store.SaveProducts(ctx, products); err != nil {
		return fmt.Errorf("failed to save products: %w", err)
	}
	return nil
}

func importWaste(ctx context.Context, store service.Storage, resolver *ontology.Resolver, expander ontology.TermExpander, path string, dryRun bool) error {
	rows, err := importer.ReadTable(path)
	if err != nil {
		return fmt.Errorf("failed to read waste snapshot: %w", err)
	}

	records := importer.ParseWaste(ctx, rows, resolver, expander)
	slog.Info("Parsed waste records", "path", path, "records", len(records))
	if dryRun {
		return nil
	}

	if err := store.SaveWasteRecords(ctx, records); err != nil {
		return fmt.Errorf("failed to save waste snapshot: %w", err)
	}
	return nil
}

func importMarkdown(ctx context.Context, store service.Storage, resolver *ontology.Resolver, expander ontology.TermExpander, path string, dryRun bool) error {
	rows, err := importer.ReadTable(path)
	if err != nil {
		return fmt.Errorf("failed to read markdown snapshot: %w", err)
	}

	records := importer.ParseMarkdown(ctx, rows, resolver, expander)
	slog.Info("Parsed markdown records", "path", path, "records", len(records))
	if dryRun {
		return nil
	}

	if err := store.SaveMarkdownRecords(ctx, records); err != nil {
		return fmt.Errorf("failed to save markdown snapshot: %w", err)
	}
	return nil
}
