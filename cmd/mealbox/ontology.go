package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/verspil/mealbox/internal/cli"
	"github.com/verspil/mealbox/internal/common"
	"github.com/verspil/mealbox/internal/model"
	"github.com/verspil/mealbox/internal/ontology"
	"github.com/verspil/mealbox/internal/service"
)

func ontologyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ontology",
		Short: "Inspect and curate the ingredient ontology",
	}

	cmd.AddCommand(ontologyListCmd())
	cmd.AddCommand(ontologySuggestCmd())
	cmd.AddCommand(ontologyReviewCmd())
	cmd.AddCommand(ontologyApproveCmd())

	return cmd
}

func ontologyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ontology entries and variants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			entries, err := store.GetOntologyEntries(ctx)
			if err != nil {
				return fmt.Errorf("failed to load ontology entries: %w", err)
			}
			variants, err := store.GetVariants(ctx)
			if err != nil {
				return fmt.Errorf("failed to load variants: %w", err)
			}

			terms := make([]string, 0, len(entries))
			for raw := range entries {
				terms = append(terms, raw)
			}
			sort.Strings(terms)

			content := fmt.Sprintf("Entries: %d  Variants: %d\n\n", len(entries), len(variants))
			for _, raw := range terms {
				content += fmt.Sprintf("%s → %s\n", raw, entries[raw])
			}
			slog.Info(cli.RenderBox("Ontology", content))
			return nil
		},
	}
}

func ontologySuggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Queue embedding-based suggestions for unresolved terms",
		Long: `Scan imported recipes and products for terms the ontology cannot
resolve, and queue a suggestion for each term whose nearest known neighbour
in embedding space clears the similarity threshold.

Suggestions resolve nothing by themselves; review them with
'mealbox ontology review'.`,
		RunE: runOntologySuggest,
	}

	cmd.Flags().Float64("threshold", ontology.DefaultSuggestionThreshold, "Minimum cosine similarity for a suggestion")
	_ = viper.BindPFlag("ontology.suggest_threshold", cmd.Flags().Lookup("threshold"))

	return cmd
}

func runOntologySuggest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	resolver, err := loadResolver(ctx, store)
	if err != nil {
		return err
	}
	embeddings, err := loadEmbeddings()
	if err != nil {
		return err
	}

	suggester := ontology.NewSuggester(resolver, embeddings, store,
		viper.GetFloat64("ontology.suggest_threshold"))

	terms, err := unresolvedTerms(ctx, store, resolver)
	if err != nil {
		return err
	}

	slog.Info(cli.FormatTitle("Scanning for ontology suggestions"))
	slog.Info("Unresolved terms", "count", len(terms), "embedded_terms", len(embeddings.Terms()))

	queued := 0
	for _, term := range terms {
		suggestion, err := suggester.Suggest(ctx, term)
		if errors.Is(err, common.ErrDuplicateEntry) {
			slog.Debug("Suggestion already pending, skipping", "term", term)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to suggest for %q: %w", term, err)
		}
		if suggestion != nil {
			queued++
		}
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Queued %d suggestions from %d unresolved terms", queued, len(terms))))
	return nil
}

// unresolvedTerms collects the distinct recipe and product terms the current
// ontology cannot resolve.
func unresolvedTerms(ctx context.Context, store service.Storage, resolver *ontology.Resolver) ([]string, error) {
	recipes, err := store.GetRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	stores, err := store.GetStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stores: %w", err)
	}

	seen := make(map[string]bool)
	var terms []string
	add := func(raw string) {
		norm := ontology.Normalize(raw)
		if norm == "" || seen[norm] {
			return
		}
		seen[norm] = true
		if _, ok := resolver.Resolve(norm); !ok {
			terms = append(terms, norm)
		}
	}

	for _, recipe := range recipes {
		for _, ing := range recipe.Ingredients {
			if !ing.Resolved() {
				add(ing.Raw)
			}
		}
	}
	for _, s := range stores {
		for _, p := range s.Products {
			if !p.Resolved() {
				add(p.Name)
			}
		}
	}

	sort.Strings(terms)
	return terms, nil
}

func ontologyApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve a pending suggestion by id",
		Long: `Promote a single pending suggestion to the primary dictionary without
the interactive review session. Suggestion ids are shown by
'mealbox ontology review'.`,
		RunE: runOntologyApprove,
	}

	cmd.Flags().Int64("id", 0, "Suggestion id to approve")
	cmd.Flags().Bool("reject", false, "Reject instead of approve")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runOntologyApprove(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	id, _ := cmd.Flags().GetInt64("id")
	reject, _ := cmd.Flags().GetBool("reject")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	status := model.SuggestionApproved
	if reject {
		status = model.SuggestionRejected
	}

	if err := store.ResolveSuggestion(ctx, id, status); err != nil {
		return fmt.Errorf("failed to resolve suggestion %d: %w", id, err)
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Suggestion %d %s", id, status)))
	return nil
}

func ontologyReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Interactively review pending suggestions",
		Long: `Walk through the pending suggestion queue and approve or reject each
proposed mapping. Approved suggestions are promoted to the primary
dictionary and resolve their raw term from the next run on.`,
		RunE: runOntologyReview,
	}
}

func runOntologyReview(cmd *cobra.Command, _ []string) error {
	handler := cli.NewInterruptHandler(os.Stdout)
	ctx := handler.HandleInterrupts(cmd.Context(), true)

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	pending, err := store.GetPendingSuggestions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending suggestions: %w", err)
	}
	if len(pending) == 0 {
		slog.Info(cli.FormatInfo("No pending suggestions to review"))
		return nil
	}

	reviewer := cli.NewReviewer(os.Stdin, os.Stdout)
	reviewer.Start(len(pending))

	approved, rejected := 0, 0
	for _, suggestion := range pending {
		decision, err := reviewer.Review(ctx, suggestion)
		if err != nil {
			if handler.WasInterrupted() {
				break
			}
			return err
		}

		switch decision {
		case cli.DecisionApprove:
			if err := store.ResolveSuggestion(ctx, suggestion.ID, model.SuggestionApproved); err != nil {
				return fmt.Errorf("failed to approve suggestion %d: %w", suggestion.ID, err)
			}
			approved++
		case cli.DecisionReject:
			if err := store.ResolveSuggestion(ctx, suggestion.ID, model.SuggestionRejected); err != nil {
				return fmt.Errorf("failed to reject suggestion %d: %w", suggestion.ID, err)
			}
			rejected++
		case cli.DecisionSkip:
			continue
		case cli.DecisionQuit:
			reviewer.Finish(approved, rejected)
			return nil
		}
	}

	reviewer.Finish(approved, rejected)
	return nil
}
