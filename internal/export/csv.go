// Package export writes the pipeline's output tables (matches, deployment
// plan, waste impact) as CSV. Downstream reporting consumes these files as
// opaque inputs.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verspil/mealbox/internal/model"
	"github.com/verspil/mealbox/internal/simulator"
)

// WriteMatches writes (store_id, recipe_name, ingredient_concept, product_id,
// match_type, score) rows.
func WriteMatches(w io.Writer, matches []model.Match) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"store_id", "recipe_name", "ingredient_concept", "product_id", "match_type", "score"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, m := range matches {
		record := []string{
			strconv.FormatInt(m.StoreID, 10),
			m.RecipeName,
			string(m.IngredientConcept),
			m.Product.ID,
			string(m.Type),
			formatScore(m.Score),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write match row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WritePlan writes (store_id, recipe_name, ingredients, avg_score, coverage)
// rows. Ingredients are joined with "|" inside one cell.
func WritePlan(w io.Writer, plan model.DeploymentRanking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"store_id", "recipe_name", "ingredients", "avg_score", "coverage"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, c := range plan {
		ingredients := make([]string, len(c.Ingredients))
		for i, concept := range c.Ingredients {
			ingredients[i] = string(concept)
		}
		record := []string{
			strconv.FormatInt(c.StoreID, 10),
			c.RecipeName,
			strings.Join(ingredients, "|"),
			formatScore(c.AvgScore),
			formatScore(c.Coverage),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write plan row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteImpact writes (store_id, items_saved, value_saved) rows.
func WriteImpact(w io.Writer, impacts []simulator.Impact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"store_id", "items_saved", "value_saved"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, impact := range impacts {
		record := []string{
			strconv.FormatInt(impact.StoreID, 10),
			formatScore(impact.ItemsSaved),
			formatScore(impact.ValueSaved),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write impact row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteUnmatched writes the per-store unmatched-concept audit report.
func WriteUnmatched(w io.Writer, unmatched []model.UnmatchedIngredient) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"store_id", "recipe_name", "raw", "concept", "reason"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, u := range unmatched {
		record := []string{
			strconv.FormatInt(u.StoreID, 10),
			u.RecipeName,
			u.Raw,
			string(u.Concept),
			u.Reason,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write audit row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
