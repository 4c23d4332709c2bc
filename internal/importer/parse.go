package importer

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/verspil/mealbox/internal/model"
	"github.com/verspil/mealbox/internal/ontology"
	"github.com/verspil/mealbox/internal/service"
)

// ParseRecipes builds recipes from (recipe_name, ingredient) rows, resolving
// each ingredient through the ontology. Unresolved ingredients stay in the
// recipe with an empty concept; they surface later in the unmatched audit.
func ParseRecipes(ctx context.Context, rows []map[string]string, resolver *ontology.Resolver, expander ontology.TermExpander) []model.Recipe {
	byName := make(map[string][]model.Ingredient)
	var order []string

	for _, row := range rows {
		name := pick(row, "recipe_name", "recipe")
		raw := pick(row, "ingredient", "ingredient_raw_text", "ingredient_name")
		if name == "" || raw == "" {
			continue
		}

		ingredient := model.Ingredient{Raw: raw}
		if concept := pick(row, "ingredient_concept", "concept"); concept != "" {
			ingredient.Concept = model.Concept(concept)
		} else if res, ok := resolver.ResolveExpanded(ctx, raw, expander); ok {
			ingredient.Concept = res.Concept
		}

		if _, seen := byName[name]; !seen {
			order = append(order, name)
		}
		byName[name] = append(byName[name], ingredient)
	}

	recipes := make([]model.Recipe, 0, len(order))
	for _, name := range order {
		recipes = append(recipes, model.NewRecipe(name, byName[name]))
	}

	slog.Info("Parsed recipes", "rows", len(rows), "recipes", len(recipes))
	return recipes
}

// ParseProducts builds store products from catalog rows. Product concepts
// come from an explicit column when present, otherwise from the resolver.
func ParseProducts(ctx context.Context, rows []map[string]string, resolver *ontology.Resolver, expander ontology.TermExpander) []model.Product {
	products := make([]model.Product, 0, len(rows))
	skipped := 0

	for _, row := range rows {
		storeID, ok := parseInt(pick(row, "store_id", "store"))
		if !ok {
			skipped++
			continue
		}
		id := pick(row, "product_id", "id")
		name := pick(row, "product_name", "name")
		if id == "" || name == "" {
			skipped++
			continue
		}

		product := model.Product{
			ID:      id,
			StoreID: storeID,
			Name:    name,
		}
		if concept := pick(row, "product_concept", "concept"); concept != "" {
			product.Concept = model.Concept(concept)
		} else if res, ok := resolver.ResolveExpanded(ctx, name, expander); ok {
			product.Concept = res.Concept
		}

		product.ItemsWasted, _ = parseFloat(pick(row, "items_wasted"))
		product.ValueWasted, _ = parseFloat(pick(row, "value_wasted"))
		product.WasteFlag = parseBool(pick(row, "waste_flag"))
		product.MarkdownFlag = parseBool(pick(row, "markdown_flag"))

		products = append(products, product)
	}

	if skipped > 0 {
		slog.Warn("Skipped malformed product rows", "skipped", skipped)
	}
	slog.Info("Parsed products", "rows", len(rows), "products", len(products))
	return products
}

// ParseWaste builds waste snapshot records; rows whose concept cannot be
// resolved are dropped with a warning since they can never join a match.
func ParseWaste(ctx context.Context, rows []map[string]string, resolver *ontology.Resolver, expander ontology.TermExpander) []service.WasteRecord {
	records := make([]service.WasteRecord, 0, len(rows))
	unresolved := 0

	for _, row := range rows {
		storeID, ok := parseInt(pick(row, "store_id", "store"))
		if !ok {
			continue
		}

		concept := resolveConcept(ctx, row, resolver, expander)
		if concept.IsZero() {
			unresolved++
			continue
		}

		record := service.WasteRecord{StoreID: storeID, Concept: concept}
		record.ItemsWasted, _ = parseFloat(pick(row, "items_wasted", "quantity"))
		record.ValueWasted, _ = parseFloat(pick(row, "value_wasted", "value"))
		records = append(records, record)
	}

	if unresolved > 0 {
		slog.Warn("Dropped waste rows with unresolvable concepts", "dropped", unresolved)
	}
	return records
}

// ParseMarkdown builds markdown snapshot records.
func ParseMarkdown(ctx context.Context, rows []map[string]string, resolver *ontology.Resolver, expander ontology.TermExpander) []service.MarkdownRecord {
	records := make([]service.MarkdownRecord, 0, len(rows))

	for _, row := range rows {
		storeID, ok := parseInt(pick(row, "store_id", "store"))
		if !ok {
			continue
		}
		concept := resolveConcept(ctx, row, resolver, expander)
		if concept.IsZero() {
			continue
		}
		records = append(records, service.MarkdownRecord{StoreID: storeID, Concept: concept})
	}

	return records
}

// ParseOntology reads (raw_term, concept) rows for the primary dictionary.
func ParseOntology(rows []map[string]string) map[string]model.Concept {
	entries := make(map[string]model.Concept, len(rows))
	for _, row := range rows {
		raw := pick(row, "raw_term", "raw", "term")
		concept := pick(row, "concept")
		if raw == "" || concept == "" {
			continue
		}
		entries[ontology.Normalize(raw)] = model.Concept(concept)
	}
	return entries
}

// ParseVariants reads (variant_surface, concept[, variant_type]) rows.
func ParseVariants(rows []map[string]string) []model.Variant {
	variants := make([]model.Variant, 0, len(rows))
	for _, row := range rows {
		surface := pick(row, "variant_surface", "surface", "variant")
		concept := pick(row, "concept")
		if surface == "" || concept == "" {
			continue
		}
		variant := model.Variant{
			Surface: ontology.Normalize(surface),
			Concept: model.Concept(concept),
			Type:    model.VariantType(pick(row, "variant_type", "type")),
		}
		if variant.Type == "" {
			variant.Type = model.ClassifyVariant(variant.Surface)
		}
		variants = append(variants, variant)
	}
	return variants
}

func resolveConcept(ctx context.Context, row map[string]string, resolver *ontology.Resolver, expander ontology.TermExpander) model.Concept {
	if concept := pick(row, "product_concept", "concept"); concept != "" {
		return model.Concept(concept)
	}
	if name := pick(row, "product_name", "name"); name != "" {
		if res, ok := resolver.ResolveExpanded(ctx, name, expander); ok {
			return res.Concept
		}
	}
	return ""
}

func pick(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

func parseInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseBool(s string) bool {
	switch s {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
