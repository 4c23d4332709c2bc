package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/verspil/mealbox/internal/model"
)

// SaveRecipes replaces the stored ingredient list of each recipe. Recipes are
// static configuration per run; a re-import overwrites, not appends.
func (s *SQLiteStorage) SaveRecipes(ctx context.Context, recipes []model.Recipe) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(recipes) == 0 {
		return fmt.Errorf("%w: recipes", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, recipe := range recipes {
		if recipe.Name == "" {
			return fmt.Errorf("%w: recipe name", ErrEmptyString)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipes (name) VALUES (?) ON CONFLICT(name) DO NOTHING
		`, recipe.Name); err != nil {
			return fmt.Errorf("failed to save recipe %q: %w", recipe.Name, err)
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM recipe_ingredients WHERE recipe_name = ?
		`, recipe.Name); err != nil {
			return fmt.Errorf("failed to clear ingredients for %q: %w", recipe.Name, err)
		}

		for i, ingredient := range recipe.Ingredients {
			var concept sql.NullString
			if ingredient.Resolved() {
				concept = sql.NullString{String: string(ingredient.Concept), Valid: true}
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO recipe_ingredients (recipe_name, position, raw, concept)
				VALUES (?, ?, ?, ?)
			`, recipe.Name, i, ingredient.Raw, concept); err != nil {
				return fmt.Errorf("failed to save ingredient %q of %q: %w", ingredient.Raw, recipe.Name, err)
			}
		}
	}

	return tx.Commit()
}

// GetRecipes returns all recipes with their ingredients in stored order.
func (s *SQLiteStorage) GetRecipes(ctx context.Context) ([]model.Recipe, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.name, ri.raw, ri.concept
		FROM recipes r
		JOIN recipe_ingredients ri ON ri.recipe_name = r.name
		ORDER BY r.name, ri.position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byName := make(map[string][]model.Ingredient)
	var order []string
	for rows.Next() {
		var name, raw string
		var concept sql.NullString
		if err := rows.Scan(&name, &raw, &concept); err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		if _, seen := byName[name]; !seen {
			order = append(order, name)
		}
		ingredient := model.Ingredient{Raw: raw}
		if concept.Valid {
			ingredient.Concept = model.Concept(concept.String)
		}
		byName[name] = append(byName[name], ingredient)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	recipes := make([]model.Recipe, 0, len(order))
	for _, name := range order {
		recipes = append(recipes, model.NewRecipe(name, byName[name]))
	}
	return recipes, nil
}
