package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/verspil/mealbox/internal/model"
	"github.com/verspil/mealbox/internal/service"
)

// SaveRun upserts a pipeline run manifest.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *service.PipelineRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if err := validateString(run.ID, "run id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, strategy, config_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			strategy = excluded.strategy,
			config_json = excluded.config_json
	`, run.ID, run.StartedAt, run.FinishedAt, run.Strategy, run.ConfigJSON)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// SaveMatches stores the match output rows of a run.
func (s *SQLiteStorage) SaveMatches(ctx context.Context, runID string, matches []model.Match) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "run id"); err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_matches (run_id, store_id, recipe_name, ingredient_concept, product_id, match_type, score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range matches {
		if _, err := stmt.ExecContext(ctx,
			runID, m.StoreID, m.RecipeName, string(m.IngredientConcept),
			m.Product.ID, string(m.Type), m.Score,
		); err != nil {
			return fmt.Errorf("failed to save match: %w", err)
		}
	}

	return tx.Commit()
}

// SaveDeploymentPlan stores the ranked plan of a run. Ingredients are stored
// as a JSON array, matching the plan export shape.
func (s *SQLiteStorage) SaveDeploymentPlan(ctx context.Context, runID string, plan model.DeploymentRanking) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "run id"); err != nil {
		return err
	}
	if len(plan) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, candidate := range plan {
		ingredients, err := json.Marshal(candidate.Ingredients)
		if err != nil {
			return fmt.Errorf("failed to marshal ingredients: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_plan (run_id, store_id, recipe_name, ingredients, avg_score, coverage)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, candidate.StoreID, candidate.RecipeName, string(ingredients),
			candidate.AvgScore, candidate.Coverage); err != nil {
			return fmt.Errorf("failed to save plan row: %w", err)
		}
	}

	return tx.Commit()
}

// GetLatestRun returns the most recently started run, or ErrNotFound.
func (s *SQLiteStorage) GetLatestRun(ctx context.Context) (*service.PipelineRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var run service.PipelineRun
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, strategy, COALESCE(config_json, '')
		FROM runs ORDER BY started_at DESC LIMIT 1
	`).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Strategy, &run.ConfigJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return &run, nil
}

// GetDeploymentPlan returns the ranked plan stored for a run.
func (s *SQLiteStorage) GetDeploymentPlan(ctx context.Context, runID string) (model.DeploymentRanking, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "run id"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT store_id, recipe_name, ingredients, avg_score, coverage
		FROM run_plan WHERE run_id = ?
		ORDER BY store_id, avg_score DESC, recipe_name
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var plan model.DeploymentRanking
	for rows.Next() {
		var candidate model.DeploymentCandidate
		var ingredients string
		if err := rows.Scan(&candidate.StoreID, &candidate.RecipeName, &ingredients,
			&candidate.AvgScore, &candidate.Coverage); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		if err := json.Unmarshal([]byte(ingredients), &candidate.Ingredients); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ingredients: %w", err)
		}
		plan = append(plan, candidate)
	}
	return plan, rows.Err()
}
