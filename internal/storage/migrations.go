package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS ontology_terms (
					raw TEXT PRIMARY KEY,
					concept TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS ontology_variants (
					surface TEXT PRIMARY KEY,
					concept TEXT NOT NULL,
					variant_type TEXT NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS concept_suggestions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					raw TEXT NOT NULL,
					concept TEXT NOT NULL,
					similarity REAL NOT NULL,
					status TEXT NOT NULL DEFAULT 'PENDING',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS recipes (
					name TEXT PRIMARY KEY
				)`,

				`CREATE TABLE IF NOT EXISTS recipe_ingredients (
					recipe_name TEXT NOT NULL,
					position INTEGER NOT NULL,
					raw TEXT NOT NULL,
					concept TEXT,
					PRIMARY KEY (recipe_name, position),
					FOREIGN KEY (recipe_name) REFERENCES recipes(name)
				)`,

				`CREATE TABLE IF NOT EXISTS products (
					store_id INTEGER NOT NULL,
					id TEXT NOT NULL,
					name TEXT NOT NULL,
					concept TEXT,
					items_wasted REAL NOT NULL DEFAULT 0,
					value_wasted REAL NOT NULL DEFAULT 0,
					waste_flag INTEGER NOT NULL DEFAULT 0,
					markdown_flag INTEGER NOT NULL DEFAULT 0,
					PRIMARY KEY (store_id, id)
				)`,

				`CREATE TABLE IF NOT EXISTS waste_snapshot (
					store_id INTEGER NOT NULL,
					concept TEXT NOT NULL,
					items_wasted REAL NOT NULL DEFAULT 0,
					value_wasted REAL NOT NULL DEFAULT 0,
					PRIMARY KEY (store_id, concept)
				)`,

				`CREATE TABLE IF NOT EXISTS markdown_snapshot (
					store_id INTEGER NOT NULL,
					concept TEXT NOT NULL,
					PRIMARY KEY (store_id, concept)
				)`,

				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					started_at DATETIME NOT NULL,
					finished_at DATETIME,
					strategy TEXT NOT NULL,
					config_json TEXT
				)`,

				`CREATE TABLE IF NOT EXISTS run_matches (
					run_id TEXT NOT NULL,
					store_id INTEGER NOT NULL,
					recipe_name TEXT NOT NULL,
					ingredient_concept TEXT NOT NULL,
					product_id TEXT NOT NULL,
					match_type TEXT NOT NULL,
					score REAL NOT NULL,
					FOREIGN KEY (run_id) REFERENCES runs(id)
				)`,

				`CREATE TABLE IF NOT EXISTS run_plan (
					run_id TEXT NOT NULL,
					store_id INTEGER NOT NULL,
					recipe_name TEXT NOT NULL,
					ingredients TEXT NOT NULL,
					avg_score REAL NOT NULL,
					coverage REAL NOT NULL,
					FOREIGN KEY (run_id) REFERENCES runs(id)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add lookup indexes",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_products_concept ON products(concept)`,
				`CREATE INDEX IF NOT EXISTS idx_products_store ON products(store_id)`,
				`CREATE INDEX IF NOT EXISTS idx_suggestions_status ON concept_suggestions(status)`,
				`CREATE INDEX IF NOT EXISTS idx_run_matches_run ON run_matches(run_id)`,
				`CREATE INDEX IF NOT EXISTS idx_run_plan_run ON run_plan(run_id)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
