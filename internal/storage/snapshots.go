package storage

import (
	"context"
	"fmt"

	"github.com/verspil/mealbox/internal/model"
	"github.com/verspil/mealbox/internal/service"
)

// SaveWasteRecords replaces the waste snapshot. The snapshot is immutable for
// the duration of a run; imports happen between runs.
func (s *SQLiteStorage) SaveWasteRecords(ctx context.Context, records []service.WasteRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: waste records", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM waste_snapshot`); err != nil {
		return fmt.Errorf("failed to clear waste snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO waste_snapshot (store_id, concept, items_wasted, value_wasted)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(store_id, concept) DO UPDATE SET
			items_wasted = items_wasted + excluded.items_wasted,
			value_wasted = value_wasted + excluded.value_wasted
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if r.Concept.IsZero() {
			continue // unresolved waste rows cannot join anything
		}
		if _, err := stmt.ExecContext(ctx, r.StoreID, string(r.Concept), r.ItemsWasted, r.ValueWasted); err != nil {
			return fmt.Errorf("failed to save waste record: %w", err)
		}
	}

	return tx.Commit()
}

// GetWasteRecords returns the waste snapshot.
func (s *SQLiteStorage) GetWasteRecords(ctx context.Context) ([]service.WasteRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT store_id, concept, items_wasted, value_wasted
		FROM waste_snapshot
		ORDER BY store_id, concept
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query waste snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []service.WasteRecord
	for rows.Next() {
		var r service.WasteRecord
		var concept string
		if err := rows.Scan(&r.StoreID, &concept, &r.ItemsWasted, &r.ValueWasted); err != nil {
			return nil, fmt.Errorf("failed to scan waste record: %w", err)
		}
		r.Concept = model.Concept(concept)
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveMarkdownRecords replaces the markdown snapshot.
func (s *SQLiteStorage) SaveMarkdownRecords(ctx context.Context, records []service.MarkdownRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: markdown records", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM markdown_snapshot`); err != nil {
		return fmt.Errorf("failed to clear markdown snapshot: %w", err)
	}

	for _, r := range records {
		if r.Concept.IsZero() {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO markdown_snapshot (store_id, concept) VALUES (?, ?)
			ON CONFLICT(store_id, concept) DO NOTHING
		`, r.StoreID, string(r.Concept)); err != nil {
			return fmt.Errorf("failed to save markdown record: %w", err)
		}
	}

	return tx.Commit()
}

// GetMarkdownRecords returns the markdown snapshot.
func (s *SQLiteStorage) GetMarkdownRecords(ctx context.Context) ([]service.MarkdownRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT store_id, concept FROM markdown_snapshot ORDER BY store_id, concept
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query markdown snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []service.MarkdownRecord
	for rows.Next() {
		var r service.MarkdownRecord
		var concept string
		if err := rows.Scan(&r.StoreID, &concept); err != nil {
			return nil, fmt.Errorf("failed to scan markdown record: %w", err)
		}
		r.Concept = model.Concept(concept)
		records = append(records, r)
	}
	return records, rows.Err()
}
