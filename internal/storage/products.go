package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/verspil/mealbox/internal/model"
)

// SaveProducts upserts store products, including their derived flags.
func (s *SQLiteStorage) SaveProducts(ctx context.Context, products []model.Product) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(products) == 0 {
		return fmt.Errorf("%w: products", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (store_id, id, name, concept, items_wasted, value_wasted, waste_flag, markdown_flag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(store_id, id) DO UPDATE SET
			name = excluded.name,
			concept = excluded.concept,
			items_wasted = excluded.items_wasted,
			value_wasted = excluded.value_wasted,
			waste_flag = excluded.waste_flag,
			markdown_flag = excluded.markdown_flag
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range products {
		if p.ID == "" {
			return fmt.Errorf("%w: product id", ErrEmptyString)
		}
		var concept sql.NullString
		if p.Resolved() {
			concept = sql.NullString{String: string(p.Concept), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			p.StoreID, p.ID, p.Name, concept,
			p.ItemsWasted, p.ValueWasted,
			boolToInt(p.WasteFlag), boolToInt(p.MarkdownFlag),
		); err != nil {
			return fmt.Errorf("failed to save product %q: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// GetStores returns every store with its full product catalog.
func (s *SQLiteStorage) GetStores(ctx context.Context) ([]model.Store, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT store_id, id, name, concept, items_wasted, value_wasted, waste_flag, markdown_flag
		FROM products
		ORDER BY store_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byStore := make(map[int64][]model.Product)
	var order []int64
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		if _, seen := byStore[p.StoreID]; !seen {
			order = append(order, p.StoreID)
		}
		byStore[p.StoreID] = append(byStore[p.StoreID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stores := make([]model.Store, 0, len(order))
	for _, id := range order {
		stores = append(stores, model.Store{ID: id, Products: byStore[id]})
	}
	return stores, nil
}

// GetStore returns one store's catalog. A store with no products yields an
// empty catalog, not an error.
func (s *SQLiteStorage) GetStore(ctx context.Context, storeID int64) (*model.Store, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT store_id, id, name, concept, items_wasted, value_wasted, waste_flag, markdown_flag
		FROM products
		WHERE store_id = ?
		ORDER BY id
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query store %d: %w", storeID, err)
	}
	defer func() { _ = rows.Close() }()

	store := &model.Store{ID: storeID}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		store.Products = append(store.Products, p)
	}
	return store, rows.Err()
}

func scanProduct(rows *sql.Rows) (model.Product, error) {
	var p model.Product
	var concept sql.NullString
	var wasteFlag, markdownFlag int
	if err := rows.Scan(&p.StoreID, &p.ID, &p.Name, &concept,
		&p.ItemsWasted, &p.ValueWasted, &wasteFlag, &markdownFlag); err != nil {
		return p, fmt.Errorf("failed to scan product: %w", err)
	}
	if concept.Valid {
		p.Concept = model.Concept(concept.String)
	}
	p.WasteFlag = wasteFlag != 0
	p.MarkdownFlag = markdownFlag != 0
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
