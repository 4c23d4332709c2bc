package storage

import (
	"context"
	"fmt"

	"github.com/verspil/mealbox/internal/common"
	"github.com/verspil/mealbox/internal/model"
)

// SaveOntologyEntry upserts a raw-term -> concept mapping in the primary
// dictionary. Suggestion approval routes through here.
func (s *SQLiteStorage) SaveOntologyEntry(ctx context.Context, raw string, concept model.Concept) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(raw, "raw"); err != nil {
		return err
	}
	if concept.IsZero() {
		return fmt.Errorf("ontology entry %q: %w", raw, common.ErrEmptyConcept)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ontology_terms (raw, concept) VALUES (?, ?)
		ON CONFLICT(raw) DO UPDATE SET concept = excluded.concept
	`, raw, string(concept))
	if err != nil {
		return fmt.Errorf("failed to save ontology entry: %w", err)
	}
	return nil
}

// GetOntologyEntries returns the full primary dictionary.
func (s *SQLiteStorage) GetOntologyEntries(ctx context.Context) (map[string]model.Concept, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT raw, concept FROM ontology_terms`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ontology entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make(map[string]model.Concept)
	for rows.Next() {
		var raw, concept string
		if err := rows.Scan(&raw, &concept); err != nil {
			return nil, fmt.Errorf("failed to scan ontology entry: %w", err)
		}
		entries[raw] = model.Concept(concept)
	}
	return entries, rows.Err()
}

// SaveVariant upserts one variant surface form.
func (s *SQLiteStorage) SaveVariant(ctx context.Context, variant model.Variant) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(variant.Surface, "surface"); err != nil {
		return err
	}
	if variant.Type == "" {
		variant.Type = model.ClassifyVariant(variant.Surface)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ontology_variants (surface, concept, variant_type) VALUES (?, ?, ?)
		ON CONFLICT(surface) DO UPDATE SET concept = excluded.concept, variant_type = excluded.variant_type
	`, variant.Surface, string(variant.Concept), string(variant.Type))
	if err != nil {
		return fmt.Errorf("failed to save variant: %w", err)
	}
	return nil
}

// GetVariants returns the full variant table.
func (s *SQLiteStorage) GetVariants(ctx context.Context) ([]model.Variant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT surface, concept, variant_type FROM ontology_variants`)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var variants []model.Variant
	for rows.Next() {
		var surface, concept, variantType string
		if err := rows.Scan(&surface, &concept, &variantType); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, model.Variant{
			Surface: surface,
			Concept: model.Concept(concept),
			Type:    model.VariantType(variantType),
		})
	}
	return variants, rows.Err()
}

// SaveSuggestion appends a pending suggestion to the review queue and fills
// in its assigned id.
func (s *SQLiteStorage) SaveSuggestion(ctx context.Context, suggestion *model.ConceptSuggestion) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if suggestion == nil {
		return fmt.Errorf("%w: suggestion", ErrNilParameter)
	}
	if suggestion.Status == "" {
		suggestion.Status = model.SuggestionPending
	}

	// One pending suggestion per raw term; curators resolve before requeue.
	var pending int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM concept_suggestions WHERE raw = ? AND status = ?
	`, suggestion.Raw, string(model.SuggestionPending)).Scan(&pending)
	if err != nil {
		return fmt.Errorf("failed to check pending suggestions: %w", err)
	}
	if pending > 0 {
		return fmt.Errorf("pending suggestion for %q: %w", suggestion.Raw, common.ErrDuplicateEntry)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO concept_suggestions (raw, concept, similarity, status) VALUES (?, ?, ?, ?)
	`, suggestion.Raw, string(suggestion.Concept), suggestion.Similarity, string(suggestion.Status))
	if err != nil {
		return fmt.Errorf("failed to save suggestion: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get suggestion id: %w", err)
	}
	suggestion.ID = id
	return nil
}

// GetPendingSuggestions returns the review queue in insertion order.
func (s *SQLiteStorage) GetPendingSuggestions(ctx context.Context) ([]model.ConceptSuggestion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, raw, concept, similarity, status
		FROM concept_suggestions
		WHERE status = ?
		ORDER BY id
	`, string(model.SuggestionPending))
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var suggestions []model.ConceptSuggestion
	for rows.Next() {
		var sg model.ConceptSuggestion
		var concept, status string
		if err := rows.Scan(&sg.ID, &sg.Raw, &concept, &sg.Similarity, &status); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		sg.Concept = model.Concept(concept)
		sg.Status = model.SuggestionStatus(status)
		suggestions = append(suggestions, sg)
	}
	return suggestions, rows.Err()
}

// ResolveSuggestion marks a suggestion approved or rejected. Approval also
// promotes the entry to the primary dictionary, atomically.
func (s *SQLiteStorage) ResolveSuggestion(ctx context.Context, id int64, status model.SuggestionStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if status != model.SuggestionApproved && status != model.SuggestionRejected {
		return fmt.Errorf("invalid resolution status %q", status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw, concept string
	err = tx.QueryRowContext(ctx, `
		SELECT raw, concept FROM concept_suggestions WHERE id = ? AND status = ?
	`, id, string(model.SuggestionPending)).Scan(&raw, &concept)
	if err != nil {
		return fmt.Errorf("pending suggestion %d: %w", id, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE concept_suggestions SET status = ? WHERE id = ?
	`, string(status), id); err != nil {
		return fmt.Errorf("failed to update suggestion: %w", err)
	}

	if status == model.SuggestionApproved {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ontology_terms (raw, concept) VALUES (?, ?)
			ON CONFLICT(raw) DO UPDATE SET concept = excluded.concept
		`, raw, concept); err != nil {
			return fmt.Errorf("failed to promote suggestion: %w", err)
		}
	}

	return tx.Commit()
}
