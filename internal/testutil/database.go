// Package testutil provides shared helpers for tests that need a seeded
// in-memory database or common domain fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/verspil/mealbox/internal/service"
	"github.com/verspil/mealbox/internal/storage"
)

// TestDB wraps an in-memory storage instance with its seeded fixtures.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// TestDBOptions configures test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Ontology       map[string]string
	SkipMigrations bool
}

// SetupTestDB creates a migrated in-memory database and registers cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for raw, concept := range opts.Ontology {
		if err := store.SaveOntologyEntry(ctx, raw, conceptOf(concept)); err != nil {
			t.Fatalf("failed to seed ontology entry %q: %v", raw, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}
