// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/verspil/mealbox/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Ontology operations
	SaveOntologyEntry(ctx context.Context, raw string, concept model.Concept) error
	GetOntologyEntries(ctx context.Context) (map[string]model.Concept, error)
	SaveVariant(ctx context.Context, variant model.Variant) error
	GetVariants(ctx context.Context) ([]model.Variant, error)

	// Suggestion queue operations
	SaveSuggestion(ctx context.Context, suggestion *model.ConceptSuggestion) error
	GetPendingSuggestions(ctx context.Context) ([]model.ConceptSuggestion, error)
	ResolveSuggestion(ctx context.Context, id int64, status model.SuggestionStatus) error

	// Recipe operations
	SaveRecipes(ctx context.Context, recipes []model.Recipe) error
	GetRecipes(ctx context.Context) ([]model.Recipe, error)

	// Store and product operations
	SaveProducts(ctx context.Context, products []model.Product) error
	GetStores(ctx context.Context) ([]model.Store, error)
	GetStore(ctx context.Context, storeID int64) (*model.Store, error)

	// Snapshot operations
	SaveWasteRecords(ctx context.Context, records []WasteRecord) error
	GetWasteRecords(ctx context.Context) ([]WasteRecord, error)
	SaveMarkdownRecords(ctx context.Context, records []MarkdownRecord) error
	GetMarkdownRecords(ctx context.Context) ([]MarkdownRecord, error)

	// Run output operations
	SaveRun(ctx context.Context, run *PipelineRun) error
	SaveMatches(ctx context.Context, runID string, matches []model.Match) error
	SaveDeploymentPlan(ctx context.Context, runID string, plan model.DeploymentRanking) error
	GetLatestRun(ctx context.Context) (*PipelineRun, error)
	GetDeploymentPlan(ctx context.Context, runID string) (model.DeploymentRanking, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// WasteRecord is one row of the waste snapshot: how much of a concept a
// store threw away in the snapshot window.
type WasteRecord struct {
	StoreID     int64
	Concept     model.Concept
	ItemsWasted float64
	ValueWasted float64
}

// MarkdownRecord is one row of the markdown snapshot: a concept a store
// discounted in the snapshot window.
type MarkdownRecord struct {
	StoreID int64
	Concept model.Concept
}

// PipelineRun is the manifest of one pipeline invocation. Outputs are keyed
// by run id so exports stay auditable; they are never re-read as input.
type PipelineRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Strategy   string
	ConfigJSON string
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
