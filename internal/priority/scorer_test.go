package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verspil/mealbox/internal/model"
	"github.com/verspil/mealbox/internal/service"
)

func snapshotFixture() ([]service.WasteRecord, []service.MarkdownRecord) {
	waste := []service.WasteRecord{
		{StoreID: 1, Concept: "yogurt", ItemsWasted: 12, ValueWasted: 18.5},
	}
	markdown := []service.MarkdownRecord{
		{StoreID: 2, Concept: "yogurt"},
	}
	return waste, markdown
}

func TestScoreStoreScope(t *testing.T) {
	waste, markdown := snapshotFixture()
	scorer := NewScorer(waste, markdown, ScopeStore)

	tests := []struct {
		name    string
		product model.Product
		want    Score
	}{
		{
			name:    "wasted in own store",
			product: model.Product{ID: "p1", StoreID: 1, Concept: "yogurt"},
			want:    Score{WasteFlag: true, Priority: 1},
		},
		{
			name:    "marked down in own store",
			product: model.Product{ID: "p2", StoreID: 2, Concept: "yogurt"},
			want:    Score{MarkdownFlag: true, Priority: 1},
		},
		{
			name:    "flags do not leak across stores",
			product: model.Product{ID: "p3", StoreID: 3, Concept: "yogurt"},
			want:    Score{},
		},
		{
			name:    "unresolved product scores zero",
			product: model.Product{ID: "p4", StoreID: 1, Name: "mystery"},
			want:    Score{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.Score(tt.product))
		})
	}
}

func TestScoreGlobalScope(t *testing.T) {
	waste, markdown := snapshotFixture()
	scorer := NewScorer(waste, markdown, ScopeGlobal)

	// Under global scope any store's snapshot exposure flags the concept
	// everywhere, so a store that never wasted yogurt still gets both flags.
	got := scorer.Score(model.Product{ID: "p1", StoreID: 99, Concept: "yogurt"})
	assert.True(t, got.WasteFlag)
	assert.True(t, got.MarkdownFlag)
	assert.Equal(t, 2, got.Priority)
}

func TestScorePriorityMonotonic(t *testing.T) {
	waste, markdown := snapshotFixture()
	scorer := NewScorer(waste, markdown, ScopeGlobal)

	none := scorer.Score(model.Product{ID: "a", StoreID: 1, Concept: "beef"})
	both := scorer.Score(model.Product{ID: "b", StoreID: 1, Concept: "yogurt"})
	assert.LessOrEqual(t, none.Priority, both.Priority)
}

func TestApplyTagsInPlace(t *testing.T) {
	waste, markdown := snapshotFixture()
	scorer := NewScorer(waste, markdown, ScopeStore)

	products := []model.Product{
		{ID: "p1", StoreID: 1, Concept: "yogurt"},
		{ID: "p2", StoreID: 1, Concept: "beef"},
	}

	tagged := scorer.Apply(products)
	assert.True(t, tagged[0].WasteFlag)
	assert.False(t, tagged[1].WasteFlag)
	assert.Equal(t, 1, tagged[0].PriorityScore())
}

func TestDefaultScopeIsStore(t *testing.T) {
	waste, markdown := snapshotFixture()
	scorer := NewScorer(waste, markdown, "")

	got := scorer.Score(model.Product{ID: "p1", StoreID: 3, Concept: "yogurt"})
	assert.False(t, got.WasteFlag)
}
