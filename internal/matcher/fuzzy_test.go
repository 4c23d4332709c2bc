package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "yogurt", b: "yogurt", want: 100},
		{name: "both empty", a: "", b: "", want: 100},
		{name: "one empty", a: "yogurt", b: "", want: 0},
		{name: "completely different", a: "abc", b: "xyz", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Ratio(tt.a, tt.b), 0.01)
		})
	}
}

func TestRatioDisjointPairsStayLow(t *testing.T) {
	// Equal-length strings with little in common must not creep toward the
	// retention threshold just because the normalization divides by the
	// combined length.
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "no shared characters", a: "milk", b: "fish", want: 0},
		{name: "one shared character", a: "milk", b: "salt", want: 25},
		{name: "unrelated product names", a: "beef mince", b: "oat drink", want: 31.58},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ratio(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 0.01)
			assert.Less(t, got, 60.0)
		})
	}
}

func TestRatioQualifiedName(t *testing.T) {
	// Six of the concept's characters survive the alignment against the
	// qualified catalog name: 2*6/19.
	assert.InDelta(t, 63.16, Ratio("yogurt", "volle yoghurt"), 0.01)
}

func TestRatioSpellingVariant(t *testing.T) {
	// All six concept characters align: 2*6/13.
	got := Ratio("yogurt", "yoghurt")
	assert.Greater(t, got, 90.0)
	assert.Less(t, got, 100.0)
}

func TestRatioSymmetric(t *testing.T) {
	assert.InDelta(t, Ratio("volle yoghurt", "yogurt"), Ratio("yogurt", "volle yoghurt"), 0.0001)
}

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		min  float64
		max  float64
	}{
		{name: "identical", a: "greek yogurt", b: "greek yogurt", min: 100, max: 100},
		{name: "word order ignored", a: "yogurt greek", b: "greek yogurt", min: 100, max: 100},
		{name: "duplicate tokens collapse", a: "yogurt yogurt", b: "yogurt", min: 100, max: 100},
		{name: "shared core dominates", a: "yoghurt", b: "volle yoghurt", min: 100, max: 100},
		{name: "empty input", a: "", b: "yogurt", min: 0, max: 0},
		{name: "no overlap at all", a: "beef", b: "strawberry jam", min: 0, max: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenSetRatio(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestTokenSetRatioQualifiedProductName(t *testing.T) {
	// The spelling variant keeps the pair above the retention threshold even
	// though the catalog name carries an extra qualifier.
	got := TokenSetRatio("yogurt", "volle yoghurt")
	assert.GreaterOrEqual(t, got, 60.0)
}
