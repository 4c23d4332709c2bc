package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verspil/mealbox/internal/model"
)

func testSuggestion() model.ConceptSuggestion {
	return model.ConceptSuggestion{
		ID:         1,
		Raw:        "skyr",
		Concept:    "yogurt",
		Similarity: 0.91,
	}
}

func TestReviewDecisions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ReviewDecision
	}{
		{name: "approve", input: "y\n", want: DecisionApprove},
		{name: "reject", input: "n\n", want: DecisionReject},
		{name: "skip", input: "s\n", want: DecisionSkip},
		{name: "quit", input: "q\n", want: DecisionQuit},
		{name: "uppercase approve", input: "Y\n", want: DecisionApprove},
		{name: "retry after invalid", input: "maybe\ny\n", want: DecisionApprove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := NewReviewer(strings.NewReader(tt.input), &out)
			r.Start(1)

			got, err := r.Review(context.Background(), testSuggestion())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReviewShowsSuggestion(t *testing.T) {
	var out bytes.Buffer
	r := NewReviewer(strings.NewReader("y\n"), &out)
	r.Start(1)

	_, err := r.Review(context.Background(), testSuggestion())
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "skyr")
	assert.Contains(t, output, "yogurt")
	assert.Contains(t, output, "0.91")
}

func TestReviewInvalidInputReprompts(t *testing.T) {
	var out bytes.Buffer
	r := NewReviewer(strings.NewReader("x\ns\n"), &out)
	r.Start(1)

	got, err := r.Review(context.Background(), testSuggestion())
	require.NoError(t, err)
	assert.Equal(t, DecisionSkip, got)
	assert.Contains(t, out.String(), "Please enter one of")
}

func TestReviewCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	r := NewReviewer(strings.NewReader("y\n"), &out)
	r.Start(1)

	got, err := r.Review(ctx, testSuggestion())
	require.Error(t, err)
	assert.Equal(t, DecisionQuit, got)
}

func TestReviewEOFEndsSession(t *testing.T) {
	var out bytes.Buffer
	r := NewReviewer(strings.NewReader(""), &out)
	r.Start(1)

	got, err := r.Review(context.Background(), testSuggestion())
	require.Error(t, err)
	assert.Equal(t, DecisionQuit, got)
}

func TestFinishSummary(t *testing.T) {
	var out bytes.Buffer
	r := NewReviewer(strings.NewReader("y\nn\n"), &out)
	r.Start(2)

	for i := 0; i < 2; i++ {
		_, err := r.Review(context.Background(), testSuggestion())
		require.NoError(t, err)
	}

	r.Finish(1, 1)

	output := out.String()
	assert.Contains(t, output, "Reviewed 2 of 2")
	assert.Contains(t, output, "Approved: 1")
	assert.Contains(t, output, "Rejected: 1")
}
