package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/verspil/mealbox/internal/model"
)

// ReviewDecision is the curator's verdict on a single suggestion.
type ReviewDecision string

const (
	// DecisionApprove promotes the suggestion to the primary dictionary.
	DecisionApprove ReviewDecision = "approve"
	// DecisionReject declines the suggestion.
	DecisionReject ReviewDecision = "reject"
	// DecisionSkip leaves the suggestion pending.
	DecisionSkip ReviewDecision = "skip"
	// DecisionQuit ends the review session.
	DecisionQuit ReviewDecision = "quit"
)

// Reviewer walks a curator through pending concept suggestions one at a time.
type Reviewer struct {
	reader      *CancelableReader
	writer      io.Writer
	progressBar *progressbar.ProgressBar
	startTime   time.Time
	total       int
	processed   int
}

// NewReviewer creates an interactive suggestion reviewer. Nil reader and
// writer default to stdin and stdout.
func NewReviewer(reader io.Reader, writer io.Writer) *Reviewer {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Reviewer{
		reader:    NewCancelableReader(reader),
		writer:    writer,
		startTime: time.Now(),
	}
}

// Start announces the review session and sizes the progress bar.
func (r *Reviewer) Start(total int) {
	r.total = total
	r.processed = 0

	fmt.Fprintln(r.writer, FormatTitle("Ontology Suggestion Review"))
	fmt.Fprintln(r.writer, SubtleStyle.Render(fmt.Sprintf("%d pending suggestions", total)))
	fmt.Fprintln(r.writer)

	r.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.writer),
		progressbar.OptionSetDescription("Reviewing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// Review presents a single suggestion and reads the curator's decision.
func (r *Reviewer) Review(ctx context.Context, suggestion model.ConceptSuggestion) (ReviewDecision, error) {
	select {
	case <-ctx.Done():
		return DecisionQuit, ctx.Err()
	default:
	}

	content := fmt.Sprintf("Suggestion: #%d\nRaw term:   %s\nConcept:    %s\nSimilarity: %.2f",
		suggestion.ID,
		BoldStyle.Render(suggestion.Raw),
		SuccessStyle.Render(string(suggestion.Concept)),
		suggestion.Similarity)
	if _, err := fmt.Fprintln(r.writer, RenderBox("Suggested Mapping", content)); err != nil {
		return DecisionQuit, fmt.Errorf("failed to write suggestion box: %w", err)
	}

	fmt.Fprintln(r.writer, "  [y] Approve and promote to ontology")
	fmt.Fprintln(r.writer, "  [n] Reject")
	fmt.Fprintln(r.writer, "  [s] Skip for now")
	fmt.Fprintln(r.writer, "  [q] Quit review")
	fmt.Fprintln(r.writer)

	choice, err := r.promptChoice(ctx, "Decision", []string{"y", "n", "s", "q"})
	if err != nil {
		return DecisionQuit, err
	}

	r.processed++
	if r.progressBar != nil {
		_ = r.progressBar.Add(1)
	}

	switch choice {
	case "y":
		return DecisionApprove, nil
	case "n":
		return DecisionReject, nil
	case "s":
		return DecisionSkip, nil
	default:
		return DecisionQuit, nil
	}
}

// Finish renders the session summary.
func (r *Reviewer) Finish(approved, rejected int) {
	if r.progressBar != nil {
		_ = r.progressBar.Finish()
	}

	elapsed := time.Since(r.startTime).Round(time.Second)
	summary := fmt.Sprintf("Reviewed %d of %d suggestions in %s\nApproved: %d  Rejected: %d",
		r.processed, r.total, elapsed, approved, rejected)
	fmt.Fprintln(r.writer, RenderBox("Review Complete", summary))
}

func (r *Reviewer) promptChoice(ctx context.Context, prompt string, valid []string) (string, error) {
	for {
		if _, err := fmt.Fprint(r.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		line, err := r.reader.ReadLine(ctx)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(strings.TrimSpace(line))
		for _, v := range valid {
			if choice == v {
				return choice, nil
			}
		}

		fmt.Fprintln(r.writer, FormatWarning(fmt.Sprintf("Please enter one of: %s", strings.Join(valid, ", "))))
	}
}
