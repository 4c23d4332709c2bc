package ontology

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/verspil/mealbox/internal/embedding"
	"github.com/verspil/mealbox/internal/model"
)

// DefaultSuggestionThreshold is the minimum cosine similarity for an
// embedding neighbour to become a suggestion.
const DefaultSuggestionThreshold = 0.85

// SuggestionQueue persists suggestions for curator review.
type SuggestionQueue interface {
	SaveSuggestion(ctx context.Context, suggestion *model.ConceptSuggestion) error
}

// Suggester proposes ontology entries for unresolved terms by finding the
// nearest known raw term in embedding space. Suggestions go to a review
// queue; nothing is resolved automatically.
type Suggester struct {
	resolver   *Resolver
	embeddings *embedding.Store
	queue      SuggestionQueue
	threshold  float64
}

// NewSuggester creates a suggester over the resolver's known terms.
func NewSuggester(resolver *Resolver, embeddings *embedding.Store, queue SuggestionQueue, threshold float64) *Suggester {
	if threshold <= 0 {
		threshold = DefaultSuggestionThreshold
	}
	return &Suggester{
		resolver:   resolver,
		embeddings: embeddings,
		queue:      queue,
		threshold:  threshold,
	}
}

// Suggest finds the nearest known term for an unresolved raw term. It
// returns nil when no neighbour clears the similarity threshold; that is not
// an error, the term simply stays unresolved.
func (s *Suggester) Suggest(ctx context.Context, raw string) (*model.ConceptSuggestion, error) {
	norm := Normalize(raw)
	if norm == "" {
		return nil, nil
	}
	if _, ok := s.resolver.Resolve(norm); ok {
		return nil, nil // already resolvable, nothing to suggest
	}

	if !s.embeddings.Has(norm) {
		slog.Debug("No embedding for term, skipping suggestion", "term", norm)
		return nil, nil
	}

	terms := s.resolver.KnownTerms()
	sort.Strings(terms)

	// Similarity ties go to the orthographically closer term; remaining
	// ties fall back to the sorted scan order.
	var bestTerm string
	bestSim := -1.0
	bestDist := 0
	for _, known := range terms {
		sim := s.embeddings.Similarity(norm, known)
		if sim < bestSim {
			continue
		}
		dist := levenshtein.ComputeDistance(norm, known)
		if sim > bestSim || dist < bestDist {
			bestSim = sim
			bestDist = dist
			bestTerm = known
		}
	}

	if bestTerm == "" || bestSim < s.threshold {
		return nil, nil
	}

	concept, ok := s.resolver.ConceptFor(bestTerm)
	if !ok {
		return nil, nil
	}

	suggestion := &model.ConceptSuggestion{
		Raw:        norm,
		Concept:    concept,
		Similarity: bestSim,
		Status:     model.SuggestionPending,
	}

	if s.queue != nil {
		if err := s.queue.SaveSuggestion(ctx, suggestion); err != nil {
			return nil, fmt.Errorf("failed to queue suggestion: %w", err)
		}
	}

	slog.Info("Queued ontology suggestion",
		"term", norm,
		"concept", concept,
		"similarity", bestSim)

	return suggestion, nil
}
