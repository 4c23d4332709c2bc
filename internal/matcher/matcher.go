package matcher

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/verspil/mealbox/internal/embedding"
	"github.com/verspil/mealbox/internal/model"
	"github.com/verspil/mealbox/internal/ontology"
)

// Config holds the tunable thresholds and weights of the matcher. The
// defaults mirror the values the pipeline was calibrated with; none of them
// is a law of the domain.
type Config struct {
	// FuzzyThreshold is the coarse retention bound for fuzzy scores.
	FuzzyThreshold float64
	// StrictThreshold marks fuzzy matches strong enough to need no
	// alternate; weaker pairs are flagged as alternates in the audit.
	StrictThreshold float64
	// SemanticThreshold is the minimum cosine similarity for a semantic
	// candidate.
	SemanticThreshold float64
	// SemanticTopN bounds the semantic candidate list per ingredient.
	SemanticTopN int
	// FuzzyWeight and SemanticWeight blend the two scores into the
	// combined score.
	FuzzyWeight    float64
	SemanticWeight float64
	// PriorityBonus is added once per set waste/markdown flag on the
	// matched product.
	PriorityBonus float64
	// StoreTimeout bounds the matching loop per store; zero disables it.
	StoreTimeout time.Duration
}

// DefaultConfig returns the default matcher configuration.
func DefaultConfig() Config {
	return Config{
		FuzzyThreshold:    60,
		StrictThreshold:   90,
		SemanticThreshold: 0.85,
		SemanticTopN:      5,
		FuzzyWeight:       0.6,
		SemanticWeight:    0.4,
		PriorityBonus:     5,
	}
}

// Pair is one accepted (ingredient, product) match together with the
// per-strategy scores that produced it. Combined may exceed 100 once the
// priority bonus is applied; Match.Score never does.
type Pair struct {
	Match     model.Match
	Fuzzy     float64
	Semantic  float64 // raw cosine, not scaled
	Combined  float64
	Alternate bool // fuzzy fell below the strict bound
}

// StoreRecipeResult is the matcher output for one (store, recipe) pair.
type StoreRecipeResult struct {
	StoreID   int64
	Recipe    model.Recipe
	Pairs     []Pair
	Unmatched []model.UnmatchedIngredient
}

// Matcher matches recipe ingredients against store catalogs.
type Matcher struct {
	embeddings *embedding.Store
	config     Config
}

// New creates a matcher with the given embedding store and configuration.
func New(embeddings *embedding.Store, config Config) *Matcher {
	return &Matcher{embeddings: embeddings, config: config}
}

// MatchStore matches every ingredient of a recipe against one store's
// catalog. Products indexed by concept are tried first; only ingredients
// without an exact hit pay for the full fuzzy/semantic scan. Unmatched
// ingredients are recorded, never dropped.
func (m *Matcher) MatchStore(ctx context.Context, store model.Store, recipe model.Recipe) (StoreRecipeResult, error) {
	if m.config.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.StoreTimeout)
		defer cancel()
	}

	result := StoreRecipeResult{StoreID: store.ID, Recipe: recipe}
	index := store.ConceptIndex()

	for _, ingredient := range recipe.Ingredients {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if !ingredient.Resolved() {
			result.Unmatched = append(result.Unmatched, model.UnmatchedIngredient{
				StoreID:    store.ID,
				RecipeName: recipe.Name,
				Raw:        ingredient.Raw,
				Reason:     "unresolved concept",
			})
			continue
		}

		if pair, ok := m.exactMatch(store.ID, recipe.Name, ingredient, index); ok {
			result.Pairs = append(result.Pairs, pair)
			continue
		}

		if pair, ok := m.approximateMatch(store.ID, recipe.Name, ingredient, store.Products); ok {
			result.Pairs = append(result.Pairs, pair)
			continue
		}

		result.Unmatched = append(result.Unmatched, model.UnmatchedIngredient{
			StoreID:    store.ID,
			RecipeName: recipe.Name,
			Raw:        ingredient.Raw,
			Concept:    ingredient.Concept,
			Reason:     "no candidate above threshold",
		})
	}

	if len(result.Unmatched) > 0 {
		slog.Debug("Recipe has unmatched ingredients",
			"store_id", store.ID,
			"recipe", recipe.Name,
			"unmatched", len(result.Unmatched))
	}

	return result, nil
}

// exactMatch resolves an ingredient against the store's concept index.
// Among products sharing the concept the lowest product id wins; the
// tie-break is arbitrary but deterministic.
func (m *Matcher) exactMatch(storeID int64, recipeName string, ingredient model.Ingredient, index map[model.Concept][]model.Product) (Pair, bool) {
	products, ok := index[ingredient.Concept]
	if !ok || len(products) == 0 {
		return Pair{}, false
	}

	chosen := products[0]
	for _, p := range products[1:] {
		if p.ID < chosen.ID {
			chosen = p
		}
	}

	match := model.Match{
		StoreID:           storeID,
		RecipeName:        recipeName,
		IngredientConcept: ingredient.Concept,
		Product:           chosen,
		Type:              model.MatchExact,
		Score:             100,
	}

	return Pair{
		Match:    match,
		Fuzzy:    100,
		Semantic: 1.0,
		Combined: m.combined(100, 1.0, chosen),
	}, true
}

// approximateMatch scans the catalog with the fuzzy and semantic strategies
// and keeps the single best candidate per ingredient.
func (m *Matcher) approximateMatch(storeID int64, recipeName string, ingredient model.Ingredient, products []model.Product) (Pair, bool) {
	target := string(ingredient.Concept)
	targetVec := m.embeddings.Get(ontology.Normalize(target))

	var best *Pair
	for _, product := range products {
		name := string(product.Concept)
		if name == "" {
			name = ontology.Normalize(product.Name)
		}

		fuzzy := TokenSetRatio(target, name)
		cosine := embedding.Cosine(targetVec, m.embeddings.Get(name))

		if fuzzy < m.config.FuzzyThreshold && cosine < m.config.SemanticThreshold {
			continue
		}

		matchType := model.MatchFuzzy
		score := fuzzy
		if fuzzy < m.config.FuzzyThreshold {
			matchType = model.MatchSemantic
			score = cosine * 100
		}

		pair := Pair{
			Match: model.Match{
				StoreID:           storeID,
				RecipeName:        recipeName,
				IngredientConcept: ingredient.Concept,
				Product:           product,
				Type:              matchType,
				Score:             score,
			},
			Fuzzy:     fuzzy,
			Semantic:  cosine,
			Combined:  m.combined(fuzzy, cosine, product),
			Alternate: fuzzy < m.config.StrictThreshold,
		}

		if best == nil || pair.Combined > best.Combined ||
			(pair.Combined == best.Combined && pair.Match.Product.ID < best.Match.Product.ID) {
			p := pair
			best = &p
		}
	}

	if best == nil {
		return Pair{}, false
	}
	return *best, true
}

// SemanticTopN returns the top-N products by embedding similarity for an
// ingredient concept, for audit and curation output.
func (m *Matcher) SemanticTopN(concept model.Concept, products []model.Product, n int) []Pair {
	if n <= 0 {
		n = m.config.SemanticTopN
	}
	targetVec := m.embeddings.Get(ontology.Normalize(string(concept)))

	pairs := make([]Pair, 0, len(products))
	for _, product := range products {
		name := string(product.Concept)
		if name == "" {
			name = ontology.Normalize(product.Name)
		}
		cosine := embedding.Cosine(targetVec, m.embeddings.Get(name))
		pairs = append(pairs, Pair{
			Match: model.Match{
				StoreID:           product.StoreID,
				IngredientConcept: concept,
				Product:           product,
				Type:              model.MatchSemantic,
				Score:             cosine * 100,
			},
			Semantic: cosine,
		})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Semantic != pairs[j].Semantic {
			return pairs[i].Semantic > pairs[j].Semantic
		}
		return pairs[i].Match.Product.ID < pairs[j].Match.Product.ID
	})

	if n > len(pairs) {
		n = len(pairs)
	}
	return pairs[:n]
}

// combined blends the fuzzy and semantic scores and applies the priority
// bonus once per set waste/markdown flag.
func (m *Matcher) combined(fuzzy, cosine float64, product model.Product) float64 {
	score := m.config.FuzzyWeight*fuzzy + m.config.SemanticWeight*(100*cosine)
	if product.WasteFlag {
		score += m.config.PriorityBonus
	}
	if product.MarkdownFlag {
		score += m.config.PriorityBonus
	}
	return score
}
