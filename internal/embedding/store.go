package embedding

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Store holds precomputed embedding vectors keyed by term. Lookups for
// unknown terms return a zero vector so downstream similarity degrades to 0
// instead of failing.
type Store struct {
	vectors map[string]Vector
	dim     int
}

// NewStore creates an empty store for vectors of the given dimension.
func NewStore(dim int) *Store {
	return &Store{
		vectors: make(map[string]Vector),
		dim:     dim,
	}
}

// Dim returns the vector dimension the store was created with.
func (s *Store) Dim() int {
	return s.dim
}

// Put registers a vector for a term. Vectors of the wrong dimension are
// replaced by the zero vector and logged, matching the pipeline's
// degrade-dont-crash policy for malformed embedding data.
func (s *Store) Put(term string, v Vector) {
	if len(v) != s.dim {
		slog.Warn("Embedding has wrong dimension, substituting zero vector",
			"term", term,
			"got", len(v),
			"want", s.dim)
		v = make(Vector, s.dim)
	}
	s.vectors[term] = v
}

// Get returns the vector for a term, or a zero vector if none is known.
func (s *Store) Get(term string) Vector {
	if v, ok := s.vectors[term]; ok {
		return v
	}
	return make(Vector, s.dim)
}

// Has reports whether a non-fallback vector exists for the term.
func (s *Store) Has(term string) bool {
	_, ok := s.vectors[term]
	return ok
}

// Terms returns all terms with registered vectors.
func (s *Store) Terms() []string {
	terms := make([]string, 0, len(s.vectors))
	for t := range s.vectors {
		terms = append(terms, t)
	}
	return terms
}

// Similarity returns the cosine similarity between two terms' vectors.
func (s *Store) Similarity(a, b string) float64 {
	return Cosine(s.Get(a), s.Get(b))
}

// LoadJSON reads a term->vector map from a JSON file. Vectors may be plain
// arrays or string-encoded arrays, which some export tools emit. Entries with
// the wrong dimension are kept as zero vectors; the batch never fails on
// individual malformed rows.
func LoadJSON(path string, dim int) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read embeddings file: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse embeddings file: %w", err)
	}

	store := NewStore(dim)
	malformed := 0
	for term, msg := range raw {
		vec, ok := decodeVector(msg, dim)
		if !ok {
			malformed++
		}
		store.Put(term, vec)
	}

	if malformed > 0 {
		slog.Warn("Loaded embeddings with malformed entries",
			"path", path,
			"total", len(raw),
			"malformed", malformed)
	}

	return store, nil
}

// decodeVector accepts either a JSON array or a string holding one.
func decodeVector(msg json.RawMessage, dim int) (Vector, bool) {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return Parse(s, dim)
	}
	return Parse(string(msg), dim)
}
