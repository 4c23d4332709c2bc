// Package embedding provides precomputed sentence-embedding vectors and the
// cosine similarity used by the semantic matching strategy. The matcher never
// computes embeddings itself; vectors are batch-loaded inputs.
package embedding

import (
	"encoding/json"
	"math"
	"strings"
)

// Vector is a dense embedding vector.
type Vector []float64

// IsZero reports whether every component is zero. Zero vectors are the
// fallback for malformed or missing embedding data; they score 0 against
// everything.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Cosine returns the cosine similarity of two vectors. Length mismatches and
// zero-norm vectors yield 0 rather than an error so semantic scoring degrades
// instead of crashing the batch.
func Cosine(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Parse decodes a serialized vector. It accepts a JSON array ("[0.1, 0.2]")
// with or without surrounding whitespace. Malformed input returns a zero
// vector of the requested dimension and false.
func Parse(raw string, dim int) (Vector, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return make(Vector, dim), false
	}

	var v Vector
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return make(Vector, dim), false
	}
	if dim > 0 && len(v) != dim {
		return make(Vector, dim), false
	}

	return v, true
}
