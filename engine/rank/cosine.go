// Package rank holds the pure scoring routines: cosine similarity, the
// deterministic seniority boost, and match-quality classification.
package rank

import (
	"errors"
	"math"
)

// ErrDimensionMismatch signals that two vectors cannot be compared.
// Callers treat it as "skip this candidate", never as a query failure.
var ErrDimensionMismatch = errors.New("rank: vector dimension mismatch")

// Cosine returns the cosine similarity of a and b in [-1, 1].
// A zero-norm vector yields similarity 0 rather than NaN.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Guard against float drift pushing |sim| past 1.
	return math.Max(-1, math.Min(1, sim)), nil
}
