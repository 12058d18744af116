// Package vector holds the similarity math used by the matcher.
package vector

import (
	"fmt"
	"math"
)

// Cosine returns the cosine similarity of a and b: dot(a,b) / (|a|*|b|).
// The result lies in [-1, 1]. A zero-norm vector scores 0 against anything.
// Vectors of different lengths belong to different embedding spaces and
// produce an error.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d vs %d", len(a), len(b))
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

	// Floating point can push the ratio a hair outside [-1, 1].
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim, nil
}
