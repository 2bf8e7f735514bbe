// Package index provides vector index implementations: an embedded
// persistent store backed by chromem-go and an in-memory store.
//
// Score convention, shared by every implementation: cosine similarity in
// [-1, 1], where 1.0 is a self-match. The near-duplicate threshold and all
// query score thresholds are on this scale.
package index

import (
	"math"
)

// cosineSimilarity computes the cosine similarity of two equal-length
// vectors. Zero-magnitude vectors yield 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
