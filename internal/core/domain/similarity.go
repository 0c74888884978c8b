package domain

import (
	"math"
	"sort"
)

// CosineSimilarity returns the cosine similarity of a and b clamped to [0,1].
// Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return ClampSimilarity(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// ClampSimilarity bounds a raw similarity to [0,1].
func ClampSimilarity(s float64) float64 {
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

// ClampThreshold bounds a similarity threshold to [-1,1]. A negative
// threshold admits every scored hit, including those at similarity 0.
func ClampThreshold(t float64) float64 {
	switch {
	case math.IsNaN(t):
		return 0
	case t < -1:
		return -1
	case t > 1:
		return 1
	default:
		return t
	}
}

// RankScored keeps hits strictly above threshold, orders them by descending
// similarity (stable, so equal scores keep their input order) and truncates to
// limit. A non-positive limit keeps every hit.
func RankScored(hits []ScoredPlaybook, threshold float64, limit int) []ScoredPlaybook {
	ranked := make([]ScoredPlaybook, 0, len(hits))
	for _, h := range hits {
		if h.Similarity > threshold {
			ranked = append(ranked, h)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
