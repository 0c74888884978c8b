package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite clamps to zero", []float32{1, 0}, []float32{-1, 0}, 0},
		{"45 degrees", []float32{1, 0}, []float32{1, 1}, 0.7071067811865475},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestRankScored(t *testing.T) {
	hits := []ScoredPlaybook{
		{Playbook: Playbook{Title: "a"}, Similarity: 0.72},
		{Playbook: Playbook{Title: "b"}, Similarity: 0.95},
		{Playbook: Playbook{Title: "c"}, Similarity: 0.70},
		{Playbook: Playbook{Title: "d"}, Similarity: 0.88},
		{Playbook: Playbook{Title: "e"}, Similarity: 0.88},
	}

	ranked := RankScored(hits, 0.7, 0)

	var titles []string
	for _, r := range ranked {
		titles = append(titles, r.Playbook.Title)
	}
	assert.Equal(t, []string{"b", "d", "e", "a"}, titles, "0.70 is not strictly above 0.7")

	assert.Len(t, RankScored(hits, 0.7, 2), 2)
	assert.Empty(t, RankScored(hits, 0.99, 5))
}
