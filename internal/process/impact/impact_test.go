package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
	pipelineerrors "github.com/lueurxax/news-impact-pipeline/internal/core/errors"
)

func TestScore(t *testing.T) {
	s := NewScorer(0)

	tests := []struct {
		name    string
		profile domain.SentimentProfile
		freq    int
		want    float64
	}{
		{name: "zero inputs", want: 1.0 / 6},
		{name: "most negative saturated", profile: domain.SentimentProfile{Polarity: -1, Negative: 1}, freq: 20, want: 2.0 / 3},
		{name: "cap applies", profile: domain.SentimentProfile{Polarity: 1}, freq: 45, want: 2.0 / 3},
		{name: "half damage", profile: domain.SentimentProfile{Polarity: -0.5, Negative: 0.3}, freq: 10, want: (0.25 + 0.5 + 0.3) / 3},
		{name: "out of range inputs are clamped", profile: domain.SentimentProfile{Polarity: 3, Negative: -2}, freq: -4, want: 1.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score("title", "source", tt.profile, tt.freq)

			assert.InDelta(t, tt.want, got.Score, 1e-9)
			assert.GreaterOrEqual(t, got.Score, 0.0)
			assert.LessOrEqual(t, got.Score, 1.0)
			assert.Equal(t, tt.freq, got.DamageFrequency)
		})
	}
}

func TestScoreCustomCap(t *testing.T) {
	got := NewScorer(4).Score("t", "s", domain.SentimentProfile{}, 2)

	assert.InDelta(t, 0.5, got.NormalizedDamage, 1e-9)
	assert.InDelta(t, 0.5, got.NormalizedPolarity, 1e-9)
}

func TestRankIsStableAndAscending(t *testing.T) {
	in := []domain.ImpactScore{
		{Title: "a", Score: 0.5, Polarity: -0.2},
		{Title: "b", Score: 0.2, Polarity: 0.4},
		{Title: "c", Score: 0.5, Polarity: -0.9},
		{Title: "d", Score: 0.1, Polarity: 0.4},
	}

	byImpact := Rank(in, SortImpact)
	assert.Equal(t, []string{"d", "b", "a", "c"}, titles(byImpact))

	byPolarity := Rank(in, SortPolarity)
	assert.Equal(t, []string{"c", "a", "b", "d"}, titles(byPolarity))

	assert.Equal(t, []string{"a", "b", "c", "d"}, titles(in), "input must not be reordered")
	assert.Empty(t, Rank(nil, SortImpact))
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortImpact, k)

	k, err = ParseSortKey("sentiment_polarity")
	require.NoError(t, err)
	assert.Equal(t, SortPolarity, k)

	_, err = ParseSortKey("title")
	assert.ErrorIs(t, err, pipelineerrors.ErrInvalidInput)
}

func titles(scores []domain.ImpactScore) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.Title
	}

	return out
}
