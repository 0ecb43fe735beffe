package sentiment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
	"github.com/lueurxax/news-impact-pipeline/internal/core/nlp"
)

type periodSplitter struct{}

func (periodSplitter) Sentences(text string) []string {
	var out []string

	for _, s := range strings.Split(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}

type tableAnalyzer map[string]nlp.Polarity

func (t tableAnalyzer) PolarityScores(sentence string) nlp.Polarity { return t[sentence] }

func TestScoreAverages(t *testing.T) {
	s := NewScorer(periodSplitter{}, tableAnalyzer{
		"bad":  {Negative: 0.6, Neutral: 0.4, Compound: -0.8},
		"ok":   {Neutral: 1},
		"good": {Positive: 0.5, Neutral: 0.5, Compound: 0.5},
	})

	got := s.Score("bad. ok. good.")

	assert.Equal(t, 3, got.Sentences)
	assert.InDelta(t, 0.2, got.Negative, 1e-9)
	assert.InDelta(t, 1.9/3, got.Neutral, 1e-9)
	assert.InDelta(t, 0.5/3, got.Positive, 1e-9)
	assert.InDelta(t, -0.1, got.Polarity, 1e-9)
}

func TestScoreEmpty(t *testing.T) {
	s := NewScorer(periodSplitter{}, tableAnalyzer{})

	assert.Equal(t, domain.SentimentProfile{}, s.Score(""))
	assert.Equal(t, domain.SentimentProfile{}, s.Score(" . . "))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		compound float64
		want     Label
	}{
		{compound: 0.05, want: LabelPositive},
		{compound: 0.9, want: LabelPositive},
		{compound: 0.0499, want: LabelNeutral},
		{compound: -0.0499, want: LabelNeutral},
		{compound: -0.05, want: LabelNegative},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.compound), "compound %v", tt.compound)
	}
}

func TestScoreWithVader(t *testing.T) {
	p := nlp.NewProse()
	s := NewScorer(p, nlp.NewVader())

	got := s.Score("The hurricane killed dozens of people. Homes were destroyed and families lost everything.")

	assert.Equal(t, 2, got.Sentences)
	assert.Less(t, got.Polarity, 0.0)
	assert.Greater(t, got.Negative, got.Positive)
	assert.Equal(t, LabelNegative, Classify(got.Polarity))
}
