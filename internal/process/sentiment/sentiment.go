// Package sentiment aggregates sentence-level polarity scores into an
// article sentiment profile.
package sentiment

import (
	"strings"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
	"github.com/lueurxax/news-impact-pipeline/internal/core/nlp"
)

// Compound thresholds used by Classify.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Label is a coarse sentiment class.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
)

// Classify buckets a compound score.
func Classify(compound float64) Label {
	switch {
	case compound >= PositiveThreshold:
		return LabelPositive
	case compound <= NegativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// Scorer computes sentiment profiles.
type Scorer struct {
	splitter nlp.SentenceSplitter
	analyzer nlp.SentimentAnalyzer
}

func NewScorer(splitter nlp.SentenceSplitter, analyzer nlp.SentimentAnalyzer) *Scorer {
	return &Scorer{splitter: splitter, analyzer: analyzer}
}

// Score splits text into sentences and averages their negative, neutral,
// positive and compound scores. Text without sentences yields a zero
// profile with Sentences == 0.
func (s *Scorer) Score(text string) domain.SentimentProfile {
	var (
		profile domain.SentimentProfile
		n       int
	)

	for _, sentence := range s.splitter.Sentences(text) {
		if strings.TrimSpace(sentence) == "" {
			continue
		}

		p := s.analyzer.PolarityScores(sentence)
		profile.Negative += p.Negative
		profile.Neutral += p.Neutral
		profile.Positive += p.Positive
		profile.Polarity += p.Compound
		n++
	}

	if n == 0 {
		return domain.SentimentProfile{}
	}

	f := float64(n)

	return domain.SentimentProfile{
		Negative:  profile.Negative / f,
		Neutral:   profile.Neutral / f,
		Positive:  profile.Positive / f,
		Polarity:  profile.Polarity / f,
		Sentences: n,
	}
}
