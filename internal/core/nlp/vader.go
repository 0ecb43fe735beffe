package nlp

import "github.com/jonreiter/govader"

// Vader scores sentences with the VADER lexicon and rules.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVader loads the VADER lexicon.
func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// PolarityScores returns neg/neu/pos intensities and the compound score.
func (v *Vader) PolarityScores(sentence string) Polarity {
	s := v.analyzer.PolarityScores(sentence)

	return Polarity{
		Negative: s.Negative,
		Neutral:  s.Neutral,
		Positive: s.Positive,
		Compound: s.Compound,
	}
}
