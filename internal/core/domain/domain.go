package domain

import (
	"strings"
	"time"
)

// Article represents a news article moving through the pipeline.
// URL is the identity; later stages only append derived fields.
type Article struct {
	URL       string
	Title     string
	Date      *time.Time
	Source    string
	Text      string
	Keywords  []string
	Language  string
	IsEnglish bool
}

// DateString formats the publish date the way the raw dataset stores it.
// A missing date is written as "None".
func (a Article) DateString() string {
	if a.Date == nil {
		return DateMissing
	}

	return a.Date.Format(DateLayout)
}

const (
	// DateLayout is the publish date layout written to the raw dataset.
	DateLayout = "2006-01-02 15:04:05-07:00"

	// DateMissing marks an article without a known publish date.
	DateMissing = "None"
)

// NormalizedText is the lemmatized content-token sequence of an article body.
type NormalizedText struct {
	Tokens []string
}

// String joins the tokens with single spaces.
func (n NormalizedText) String() string {
	return strings.Join(n.Tokens, " ")
}

// Empty reports whether no tokens survived normalization.
func (n NormalizedText) Empty() bool {
	return len(n.Tokens) == 0
}

// SentimentProfile is the per-article mean of sentence-level sentiment scores.
// Intensities are in [0,1] and need not sum to 1; Polarity is in [-1,1].
type SentimentProfile struct {
	Negative  float64
	Neutral   float64
	Positive  float64
	Polarity  float64
	Sentences int
}

// ImpactScore is the fused severity score of one article.
type ImpactScore struct {
	Title              string
	Source             string
	Negative           float64
	Neutral            float64
	Positive           float64
	Polarity           float64
	DamageFrequency    int
	NormalizedPolarity float64
	NormalizedDamage   float64
	Score              float64
}
