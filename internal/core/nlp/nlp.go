// Package nlp defines the text-analysis capabilities used by the pipeline and
// their default implementations.
//
// Capabilities are constructed once by the caller and injected into each
// stage. The defaults are:
//   - Tokenizing, sentence splitting and Penn Treebank tagging via prose
//   - Dictionary lemmatization with WordNet-style POS rules via golem
//   - Numeric entity recognition (CARDINAL, MONEY, PERCENT) over tagged tokens
//   - Language identification via lingua, with a script/stopword heuristic
//   - VADER sentence polarity via govader
package nlp

import (
	"fmt"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
)

// WordNetPOS is the coarse part-of-speech category used by the lemmatizer.
type WordNetPOS string

// WordNet categories.
const (
	POSNoun      WordNetPOS = "n"
	POSVerb      WordNetPOS = "v"
	POSAdjective WordNetPOS = "a"
	POSAdverb    WordNetPOS = "r"
)

// TaggedToken is a token with its Penn Treebank tag.
type TaggedToken struct {
	Text string
	Tag  string
}

// Polarity holds VADER-style scores for one sentence.
type Polarity struct {
	Negative float64
	Neutral  float64
	Positive float64
	Compound float64
}

// Tagger tokenizes text and assigns Penn Treebank tags.
type Tagger interface {
	Tag(text string) []TaggedToken
}

// SentenceSplitter splits text into sentences.
type SentenceSplitter interface {
	Sentences(text string) []string
}

// Lemmatizer maps a lowercase token to its lemma for a POS category.
type Lemmatizer interface {
	Lemmatize(word string, pos WordNetPOS) string
}

// EntityRecognizer extracts named entities with their owning sentence.
type EntityRecognizer interface {
	Entities(text string) []domain.Entity
}

// LanguageIdentifier returns an ISO 639-1 code for text or ErrLanguageDetection.
type LanguageIdentifier interface {
	Detect(text string) (string, error)
}

// SentimentAnalyzer scores one sentence.
type SentimentAnalyzer interface {
	PolarityScores(sentence string) Polarity
}

// Toolkit bundles the capabilities a pipeline run needs.
type Toolkit struct {
	Tagger     Tagger
	Splitter   SentenceSplitter
	Lemmatizer Lemmatizer
	Entities   EntityRecognizer
	Language   LanguageIdentifier
	Sentiment  SentimentAnalyzer
}

// NewToolkit builds the default capabilities. Model and dictionary loading
// happens here once.
func NewToolkit() (*Toolkit, error) {
	text := NewProse()

	lemmatizer, err := NewDictionaryLemmatizer()
	if err != nil {
		return nil, fmt.Errorf("load lemmatizer: %w", err)
	}

	return &Toolkit{
		Tagger:     text,
		Splitter:   text,
		Lemmatizer: lemmatizer,
		Entities:   NewNumericRecognizer(text, text),
		Language:   NewLinguaIdentifier(),
		Sentiment:  NewVader(),
	}, nil
}
