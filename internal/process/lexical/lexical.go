// Package lexical computes vocabulary and readability metrics of article bodies.
package lexical

import (
	"strings"
	"unicode"

	"github.com/lueurxax/news-impact-pipeline/internal/core/nlp"
)

// DefaultWindow is the MSTTR segment length in tokens.
const DefaultWindow = 100

// Metrics describes one article body. Ratios are percentages.
type Metrics struct {
	TTR               float64
	MSTTR             float64
	LexicalDensity    float64
	WordCount         int
	SentenceCount     int
	AvgSentenceLength float64
}

// Analyzer computes Metrics.
type Analyzer struct {
	tagger   nlp.Tagger
	splitter nlp.SentenceSplitter
	window   int
}

func NewAnalyzer(tagger nlp.Tagger, splitter nlp.SentenceSplitter, window int) *Analyzer {
	if window <= 0 {
		window = DefaultWindow
	}

	return &Analyzer{tagger: tagger, splitter: splitter, window: window}
}

// Analyze returns the metrics of text. Empty text yields zero metrics.
func (a *Analyzer) Analyze(text string) Metrics {
	var (
		words   []string
		content int
	)

	for _, tok := range a.tagger.Tag(strings.ToLower(text)) {
		if !isAlpha(tok.Text) {
			continue
		}

		words = append(words, tok.Text)

		if isContentTag(tok.Tag) {
			content++
		}
	}

	if len(words) == 0 {
		return Metrics{}
	}

	sentences := 0

	for _, s := range a.splitter.Sentences(text) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}

	m := Metrics{
		TTR:            TTR(words),
		MSTTR:          MSTTR(words, a.window),
		LexicalDensity: float64(content) / float64(len(words)) * 100,
		WordCount:      len(words),
		SentenceCount:  sentences,
	}

	if sentences > 0 {
		m.AvgSentenceLength = float64(len(words)) / float64(sentences)
	}

	return m
}

// TTR is the type-token ratio of words as a percentage.
func TTR(words []string) float64 {
	if len(words) == 0 {
		return 0
	}

	types := make(map[string]struct{}, len(words))
	for _, w := range words {
		types[w] = struct{}{}
	}

	return float64(len(types)) / float64(len(words)) * 100
}

// MSTTR averages TTR over consecutive full windows. Texts shorter than one
// window fall back to TTR.
func MSTTR(words []string, window int) float64 {
	if window <= 0 || len(words) < window {
		return TTR(words)
	}

	var (
		sum      float64
		segments int
	)

	for start := 0; start+window <= len(words); start += window {
		sum += TTR(words[start : start+window])
		segments++
	}

	return sum / float64(segments)
}

// isContentTag reports whether a Penn tag is a noun, verb, adjective or adverb.
func isContentTag(tag string) bool {
	if tag == "" {
		return false
	}

	switch tag[0] {
	case 'N', 'V', 'J', 'R':
		// RP is a particle, not an adverb.
		return tag != "RP"
	default:
		return false
	}
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}

	return true
}
