// Package normalize turns article bodies into lemmatized content tokens.
package normalize

import (
	"strings"
	"unicode"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
	"github.com/lueurxax/news-impact-pipeline/internal/core/nlp"
)

// pennToWordNet maps the first letter of a Penn Treebank tag to a WordNet
// part of speech.
var pennToWordNet = map[byte]nlp.WordNetPOS{
	'J': nlp.POSAdjective,
	'N': nlp.POSNoun,
	'R': nlp.POSAdverb,
	'V': nlp.POSVerb,
}

var wordNetPOS = []nlp.WordNetPOS{nlp.POSNoun, nlp.POSVerb, nlp.POSAdjective, nlp.POSAdverb}

// maxSettleRounds bounds the fixed-point search in settle.
const maxSettleRounds = 4

// PennToWordNet maps a Penn Treebank tag to the WordNet POS used by the
// lemmatizer. Unknown tags map to noun.
func PennToWordNet(tag string) nlp.WordNetPOS {
	if tag == "" {
		return nlp.POSNoun
	}

	if pos, ok := pennToWordNet[tag[0]]; ok {
		return pos
	}

	return nlp.POSNoun
}

// Normalizer lowercases, tags, filters and lemmatizes text.
type Normalizer struct {
	tagger     nlp.Tagger
	lemmatizer nlp.Lemmatizer
}

func New(tagger nlp.Tagger, lemmatizer nlp.Lemmatizer) *Normalizer {
	return &Normalizer{tagger: tagger, lemmatizer: lemmatizer}
}

// Normalize keeps purely alphabetic, non-stopword tokens and replaces each
// with its lemma for the tagged part of speech. Lemmas are then settled so
// that normalizing the output again yields the same tokens.
func (n *Normalizer) Normalize(text string) domain.NormalizedText {
	text = strings.ToLower(text)
	if strings.TrimSpace(text) == "" {
		return domain.NormalizedText{}
	}

	tagged := n.tagger.Tag(text)
	tokens := make([]string, 0, len(tagged))

	for _, tok := range tagged {
		if !isAlpha(tok.Text) || nlp.IsStopword(tok.Text) {
			continue
		}

		lemma := n.lemmatizer.Lemmatize(tok.Text, PennToWordNet(tok.Tag))
		if lemma == "" {
			lemma = tok.Text
		}

		lemma = n.settle(lemma)
		if nlp.IsStopword(lemma) {
			continue
		}

		tokens = append(tokens, lemma)
	}

	return domain.NormalizedText{Tokens: tokens}
}

// settle lemmatizes word under every part of speech until it maps to itself.
// A retagged token ("flooding" as NN, then VBG) then keeps its form.
func (n *Normalizer) settle(word string) string {
	for range maxSettleRounds {
		next := word

		for _, pos := range wordNetPOS {
			if lemma := n.lemmatizer.Lemmatize(next, pos); lemma != "" {
				next = lemma
			}
		}

		if next == word {
			return word
		}

		word = next
	}

	return word
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
