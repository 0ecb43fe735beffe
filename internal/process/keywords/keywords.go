// Package keywords extracts per-article keywords used by the relevance test
// and corpus-level TF-IDF top terms used by the analyze stage.
package keywords

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/lueurxax/news-impact-pipeline/internal/core/nlp"
)

// ArticleTopN is the number of keywords taken from each of title and body.
const ArticleTopN = 10

// Tokens lowercases text and returns its alphabetic, non-stopword words.
func Tokens(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	out := make([]string, 0, len(words))

	for _, w := range words {
		w = strings.Trim(w, "'")
		if w == "" || nlp.IsStopword(w) {
			continue
		}

		out = append(out, w)
	}

	return out
}

// Top returns up to n most frequent tokens of text. Ties keep the order of
// first occurrence.
func Top(text string, n int) []string {
	if n <= 0 {
		return nil
	}

	tokens := Tokens(text)
	counts := make(map[string]int, len(tokens))
	order := make([]string, 0, len(tokens))

	for _, tok := range tokens {
		if counts[tok] == 0 {
			order = append(order, tok)
		}

		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}

	return order
}

// FromArticle returns the union of the top title and body keywords, title
// keywords first.
func FromArticle(title, text string) []string {
	seen := make(map[string]struct{})

	var out []string

	for _, kw := range append(Top(title, ArticleTopN), Top(text, ArticleTopN)...) {
		if _, ok := seen[kw]; ok {
			continue
		}

		seen[kw] = struct{}{}
		out = append(out, kw)
	}

	return out
}

// Term is a word with its TF-IDF weight within one document.
type Term struct {
	Word   string
	Weight float64
}

// TFIDF weights every document's terms against the corpus and returns, per
// document, up to topN terms with positive weight in descending order.
// It uses smoothed idf, ln((1+N)/(1+df))+1, and L2-normalized rows.
func TFIDF(docs []string, topN int) [][]Term {
	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)

	for i, doc := range docs {
		counts[i] = make(map[string]int)

		for _, tok := range Tokens(doc) {
			if counts[i][tok] == 0 {
				df[tok]++
			}

			counts[i][tok]++
		}
	}

	n := float64(len(docs))
	out := make([][]Term, len(docs))

	for i, tf := range counts {
		terms := make([]Term, 0, len(tf))

		var norm float64

		for word, c := range tf {
			idf := math.Log((1+n)/(1+float64(df[word]))) + 1
			w := float64(c) * idf
			norm += w * w
			terms = append(terms, Term{Word: word, Weight: w})
		}

		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range terms {
				terms[j].Weight /= norm
			}
		}

		sort.Slice(terms, func(a, b int) bool {
			if terms[a].Weight != terms[b].Weight {
				return terms[a].Weight > terms[b].Weight
			}

			return terms[a].Word < terms[b].Word
		})

		if len(terms) > topN {
			terms = terms[:topN]
		}

		out[i] = terms
	}

	return out
}

// Words returns the words of terms.
func Words(terms []Term) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.Word
	}

	return out
}
