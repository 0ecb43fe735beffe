package nlp

import (
	"strings"

	"github.com/jdkato/prose/v2"
)

// Prose tokenizes, segments and tags English text with the prose models.
type Prose struct{}

// NewProse creates a prose-backed tagger and sentence splitter.
func NewProse() *Prose {
	return &Prose{}
}

// Tag tokenizes text and returns Penn Treebank tagged tokens.
// Text that fails to parse yields no tokens.
func (p *Prose) Tag(text string) []TaggedToken {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil
	}

	tokens := doc.Tokens()
	out := make([]TaggedToken, 0, len(tokens))

	for _, tok := range tokens {
		out = append(out, TaggedToken{Text: tok.Text, Tag: tok.Tag})
	}

	return out
}

// Sentences splits text into trimmed, non-empty sentences.
func (p *Prose) Sentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil
	}

	var out []string

	for _, sent := range doc.Sentences() {
		s := strings.TrimSpace(sent.Text)
		if s != "" {
			out = append(out, s)
		}
	}

	return out
}
