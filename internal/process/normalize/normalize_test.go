package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/news-impact-pipeline/internal/core/nlp"
)

func TestPennToWordNet(t *testing.T) {
	tests := []struct {
		tag  string
		want nlp.WordNetPOS
	}{
		{tag: "JJ", want: nlp.POSAdjective},
		{tag: "JJS", want: nlp.POSAdjective},
		{tag: "NNS", want: nlp.POSNoun},
		{tag: "RB", want: nlp.POSAdverb},
		{tag: "VBD", want: nlp.POSVerb},
		{tag: "CD", want: nlp.POSNoun},
		{tag: "", want: nlp.POSNoun},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, PennToWordNet(tt.tag))
		})
	}
}

// whitespaceTagger tags every token with the tag given in tags, NN otherwise.
type whitespaceTagger struct {
	tags map[string]string
}

func (w whitespaceTagger) Tag(text string) []nlp.TaggedToken {
	var out []nlp.TaggedToken

	for _, f := range strings.Fields(text) {
		tag, ok := w.tags[f]
		if !ok {
			tag = "NN"
		}

		out = append(out, nlp.TaggedToken{Text: f, Tag: tag})
	}

	return out
}

type mapLemmatizer map[string]string

func (m mapLemmatizer) Lemmatize(word string, pos nlp.WordNetPOS) string {
	if lemma, ok := m[word+"/"+string(pos)]; ok {
		return lemma
	}

	return word
}

func newFakeNormalizer() *Normalizer {
	return New(
		whitespaceTagger{tags: map[string]string{"destroyed": "VBD", "were": "VBD", "3": "CD"}},
		mapLemmatizer{"destroyed/v": "destroy", "homes/n": "home", "destroyed/n": "WRONG"},
	)
}

func TestNormalize(t *testing.T) {
	n := newFakeNormalizer()

	got := n.Normalize("The STORM destroyed 3 homes , homes were gone")

	assert.Equal(t, []string{"storm", "destroy", "home", "home", "gone"}, got.Tokens)
	assert.Equal(t, "storm destroy home home gone", got.String())
}

func TestNormalizeEmpty(t *testing.T) {
	n := newFakeNormalizer()

	for _, in := range []string{"", "   ", "the and of", "123 , ."} {
		got := n.Normalize(in)
		assert.True(t, got.Empty(), "input %q", in)
		assert.Equal(t, "", got.String())
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := newFakeNormalizer()

	once := n.Normalize("Storm destroyed homes in the west")
	twice := n.Normalize(once.String())

	assert.Equal(t, once.Tokens, twice.Tokens)
}

func TestNormalizeWithToolkit(t *testing.T) {
	lemmatizer, err := nlp.NewDictionaryLemmatizer()
	require.NoError(t, err)

	n := New(nlp.NewProse(), lemmatizer)

	once := n.Normalize("The floods destroyed homes and children were rescued.")
	assert.Equal(t, []string{"flood", "destroy", "home", "child", "rescue"}, once.Tokens)

	twice := n.Normalize(once.String())
	assert.Equal(t, once.Tokens, twice.Tokens)
}

// posLemmatizer strips "ing" only for verbs, the way a tagger that reads
// "flooding" as NN in one context and VBG in another would see it.
type posLemmatizer struct{}

func (posLemmatizer) Lemmatize(word string, pos nlp.WordNetPOS) string {
	if pos == nlp.POSVerb {
		return strings.TrimSuffix(word, "ing")
	}

	return word
}

func TestNormalizeSettlesAcrossTags(t *testing.T) {
	n := New(
		whitespaceTagger{tags: map[string]string{"flooding": "NN"}},
		posLemmatizer{},
	)

	once := n.Normalize("flooding closed roads")
	assert.Equal(t, []string{"flood", "closed", "roads"}, once.Tokens)

	retagged := New(whitespaceTagger{tags: map[string]string{"flood": "VB"}}, posLemmatizer{})
	assert.Equal(t, once.Tokens, retagged.Normalize(once.String()).Tokens)
}

func TestNormalizeWithToolkitIsIdempotent(t *testing.T) {
	lemmatizer, err := nlp.NewDictionaryLemmatizer()
	require.NoError(t, err)

	n := New(nlp.NewProse(), lemmatizer)

	text := "Hurricane Melissa made landfall in Jamaica on Tuesday with winds of 185 mph. " +
		"Flooding and landslides cut off villages across the country, and officials said " +
		"thousands were left without power. Rescuers were searching flooded homes on Wednesday " +
		"while the storm weakened over the mountains."

	once := n.Normalize(text)
	require.False(t, once.Empty())
	assert.Contains(t, once.Tokens, "country")

	twice := n.Normalize(once.String())
	assert.Equal(t, once.Tokens, twice.Tokens)

	thrice := n.Normalize(twice.String())
	assert.Equal(t, twice.Tokens, thrice.Tokens)
}
