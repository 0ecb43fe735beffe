package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
	pipelineerrors "github.com/lueurxax/news-impact-pipeline/internal/core/errors"
	"github.com/lueurxax/news-impact-pipeline/internal/core/nlp"
	"github.com/lueurxax/news-impact-pipeline/internal/process/impact"
	"github.com/lueurxax/news-impact-pipeline/internal/storage/dataset"
)

// fakeText implements the text capabilities over whitespace tokens and
// period-separated sentences.
type fakeText struct{}

func (fakeText) Tag(text string) []nlp.TaggedToken {
	var out []nlp.TaggedToken

	for _, f := range strings.Fields(text) {
		tag := "NN"
		if unicode.IsDigit([]rune(f)[0]) {
			tag = "CD"
		}

		out = append(out, nlp.TaggedToken{Text: strings.Trim(f, "."), Tag: tag})
	}

	return out
}

func (fakeText) Sentences(text string) []string {
	var out []string

	for _, s := range strings.Split(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s+".")
		}
	}

	return out
}

func (fakeText) Lemmatize(word string, _ nlp.WordNetPOS) string {
	return strings.TrimSuffix(word, "s")
}

func (f fakeText) Entities(text string) []domain.Entity {
	var out []domain.Entity

	for _, s := range f.Sentences(text) {
		for _, tok := range f.Tag(s) {
			if tok.Tag == "CD" {
				out = append(out, domain.Entity{Label: domain.LabelCardinal, Text: tok.Text, Sentence: s})
			}
		}
	}

	return out
}

func (fakeText) Detect(text string) (string, error) {
	if strings.HasPrefix(text, "fr:") {
		return "fr", nil
	}

	return nlp.LangEnglish, nil
}

func (fakeText) PolarityScores(sentence string) nlp.Polarity {
	if strings.Contains(sentence, "died") {
		return nlp.Polarity{Negative: 0.5, Neutral: 0.5, Compound: -0.5}
	}

	return nlp.Polarity{Neutral: 1}
}

func fakeToolkit() *nlp.Toolkit {
	f := fakeText{}

	return &nlp.Toolkit{Tagger: f, Splitter: f, Lemmatizer: f, Entities: f, Language: f, Sentiment: f}
}

type recordingSink struct {
	runID  string
	scores []domain.ImpactScore
}

func (r *recordingSink) SaveScores(_ context.Context, runID string, scores []domain.ImpactScore) error {
	r.runID = runID
	r.scores = scores

	return nil
}

func newTestPipeline(sink ScoreSink) *Pipeline {
	logger := zerolog.Nop()
	return New(fakeToolkit(), Options{Sink: sink}, &logger)
}

func writeRaw(t *testing.T, path string, rows [][]string) {
	t.Helper()
	require.NoError(t, dataset.Rewrite(path, dataset.RawSchema, rows))
}

func TestStagesEndToEnd(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "articles.csv")
	filtered := filepath.Join(dir, "filtered_articles.csv")
	cleaned := filepath.Join(dir, "cleaned_data.csv")
	scored := filepath.Join(dir, "scored_articles.csv")

	writeRaw(t, raw, [][]string{
		{"Storm", "None", "https://a.example", "The storm hit homes. 19 people died."},
		{"Storm", "None", "https://a.example", "The storm hit homes. 19 people died."},
		{"Calm", "2025-10-28 14:30:00+00:00", "https://b.example", "Skies cleared."},
		{"Tempête", "None", "https://c.example", "fr: la tempête."},
	})

	sink := &recordingSink{}
	p := newTestPipeline(sink)
	ctx := context.Background()

	report, err := p.RunFilter(ctx, raw, filtered)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Retained)
	assert.Equal(t, 1, report.DuplicateRemoved)
	assert.Equal(t, 1, report.NonEnglish)

	tbl, err := dataset.Read(filtered, dataset.ColIsEnglish)
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "date", "source", "article_text", "is_english"}, tbl.Header)
	assert.Equal(t, "2025-10-28 14:30:00+00:00", tbl.Get(tbl.Rows[1], dataset.ColDate))
	assert.Equal(t, "True", tbl.Get(tbl.Rows[1], dataset.ColIsEnglish))

	n, err := p.RunNormalize(ctx, filtered, cleaned)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tbl, err = dataset.Read(cleaned, dataset.ColCleanText)
	require.NoError(t, err)
	assert.Equal(t, "storm hit home people died", tbl.Get(tbl.Rows[0], dataset.ColCleanText))

	ranked, err := p.RunScore(ctx, "run-1", cleaned, scored)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Calm", ranked[0].Title, "ascending by impact score")
	assert.Equal(t, "Storm", ranked[1].Title)
	assert.Equal(t, 1, ranked[1].DamageFrequency)
	assert.InDelta(t, 1.0/6, ranked[0].Score, 1e-9)
	assert.InDelta(t, (0.375+0.05+0.25)/3, ranked[1].Score, 1e-9)

	assert.Equal(t, "run-1", sink.runID)
	assert.Len(t, sink.scores, 2)

	// a second run appends without repeating the header
	_, err = p.RunScore(ctx, "run-2", cleaned, scored)
	require.NoError(t, err)

	data, err := os.ReadFile(scored)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, strings.Join(dataset.ScoredSchema, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Calm,https://b.example,0,1,0,0,0,0.1666"))
}

func TestRunScoreRequiresColumns(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cleaned.csv")
	require.NoError(t, dataset.Rewrite(in, dataset.Schema{"title", "article_text"}, [][]string{{"t", "b"}}))

	_, err := newTestPipeline(nil).RunScore(context.Background(), "r", in, filepath.Join(dir, "out.csv"))
	assert.ErrorIs(t, err, pipelineerrors.ErrSchema)
}

func TestStagesRequireInputFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "articles.csv")
	out := filepath.Join(dir, "out.csv")
	p := newTestPipeline(nil)
	ctx := context.Background()

	_, err := p.RunFilter(ctx, missing, out)
	require.ErrorIs(t, err, pipelineerrors.ErrMissingDataset)

	_, err = p.RunNormalize(ctx, missing, out)
	require.ErrorIs(t, err, pipelineerrors.ErrMissingDataset)

	_, err = p.RunScore(ctx, "r", missing, out)
	require.ErrorIs(t, err, pipelineerrors.ErrMissingDataset)

	err = p.RunAnalyze(ctx, missing, out, filepath.Join(dir, "keywords.csv"))
	require.ErrorIs(t, err, pipelineerrors.ErrMissingDataset)

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "no output is written for a missing input")
}

func TestRunScoreEmptyBody(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "articles.csv")
	writeRaw(t, in, [][]string{{"Empty", "None", "https://a.example", ""}})

	ranked, err := newTestPipeline(nil).RunScore(context.Background(), "r", in, filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.InDelta(t, 1.0/6, ranked[0].Score, 1e-9)
}

func TestRunScoreSortByPolarity(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "articles.csv")
	writeRaw(t, in, [][]string{
		{"Calm", "None", "s", "Skies cleared."},
		{"Grim", "None", "s", "Two died."},
	})

	logger := zerolog.Nop()
	p := New(fakeToolkit(), Options{SortKey: impact.SortPolarity}, &logger)

	ranked, err := p.RunScore(context.Background(), "r", in, filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Grim", ranked[0].Title)
}

func TestRunAnalyze(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cleaned.csv")
	require.NoError(t, dataset.Rewrite(in, dataset.CleanedSchema, [][]string{
		{"Storm", "None", "s", "Storm hits. Storm floods.", "storm hit storm flood"},
		{"Rain", "None", "s", "Rain falls. Two died.", "rain fall"},
	}))

	metrics := filepath.Join(dir, "metrics.csv")
	kws := filepath.Join(dir, "keywords.csv")

	require.NoError(t, newTestPipeline(nil).RunAnalyze(context.Background(), in, metrics, kws))

	tbl, err := dataset.Read(metrics, dataset.MetricsSchema...)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "4", tbl.Get(tbl.Rows[0], "word_count"))
	assert.Equal(t, "2", tbl.Get(tbl.Rows[0], "sentence_count"))
	assert.Equal(t, "75", tbl.Get(tbl.Rows[0], "ttr"))
	assert.Equal(t, "neutral", tbl.Get(tbl.Rows[0], dataset.ColSentimentLabel))
	assert.Equal(t, "negative", tbl.Get(tbl.Rows[1], dataset.ColSentimentLabel))

	tbl, err = dataset.Read(kws, dataset.KeywordsSchema...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tbl.Get(tbl.Rows[0], "top_keywords"), "storm"))
	assert.Equal(t, "fall, rain", tbl.Get(tbl.Rows[1], "top_keywords"))
}

func TestRunFilterCancelled(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "articles.csv")
	writeRaw(t, in, [][]string{{"a", "None", "s", "b"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(nil).RunFilter(ctx, in, filepath.Join(dir, "out.csv"))
	assert.ErrorIs(t, err, context.Canceled)
}
