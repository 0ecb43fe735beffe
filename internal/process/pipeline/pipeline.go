// Package pipeline runs the processing stages over persisted datasets.
// Each stage reads its input file, writes its output file and can be run on
// its own.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
	pipelineerrors "github.com/lueurxax/news-impact-pipeline/internal/core/errors"
	"github.com/lueurxax/news-impact-pipeline/internal/core/nlp"
	"github.com/lueurxax/news-impact-pipeline/internal/platform/observability"
	"github.com/lueurxax/news-impact-pipeline/internal/process/damage"
	"github.com/lueurxax/news-impact-pipeline/internal/process/filters"
	"github.com/lueurxax/news-impact-pipeline/internal/process/impact"
	"github.com/lueurxax/news-impact-pipeline/internal/process/keywords"
	"github.com/lueurxax/news-impact-pipeline/internal/process/lexical"
	"github.com/lueurxax/news-impact-pipeline/internal/process/normalize"
	"github.com/lueurxax/news-impact-pipeline/internal/process/sentiment"
	"github.com/lueurxax/news-impact-pipeline/internal/storage/dataset"
)

// ScoreSink receives the ranked scores of a run in addition to the results file.
type ScoreSink interface {
	SaveScores(ctx context.Context, runID string, scores []domain.ImpactScore) error
}

// Options tunes the stages.
type Options struct {
	DamageCap   int
	SortKey     impact.SortKey
	KeywordTopN int
	MSTTRWindow int
	// Sink is optional.
	Sink ScoreSink
}

// Pipeline holds the stage components.
type Pipeline struct {
	filter     *filters.LanguageFilter
	normalizer *normalize.Normalizer
	detector   *damage.Detector
	sentiment  *sentiment.Scorer
	scorer     *impact.Scorer
	lexical    *lexical.Analyzer
	opts       Options
	logger     *zerolog.Logger
}

func New(tk *nlp.Toolkit, opts Options, logger *zerolog.Logger) *Pipeline {
	if opts.SortKey == "" {
		opts.SortKey = impact.SortImpact
	}

	if opts.KeywordTopN <= 0 {
		opts.KeywordTopN = defaultKeywordTopN
	}

	return &Pipeline{
		filter:     filters.NewLanguageFilter(tk.Language, logger),
		normalizer: normalize.New(tk.Tagger, tk.Lemmatizer),
		detector:   damage.NewDetector(tk.Entities),
		sentiment:  sentiment.NewScorer(tk.Splitter, tk.Sentiment),
		scorer:     impact.NewScorer(opts.DamageCap),
		lexical:    lexical.NewAnalyzer(tk.Tagger, tk.Splitter, opts.MSTTRWindow),
		opts:       opts,
		logger:     logger,
	}
}

const defaultKeywordTopN = 5

// RunFilter keeps English, complete, first-seen rows of in and rewrites out
// with an is_english column appended.
func (p *Pipeline) RunFilter(ctx context.Context, in, out string) (filters.Report, error) {
	defer observeStage(StageFilter, time.Now())

	tbl, err := dataset.ReadExisting(in, dataset.ColTitle, dataset.ColArticleText)
	if err != nil {
		return filters.Report{}, err
	}

	docs := make([]filters.Document, tbl.Len())
	for i, row := range tbl.Rows {
		docs[i] = filters.Document{
			Title: tbl.Get(row, dataset.ColTitle),
			Body:  tbl.Get(row, dataset.ColArticleText),
		}
	}

	if err := ctx.Err(); err != nil {
		return filters.Report{}, fmt.Errorf("filter stage: %w", err)
	}

	kept, report := p.filter.Apply(docs)

	header := withColumn(tbl.Header, dataset.ColIsEnglish)
	rows := make([][]string, 0, len(kept))

	for _, i := range kept {
		rows = append(rows, setCell(tbl, tbl.Rows[i], header, dataset.ColIsEnglish, cellTrue))
	}

	if err := dataset.Rewrite(out, header, rows); err != nil {
		return report, fmt.Errorf("write filtered dataset: %w", err)
	}

	report.Log(p.logger)

	return report, nil
}

// RunNormalize adds a clean_text column holding the normalized article body.
func (p *Pipeline) RunNormalize(ctx context.Context, in, out string) (int, error) {
	defer observeStage(StageNormalize, time.Now())

	tbl, err := dataset.ReadExisting(in, dataset.ColArticleText)
	if err != nil {
		return 0, err
	}

	header := withColumn(tbl.Header, dataset.ColCleanText)
	rows := make([][]string, 0, tbl.Len())

	for _, row := range tbl.Rows {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("normalize stage: %w", err)
		}

		clean := p.normalizer.Normalize(tbl.Get(row, dataset.ColArticleText))
		rows = append(rows, setCell(tbl, row, header, dataset.ColCleanText, clean.String()))
	}

	if err := dataset.Rewrite(out, header, rows); err != nil {
		return 0, fmt.Errorf("write cleaned dataset: %w", err)
	}

	p.logger.Info().Int(LogFieldCount, len(rows)).Str(LogFieldPath, out).Msg("Normalized articles")

	return len(rows), nil
}

// RunScore scores every article of in, ranks the scores and appends them
// to the cumulative results file out.
func (p *Pipeline) RunScore(ctx context.Context, runID, in, out string) ([]domain.ImpactScore, error) {
	defer observeStage(StageScore, time.Now())

	tbl, err := dataset.ReadExisting(in, dataset.ColTitle, dataset.ColSource, dataset.ColArticleText)
	if err != nil {
		return nil, err
	}

	scores := make([]domain.ImpactScore, 0, tbl.Len())

	for _, row := range tbl.Rows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("score stage: %w", err)
		}

		scores = append(scores, p.ScoreArticle(tbl.Get(row, dataset.ColTitle), tbl.Get(row, dataset.ColSource),
			tbl.Get(row, dataset.ColArticleText)))
	}

	ranked := impact.Rank(scores, p.opts.SortKey)

	if len(ranked) > 0 {
		if err := dataset.AppendRows(out, dataset.ScoredSchema, ScoredRows(ranked)); err != nil {
			return ranked, fmt.Errorf("append scored dataset: %w", err)
		}
	}

	if p.opts.Sink != nil && len(ranked) > 0 {
		if err := p.opts.Sink.SaveScores(ctx, runID, ranked); err != nil {
			return ranked, fmt.Errorf("save scores: %w", err)
		}
	}

	p.logger.Info().
		Str(LogFieldRunID, runID).
		Int(LogFieldCount, len(ranked)).
		Str("sort_key", string(p.opts.SortKey)).
		Msg("Scored articles")

	return ranked, nil
}

// ScoreArticle runs damage detection and sentiment scoring on one body and
// fuses them.
func (p *Pipeline) ScoreArticle(title, source, text string) domain.ImpactScore {
	if strings.TrimSpace(text) == "" {
		p.logger.Debug().Err(pipelineerrors.ErrEmptyDocument).Str(LogFieldTitle, title).Msg("Scoring empty article")
	}

	dmg := p.detector.Detect(text)
	profile := p.sentiment.Score(text)
	score := p.scorer.Score(title, source, profile, dmg.Frequency)

	observability.ArticlesScored.Inc()
	observability.ImpactScore.Observe(score.Score)

	p.logger.Debug().
		Str(LogFieldTitle, title).
		Int("damage_frequency", dmg.Frequency).
		Int("damage_entities", len(dmg.Qualifying())).
		Int("sentences", profile.Sentences).
		Float64("impact_score", score.Score).
		Msg("Article scored")

	return score
}

// RunAnalyze writes lexical metrics with a coarse sentiment label and corpus
// TF-IDF keywords per article.
func (p *Pipeline) RunAnalyze(ctx context.Context, in, metricsOut, keywordsOut string) error {
	defer observeStage(StageAnalyze, time.Now())

	tbl, err := dataset.ReadExisting(in, dataset.ColTitle, dataset.ColArticleText)
	if err != nil {
		return err
	}

	metricRows := make([][]string, 0, tbl.Len())
	docs := make([]string, 0, tbl.Len())

	for _, row := range tbl.Rows {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("analyze stage: %w", err)
		}

		title := tbl.Get(row, dataset.ColTitle)
		body := tbl.Get(row, dataset.ColArticleText)
		m := p.lexical.Analyze(body)
		label := sentiment.Classify(p.sentiment.Score(body).Polarity)

		metricRows = append(metricRows, []string{
			title,
			formatFloat(m.TTR),
			formatFloat(m.MSTTR),
			formatFloat(m.LexicalDensity),
			strconv.Itoa(m.WordCount),
			strconv.Itoa(m.SentenceCount),
			formatFloat(m.AvgSentenceLength),
			string(label),
		})

		doc := body
		if tbl.Has(dataset.ColCleanText) {
			doc = tbl.Get(row, dataset.ColCleanText)
		}

		docs = append(docs, doc)
	}

	if err := dataset.Rewrite(metricsOut, dataset.MetricsSchema, metricRows); err != nil {
		return fmt.Errorf("write metrics dataset: %w", err)
	}

	terms := keywords.TFIDF(docs, p.opts.KeywordTopN)
	keywordRows := make([][]string, len(terms))

	for i, row := range tbl.Rows {
		keywordRows[i] = []string{
			tbl.Get(row, dataset.ColTitle),
			strings.Join(keywords.Words(terms[i]), keywordSeparator),
		}
	}

	if err := dataset.Rewrite(keywordsOut, dataset.KeywordsSchema, keywordRows); err != nil {
		return fmt.Errorf("write keywords dataset: %w", err)
	}

	p.logger.Info().Int(LogFieldCount, tbl.Len()).Msg("Analyzed articles")

	return nil
}

// ScoredRows renders scores as scored dataset rows.
func ScoredRows(scores []domain.ImpactScore) [][]string {
	rows := make([][]string, len(scores))
	for i, s := range scores {
		rows[i] = []string{
			s.Title,
			s.Source,
			formatFloat(s.Negative),
			formatFloat(s.Neutral),
			formatFloat(s.Positive),
			formatFloat(s.Polarity),
			strconv.Itoa(s.DamageFrequency),
			formatFloat(s.Score),
		}
	}

	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// withColumn returns header with col appended unless already present.
func withColumn(header []string, col string) dataset.Schema {
	for _, h := range header {
		if h == col {
			return dataset.Schema(header)
		}
	}

	return dataset.Schema(header).With(col)
}

// setCell copies row onto header's layout and sets col to value.
func setCell(tbl *dataset.Table, row []string, header dataset.Schema, col, value string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if h == col {
			out[i] = value
			continue
		}

		out[i] = tbl.Get(row, h)
	}

	return out
}

func observeStage(stage string, start time.Time) {
	observability.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
