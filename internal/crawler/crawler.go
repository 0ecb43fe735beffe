// Package crawler discovers article URLs on news front pages and downloads
// the articles that pass the relevance test.
//
// Ingestion is strictly sequential:
//   - discovered URLs are recorded in the URL ledger and only new ones are fetched
//   - each successful download is followed by a politeness delay
//   - failures are logged and skipped, never retried
//   - accepted articles can be appended to the raw dataset one by one
package crawler

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
	"github.com/lueurxax/news-impact-pipeline/internal/platform/observability"
	"github.com/lueurxax/news-impact-pipeline/internal/process/filters"
	"github.com/lueurxax/news-impact-pipeline/internal/storage/dataset"
	"github.com/lueurxax/news-impact-pipeline/internal/storage/ledger"
)

const (
	fieldCount = "count"
	fieldURL   = "url"
	fieldTitle = "title"
)

// Stats counts what happened to the URLs of one ingestion run.
type Stats struct {
	Attempted  int
	Failed     int
	Irrelevant int
	Accepted   int
}

// Ingestor drives discovery, download and acceptance of articles.
type Ingestor struct {
	cfg       Config
	discovery *Discovery
	fetcher   ArticleFetcher
	relevance *filters.Relevance
	ledger    ledger.Ledger
	clock     clockwork.Clock
	logger    *zerolog.Logger
}

// NewIngestor wires an Ingestor. A nil clock means the real clock.
func NewIngestor(
	cfg Config,
	discovery *Discovery,
	fetcher ArticleFetcher,
	relevance *filters.Relevance,
	urls ledger.Ledger,
	clock clockwork.Clock,
	logger *zerolog.Logger,
) *Ingestor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Ingestor{
		cfg:       cfg.withDefaults(),
		discovery: discovery,
		fetcher:   fetcher,
		relevance: relevance,
		ledger:    urls,
		clock:     clock,
		logger:    logger,
	}
}

// DiscoverNew discovers candidate URLs and returns the ones the ledger has
// not seen before. They are recorded in the ledger before returning.
func (in *Ingestor) DiscoverNew(ctx context.Context, sources []string) ([]string, error) {
	candidates := in.discovery.Discover(ctx, sources)

	added, err := in.ledger.Add(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("update url ledger: %w", err)
	}

	in.logger.Info().
		Int("candidates", len(candidates)).
		Int("new", len(added)).
		Msg("URL discovery finished")

	return added, nil
}

// Run fetches urls in order until Limit articles are accepted or the list
// is exhausted. Failed and irrelevant URLs are skipped. Cancellation stops
// the run between URLs and returns what was accepted so far.
func (in *Ingestor) Run(ctx context.Context, urls []string) ([]domain.Article, Stats, error) {
	var (
		stats    Stats
		accepted []domain.Article
	)

	for _, u := range urls {
		if in.cfg.Limit > 0 && stats.Accepted >= in.cfg.Limit {
			break
		}

		if ctx.Err() != nil {
			in.logger.Info().Int(fieldCount, stats.Accepted).Msg("Ingestion cancelled")
			break
		}

		stats.Attempted++

		res := in.processURL(ctx, u)
		if res.Err != nil {
			stats.Failed++
			in.logger.Warn().Err(res.Err).Str(fieldURL, u).Msg("Article download failed")

			continue
		}

		observability.FetchTotal.WithLabelValues(observability.FetchStatusOK).Inc()
		in.politenessDelay(ctx)

		if !in.relevance.Match(res.Article.Keywords) {
			stats.Irrelevant++
			observability.FilterDropped.WithLabelValues(observability.DropIrrelevant).Inc()
			in.logger.Debug().Str(fieldURL, u).Strs("keywords", res.Article.Keywords).Msg("Article not relevant")

			continue
		}

		if in.cfg.LiveSave {
			if err := dataset.Append(in.cfg.RawPath, dataset.RawSchema, RawRow(res.Article)); err != nil {
				return accepted, stats, fmt.Errorf("save article: %w", err)
			}
		}

		accepted = append(accepted, res.Article)
		stats.Accepted++
		observability.ArticlesAccepted.Inc()

		in.logger.Info().
			Str(fieldURL, u).
			Str(fieldTitle, res.Article.Title).
			Int(fieldCount, stats.Accepted).
			Msg("Article accepted")
	}

	return accepted, stats, nil
}

// processURL fetches a single URL.
// A panic while parsing one page is recovered and reported as a failed fetch.
func (in *Ingestor) processURL(ctx context.Context, u string) (res FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			observability.FetchTotal.WithLabelValues(observability.FetchStatusPanic).Inc()
			in.logger.Error().
				Interface("panic", r).
				Str(fieldURL, u).
				Msg("Recovered from panic during URL processing")

			res = FetchResult{URL: u, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	res = in.fetcher.Fetch(ctx, u)
	if res.Err != nil {
		observability.FetchTotal.WithLabelValues(observability.FetchStatusError).Inc()
	}

	return res
}

func (in *Ingestor) politenessDelay(ctx context.Context) {
	if in.cfg.PolitenessDelay <= 0 {
		return
	}

	select {
	case <-ctx.Done():
	case <-in.clock.After(in.cfg.PolitenessDelay):
	}
}

// RawRow renders an article as a raw dataset row.
func RawRow(a domain.Article) []string {
	return []string{a.Title, a.DateString(), a.Source, a.Text}
}

// SaveRaw rewrites the raw dataset with articles in one pass.
func SaveRaw(path string, articles []domain.Article) error {
	rows := make([][]string, len(articles))
	for i, a := range articles {
		rows[i] = RawRow(a)
	}

	if err := dataset.Rewrite(path, dataset.RawSchema, rows); err != nil {
		return fmt.Errorf("save raw dataset: %w", err)
	}

	return nil
}
