// Package app provides the application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes one method per
// operational mode:
//
//   - Ingest: discover new URLs, download and accept relevant articles
//   - Filter, Normalize, Score, Analyze: single dataset stages
//   - Pipeline: ingest through score under one run id
//   - Schedule: the full pipeline on a fixed interval
//
// Each stage reads and writes datasets on disk, so any mode can be run on
// its own against the output of an earlier one.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
	pipelineerrors "github.com/lueurxax/news-impact-pipeline/internal/core/errors"
	"github.com/lueurxax/news-impact-pipeline/internal/core/nlp"
	"github.com/lueurxax/news-impact-pipeline/internal/crawler"
	"github.com/lueurxax/news-impact-pipeline/internal/platform/config"
	"github.com/lueurxax/news-impact-pipeline/internal/platform/observability"
	"github.com/lueurxax/news-impact-pipeline/internal/platform/worker"
	"github.com/lueurxax/news-impact-pipeline/internal/process/filters"
	"github.com/lueurxax/news-impact-pipeline/internal/process/impact"
	"github.com/lueurxax/news-impact-pipeline/internal/process/pipeline"
	db "github.com/lueurxax/news-impact-pipeline/internal/storage"
	"github.com/lueurxax/news-impact-pipeline/internal/storage/ledger"
)

const (
	scheduleWorkerName = "pipeline-scheduler"
	logFieldAccepted   = "accepted"
	logFieldAttempted  = "attempted"
	logFieldFailed     = "failed"
	logFieldIrrelevant = "irrelevant"

	runDirPerm = 0o755
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
	clock    clockwork.Clock
	health   *observability.Server

	toolkitOnce sync.Once
	toolkit     *nlp.Toolkit
	toolkitErr  error

	// scheduleIterations stops RunSchedule after this many runs; zero runs
	// until the context is canceled.
	scheduleIterations int
}

// New creates an App. database may be nil, which disables the Postgres sink
// and the schedule lock.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
		clock:    clockwork.NewRealClock(),
		health:   observability.NewServer(cfg.HealthPort, logger),
	}
}

// StartHealthServer serves health and metrics until ctx is done.
// It returns immediately when HEALTH_PORT is not set. Readiness turns on once
// the running mode has loaded what it needs.
func (a *App) StartHealthServer(ctx context.Context) error {
	if a.cfg.HealthPort <= 0 {
		return nil
	}

	return a.health.Start(ctx)
}

// nlpToolkit loads the language models once per process.
func (a *App) nlpToolkit() (*nlp.Toolkit, error) {
	a.toolkitOnce.Do(func() {
		start := time.Now()
		a.toolkit, a.toolkitErr = nlp.NewToolkit()
		if a.toolkitErr != nil {
			return
		}

		if a.cfg.ScoringCfg().LanguageDetector == config.LanguageDetectorHeuristic {
			a.toolkit.Language = nlp.HeuristicIdentifier{}
		}

		a.health.SetReady(true)
		a.logger.Debug().Dur("took", time.Since(start)).Msg("NLP toolkit loaded")
	})

	return a.toolkit, a.toolkitErr
}

func (a *App) newPipeline(logger *zerolog.Logger) (*pipeline.Pipeline, error) {
	tk, err := a.nlpToolkit()
	if err != nil {
		return nil, fmt.Errorf("load nlp toolkit: %w", err)
	}

	scoring := a.cfg.ScoringCfg()

	sortKey, err := impact.ParseSortKey(scoring.SortKey)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		DamageCap:   scoring.DamageCap,
		SortKey:     sortKey,
		KeywordTopN: scoring.KeywordTopN,
		MSTTRWindow: scoring.MSTTRWindow,
	}

	if a.database != nil {
		opts.Sink = a.database
	}

	return pipeline.New(tk, opts, logger), nil
}

func (a *App) openLedger(ctx context.Context) (ledger.Ledger, func(), error) {
	cfg := a.cfg.LedgerCfg()

	switch cfg.Backend {
	case config.LedgerBackendFile:
		l, err := ledger.OpenFile(cfg.Path)
		if err != nil {
			return nil, nil, err
		}

		return l, func() {}, nil
	case config.LedgerBackendRedis:
		l, err := ledger.NewRedis(ctx, ledger.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.Key,
		})
		if err != nil {
			return nil, nil, err
		}

		return l, func() {
			if err := l.Close(); err != nil {
				a.logger.Warn().Err(err).Msg("failed to close redis ledger")
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", pipelineerrors.ErrUnknownBackend, cfg.Backend)
	}
}

// RunIngest discovers URLs not yet in the ledger, downloads them and writes
// accepted articles to out. It returns the number of accepted articles.
func (a *App) RunIngest(ctx context.Context, out string) (int, error) {
	// ingestion loads no language models
	a.health.SetReady(true)

	articles, err := a.runIngest(ctx, out, a.logger)

	return len(articles), err
}

func (a *App) runIngest(ctx context.Context, out string, logger *zerolog.Logger) ([]domain.Article, error) {
	start := time.Now()
	defer func() {
		observability.StageDuration.WithLabelValues(pipeline.StageIngest).Observe(time.Since(start).Seconds())
	}()

	crawlCfg := a.cfg.CrawlerCfg()
	relCfg := a.cfg.RelevanceCfg()

	mode, err := filters.ParseMode(relCfg.Mode)
	if err != nil {
		return nil, err
	}

	urls, closeLedger, err := a.openLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("open url ledger: %w", err)
	}
	defer closeLedger()

	sources := crawlCfg.Sources
	if len(sources) == 0 {
		sources = crawler.DefaultSources
	}

	denylist := crawlCfg.Denylist
	if len(denylist) == 0 {
		denylist = crawler.DefaultDenylist
	}

	cc := crawler.Config{
		UserAgent:       crawlCfg.UserAgent,
		FetchTimeout:    crawlCfg.FetchTimeout,
		DiscoveryRPS:    crawlCfg.DiscoveryRPS,
		Limit:           crawlCfg.Limit,
		PolitenessDelay: crawlCfg.PolitenessDelay,
		LiveSave:        crawlCfg.LiveSave,
		RawPath:         out,
	}

	relevance := filters.NewRelevance(relCfg.Keywords, mode)

	ingestor := crawler.NewIngestor(
		cc,
		crawler.NewDiscovery(cc, crawler.NewURLFilter(denylist), logger),
		crawler.NewFetcher(cc, logger),
		relevance,
		urls,
		a.clock,
		logger,
	)

	logger.Info().
		Strs("query", relevance.Query()).
		Str("mode", string(mode)).
		Int("sources", len(sources)).
		Msg("Ingestion started")

	fresh, err := ingestor.DiscoverNew(ctx, sources)
	if err != nil {
		return nil, err
	}

	articles, stats, err := ingestor.Run(ctx, fresh)
	if err != nil {
		return articles, err
	}

	if !cc.LiveSave {
		if err := crawler.SaveRaw(out, articles); err != nil {
			return articles, err
		}
	}

	logger.Info().
		Int(logFieldAttempted, stats.Attempted).
		Int(logFieldFailed, stats.Failed).
		Int(logFieldIrrelevant, stats.Irrelevant).
		Int(logFieldAccepted, stats.Accepted).
		Str(pipeline.LogFieldPath, out).
		Msg("Ingestion finished")

	return articles, nil
}

// RunFilter runs the language and duplicate filter from in to out.
func (a *App) RunFilter(ctx context.Context, in, out string) error {
	p, err := a.newPipeline(a.logger)
	if err != nil {
		return err
	}

	_, err = p.RunFilter(ctx, in, out)

	return err
}

// RunNormalize adds normalized text to the dataset.
func (a *App) RunNormalize(ctx context.Context, in, out string) error {
	p, err := a.newPipeline(a.logger)
	if err != nil {
		return err
	}

	_, err = p.RunNormalize(ctx, in, out)

	return err
}

// RunScore scores and ranks the articles of in under a fresh run id.
func (a *App) RunScore(ctx context.Context, in, out string) error {
	runID := uuid.NewString()
	logger := a.logger.With().Str(pipeline.LogFieldRunID, runID).Logger()

	p, err := a.newPipeline(&logger)
	if err != nil {
		return err
	}

	_, err = p.RunScore(ctx, runID, in, out)

	return err
}

// RunAnalyze writes lexical metrics to metricsOut and corpus keywords to the
// configured keywords dataset.
func (a *App) RunAnalyze(ctx context.Context, in, metricsOut string) error {
	p, err := a.newPipeline(a.logger)
	if err != nil {
		return err
	}

	return p.RunAnalyze(ctx, in, metricsOut, a.cfg.Paths().Keywords)
}

// RunPipeline runs ingest, filter, normalize and score in order. Only the
// articles accepted by this run are scored, so repeated runs never score an
// article twice.
func (a *App) RunPipeline(ctx context.Context) error {
	runID := uuid.NewString()
	logger := a.logger.With().Str(pipeline.LogFieldRunID, runID).Logger()
	paths := a.cfg.Paths()

	p, err := a.newPipeline(&logger)
	if err != nil {
		return err
	}

	logger.Info().Msg("Pipeline run started")

	articles, err := a.runIngest(ctx, paths.Raw, &logger)
	if err != nil {
		return fmt.Errorf("%s stage: %w", pipeline.StageIngest, err)
	}

	if len(articles) == 0 {
		logger.Info().Msg("No new articles, nothing to score")
		return nil
	}

	raw, cleanup, err := a.runRawDataset(paths.Raw, articles)
	if err != nil {
		return fmt.Errorf("%s stage: %w", pipeline.StageIngest, err)
	}
	defer cleanup()

	if _, err := p.RunFilter(ctx, raw, paths.Filtered); err != nil {
		return fmt.Errorf("%s stage: %w", pipeline.StageFilter, err)
	}

	if _, err := p.RunNormalize(ctx, paths.Filtered, paths.Cleaned); err != nil {
		return fmt.Errorf("%s stage: %w", pipeline.StageNormalize, err)
	}

	scores, err := p.RunScore(ctx, runID, paths.Cleaned, paths.Scored)
	if err != nil {
		return fmt.Errorf("%s stage: %w", pipeline.StageScore, err)
	}

	logger.Info().Int(pipeline.LogFieldCount, len(scores)).Msg("Pipeline run finished")

	return nil
}

// runRawDataset returns a raw dataset holding only this run's articles.
// Without live save the raw dataset was rewritten by the run and is used as
// is. With live save it is cumulative, so the articles are written to a
// temporary directory next to it that cleanup removes.
func (a *App) runRawDataset(raw string, articles []domain.Article) (string, func(), error) {
	if !a.cfg.CrawlerCfg().LiveSave {
		return raw, func() {}, nil
	}

	parent := filepath.Dir(raw)
	if err := os.MkdirAll(parent, runDirPerm); err != nil {
		return "", nil, fmt.Errorf("create run directory: %w", err)
	}

	dir, err := os.MkdirTemp(parent, "run-")
	if err != nil {
		return "", nil, fmt.Errorf("create run directory: %w", err)
	}

	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			a.logger.Warn().Err(err).Str(pipeline.LogFieldPath, dir).Msg("failed to remove run directory")
		}
	}

	path := filepath.Join(dir, filepath.Base(raw))
	if err := crawler.SaveRaw(path, articles); err != nil {
		cleanup()
		return "", nil, err
	}

	return path, cleanup, nil
}

// RunSchedule runs the full pipeline every SCHEDULE_INTERVAL until ctx is
// canceled. With a database, runs on other hosts are skipped while one holds
// the run lock.
func (a *App) RunSchedule(ctx context.Context) error {
	return worker.Loop(ctx, worker.Config{
		Name:          scheduleWorkerName,
		Interval:      a.cfg.ScheduleInterval,
		Process:       a.runLocked,
		Clock:         a.clock,
		MaxIterations: a.scheduleIterations,
		OnError: func(err error) bool {
			if errors.Is(err, context.Canceled) {
				return false
			}

			a.logger.Error().Err(err).Msg("scheduled pipeline run failed")

			return true
		},
		Logger: a.logger,
	})
}

func (a *App) runLocked(ctx context.Context) error {
	if a.database == nil {
		return a.RunPipeline(ctx)
	}

	acquired, release, err := a.database.TryAcquireAdvisoryLock(ctx, db.RunLockID)
	if err != nil {
		return err
	}

	if !acquired {
		a.logger.Info().Msg("Another pipeline run holds the lock, skipping")
		return nil
	}
	defer release()

	return a.RunPipeline(ctx)
}
