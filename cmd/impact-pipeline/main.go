package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/news-impact-pipeline/internal/app"
	pipelineerrors "github.com/lueurxax/news-impact-pipeline/internal/core/errors"
	"github.com/lueurxax/news-impact-pipeline/internal/platform/config"
	db "github.com/lueurxax/news-impact-pipeline/internal/storage"
)

const usage = "Usage: %s --mode=[ingest|filter|normalize|score|analyze|run|schedule] [--in path] [--out path]"

func main() {
	mode := flag.String("mode", "", "Pipeline mode (ingest, filter, normalize, score, analyze, run, schedule)")
	in := flag.String("in", "", "Input dataset (defaults to the configured path for the mode)")
	out := flag.String("out", "", "Output dataset (defaults to the configured path for the mode)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg, os.Stderr)
	setLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var database *db.DB

	if cfg.PostgresDSN != "" {
		database, err = db.New(ctx, cfg.PostgresDSN, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	application := app.New(cfg, database, &logger)

	// Start health server in background
	go func() {
		if err := application.StartHealthServer(ctx); err != nil {
			logger.Error().Err(err).Msg("health check server error")
		}
	}()

	if err := runMode(ctx, application, cfg.Paths(), *mode, *in, *out); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		if errors.Is(err, pipelineerrors.ErrUnknownMode) {
			log.Fatalf(usage, os.Args[0])
		}

		logger.Fatal().Err(err).Str("mode", *mode).Msg("application error")
	}
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if cfg.IsLocal() {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(out).With().Timestamp().Logger()
}

func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}

	return v
}

func runMode(ctx context.Context, application *app.App, paths config.DatasetPaths, mode, in, out string) error {
	switch mode {
	case "ingest":
		_, err := application.RunIngest(ctx, orDefault(out, paths.Raw))
		return err
	case "filter":
		return application.RunFilter(ctx, orDefault(in, paths.Raw), orDefault(out, paths.Filtered))
	case "normalize":
		return application.RunNormalize(ctx, orDefault(in, paths.Filtered), orDefault(out, paths.Cleaned))
	case "score":
		return application.RunScore(ctx, orDefault(in, paths.Cleaned), orDefault(out, paths.Scored))
	case "analyze":
		return application.RunAnalyze(ctx, orDefault(in, paths.Cleaned), orDefault(out, paths.Metrics))
	case "run":
		return application.RunPipeline(ctx)
	case "schedule":
		return application.RunSchedule(ctx)
	default:
		return fmt.Errorf("%w: %q", pipelineerrors.ErrUnknownMode, mode)
	}
}
