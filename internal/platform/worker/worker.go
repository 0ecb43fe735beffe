// Package worker runs a unit of work repeatedly until the context is canceled.
// It wraps the pieces every scheduled job needs: an interval wait on an
// injectable clock, panic recovery and an error policy.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	logFieldWorker    = "worker"
	logFieldIteration = "iteration"
)

// ProcessFunc is one iteration of work.
type ProcessFunc func(ctx context.Context) error

// Config configures the worker loop behavior.
type Config struct {
	// Name identifies the worker for logging.
	Name string

	// Interval is waited after each iteration. Zero runs Process back to back.
	Interval time.Duration

	// Process is called each iteration to do the main work.
	Process ProcessFunc

	// OnError is called when Process returns an error.
	// Return true to continue, false to exit the loop.
	// When nil, errors are logged and the loop continues.
	OnError func(err error) bool

	// MaxIterations stops the loop after this many iterations (0 means unlimited).
	MaxIterations int

	// Clock defaults to the real clock.
	Clock clockwork.Clock

	// Logger for the worker.
	Logger *zerolog.Logger
}

// Loop runs Process immediately and then once per Interval.
// Returns a wrapped ctx.Err() when the context is canceled, the first error
// OnError declines to continue past, or nil after MaxIterations.
func Loop(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	logger.Info().Str(logFieldWorker, cfg.Name).Dur("interval", cfg.Interval).Msg("starting worker loop")
	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("worker loop stopped")

	for i := 1; ; i++ {
		if err := checkCanceled(ctx, cfg.Name); err != nil {
			return err
		}

		if err := runProcessStep(ctx, cfg, i, logger); err != nil {
			return err
		}

		if cfg.MaxIterations > 0 && i >= cfg.MaxIterations {
			return nil
		}

		if err := Wait(ctx, clock, cfg.Interval); err != nil {
			return err
		}
	}
}

func runProcessStep(ctx context.Context, cfg Config, iteration int, logger *zerolog.Logger) error {
	if cfg.Process == nil {
		return nil
	}

	err := safeProcess(ctx, cfg.Process, logger, cfg.Name)
	if err == nil {
		return nil
	}

	if cfg.OnError != nil {
		if !cfg.OnError(err) {
			return err
		}

		return nil
	}

	logger.Error().Err(err).Str(logFieldWorker, cfg.Name).Int(logFieldIteration, iteration).Msg("process error")

	return nil
}

// safeProcess turns a panic in process into an error.
func safeProcess(ctx context.Context, process ProcessFunc, logger *zerolog.Logger, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str(logFieldWorker, name).Msg("recovered from panic")
			err = fmt.Errorf("worker %s panicked: %v", name, r)
		}
	}()

	return process(ctx)
}

func checkCanceled(ctx context.Context, name string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("worker loop %s: %w", name, ctx.Err())
	default:
		return nil
	}
}

// Wait blocks until duration elapses on clock or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-clock.After(d):
		return nil
	}
}
