// Package worker runs background tasks on a fixed interval.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const logFieldWorker = "worker"

// PeriodicConfig configures a periodic loop.
type PeriodicConfig struct {
	// Name identifies the worker for logging.
	Name string

	Interval time.Duration

	// RunOnStart runs the task once before the first tick.
	RunOnStart bool

	Run func(ctx context.Context)

	Logger *zerolog.Logger
}

// Periodic calls cfg.Run every cfg.Interval until ctx is cancelled. A panic in
// Run is logged and the loop continues. It returns the wrapped context error.
func Periodic(ctx context.Context, cfg PeriodicConfig) error {
	logger := getLogger(cfg.Logger)

	if cfg.Interval <= 0 || cfg.Run == nil {
		logger.Info().Str(logFieldWorker, cfg.Name).Msg("periodic loop disabled")
		<-ctx.Done()

		return fmt.Errorf("periodic loop %s: %w", cfg.Name, ctx.Err())
	}

	logger.Info().Str(logFieldWorker, cfg.Name).Dur("interval", cfg.Interval).Msg("starting periodic loop")
	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("periodic loop stopped")

	if cfg.RunOnStart {
		runSafely(ctx, cfg, logger)
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("periodic loop %s: %w", cfg.Name, ctx.Err())
		case <-ticker.C:
			runSafely(ctx, cfg, logger)
		}
	}
}

func runSafely(ctx context.Context, cfg PeriodicConfig, logger *zerolog.Logger) {
	defer RecoverPanic(logger, cfg.Name)

	cfg.Run(ctx)
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error().Interface("panic", r).Str("operation", operation).Msg("recovered from panic")
	}
}

func getLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger != nil {
		return logger
	}

	nop := zerolog.Nop()

	return &nop
}
