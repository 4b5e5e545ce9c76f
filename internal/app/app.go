// Package app provides the application bootstrap and runtime orchestration.
//
// The App type wires the result readers, the experiment cache, the
// annotation pipeline and the HTTP dashboard together and runs them until
// the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/linking-dashboard/internal/core/annotation"
	"github.com/lueurxax/linking-dashboard/internal/core/results"
	"github.com/lueurxax/linking-dashboard/internal/dashboard"
	"github.com/lueurxax/linking-dashboard/internal/platform/config"
	"github.com/lueurxax/linking-dashboard/internal/platform/observability"
	"github.com/lueurxax/linking-dashboard/internal/platform/worker"
	"github.com/lueurxax/linking-dashboard/internal/render"
	"github.com/lueurxax/linking-dashboard/internal/viewer"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

var errNotDirectory = errors.New("not a directory")

// App holds the application dependencies.
type App struct {
	cfg    *config.Config
	reader *results.Reader
	logger *zerolog.Logger
}

// New creates the application.
func New(cfg *config.Config, logger *zerolog.Logger) *App {
	return &App{
		cfg:    cfg,
		reader: results.NewReader(cfg.ResultsDir, cfg.BenchmarksDir),
		logger: logger,
	}
}

// Ready reports whether the result and benchmark directories are readable.
func (a *App) Ready(_ context.Context) error {
	for _, dir := range []string{a.cfg.ResultsDir, a.cfg.BenchmarksDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("stat %s: %w", dir, err)
		}

		if !info.IsDir() {
			return fmt.Errorf("%s: %w", dir, errNotDirectory)
		}
	}

	return nil
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.Ready, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// NewDashboard builds the dashboard handler and the store it loads
// experiments through. The caller closes the store.
func (a *App) NewDashboard() (*dashboard.Handler, *viewer.Store, error) {
	typeLabels, err := a.reader.ReadTypeLabels()
	if err != nil {
		a.logger.Warn().Err(err).Msg("Type labels unavailable, showing raw type ids")

		typeLabels = map[string]string{}
	}

	families := results.NewBenchmarkFamilies(a.cfg.PartialEvaluationBenchmarks)

	store := viewer.NewStore(a.reader, viewer.NewCache(a.cfg.CacheMaxEntries), viewer.StoreConfig{
		PollAttempts:    a.cfg.CachePollAttempts,
		PollInterval:    a.cfg.CachePollInterval,
		MaxPollInterval: a.cfg.CacheMaxPollWait,
		LoadTimeout:     a.cfg.CacheLoadTimeout,
	}, a.logger)

	renderer, err := render.NewRenderer(a.logger)
	if err != nil {
		store.Close()

		return nil, nil, fmt.Errorf("renderer init: %w", err)
	}

	v := viewer.New(store, annotation.NewRegistry(families.PartialEvaluation), renderer, viewer.Options{
		TypeLabels:       typeLabels,
		EntityBaseURL:    a.cfg.EntityBaseURL,
		HyperlinkBaseURL: a.cfg.HyperlinkBaseURL,
	}, a.logger)

	handler, err := dashboard.NewHandler(dashboard.Config{
		CookieName:   a.cfg.SessionCookieName,
		CookieSecure: a.cfg.SessionCookieSecure,
		RateLimitRPS: a.cfg.RateLimitRPS,
		RateBurst:    a.cfg.RateBurst,
		TypeLabels:   typeLabels,
	}, a.reader, store, v, viewer.NewSessions(a.cfg.MaxSessions, store.Cache()), families, a.logger)
	if err != nil {
		store.Close()

		return nil, nil, fmt.Errorf("dashboard handler init: %w", err)
	}

	return handler, store, nil
}

// refresh reloads changed experiments and updates the experiment gauge.
func (a *App) refresh(store *viewer.Store) {
	if n := store.Refresh(a.reader); n > 0 {
		a.logger.Info().Int("experiments", n).Msg("Reloading changed experiments")
	}

	exps, err := a.reader.ListExperiments()
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to list experiments")

		return
	}

	observability.ExperimentsAvailable.Set(float64(len(exps)))
}

// RunDashboard serves the dashboard and the health server until ctx is done.
func (a *App) RunDashboard(ctx context.Context) error {
	a.logger.Info().
		Str("results_dir", a.cfg.ResultsDir).
		Str("benchmarks_dir", a.cfg.BenchmarksDir).
		Msg("Starting dashboard")

	handler, store, err := a.NewDashboard()
	if err != nil {
		return err
	}
	defer store.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.StartHealthServer(gctx)
	})

	g.Go(func() error {
		err := worker.Periodic(gctx, worker.PeriodicConfig{
			Name:     "results-refresh",
			Interval: a.cfg.ResultsRefreshInterval,
			Run:      func(context.Context) { a.refresh(store) },
			Logger:   a.logger,
		})
		if gctx.Err() != nil {
			return nil
		}

		return err
	})

	g.Go(func() error {
		a.logger.Info().Int("port", a.cfg.HTTPPort).Msg("Dashboard server starting")

		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("dashboard server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		//nolint:contextcheck // shutdown uses a fresh context once the parent is cancelled
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("dashboard shutdown: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	return ctx.Err()
}
