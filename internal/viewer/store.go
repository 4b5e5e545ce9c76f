package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/lueurxax/linking-dashboard/internal/core/errors"
	"github.com/lueurxax/linking-dashboard/internal/core/results"
)

const (
	defaultPollAttempts    = 8
	defaultPollInterval    = 100 * time.Millisecond
	defaultMaxPollInterval = 2 * time.Second
	defaultLoadTimeout     = 2 * time.Minute
)

var errNotReady = errors.New("experiment data not ready")

// Loader reads the files of an experiment.
type Loader interface {
	ReadArticles(ctx context.Context, benchmark string) ([]results.Article, error)
	ReadCases(ctx context.Context, exp results.Experiment) ([][]results.Case, error)
	ReadLinkedArticles(ctx context.Context, exp results.Experiment) ([]results.LinkedArticle, error)
}

// StoreConfig tunes loading and readiness polling.
type StoreConfig struct {
	PollAttempts    int
	PollInterval    time.Duration
	MaxPollInterval time.Duration
	LoadTimeout     time.Duration
}

func (c StoreConfig) withDefaults() StoreConfig {
	if c.PollAttempts <= 0 {
		c.PollAttempts = defaultPollAttempts
	}

	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}

	if c.MaxPollInterval < c.PollInterval {
		c.MaxPollInterval = max(defaultMaxPollInterval, c.PollInterval)
	}

	if c.LoadTimeout <= 0 {
		c.LoadTimeout = defaultLoadTimeout
	}

	return c
}

// Store loads experiment data in the background and serves it from the cache.
type Store struct {
	loader Loader
	cache  *Cache
	cfg    StoreConfig
	logger *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStore creates a store. Background loads stop when Close is called.
func NewStore(loader Loader, cache *Cache, cfg StoreConfig, logger *zerolog.Logger) *Store {
	ctx, cancel := context.WithCancel(context.Background())

	return &Store{
		loader: loader,
		cache:  cache,
		cfg:    cfg.withDefaults(),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Cache returns the underlying cache.
func (s *Store) Cache() *Cache {
	return s.cache
}

// Load starts loading exp unless it is cached or already loading.
func (s *Store) Load(exp results.Experiment) {
	gen, ok := s.cache.Reserve(exp.Key())
	if !ok {
		return
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.fetch(exp, gen)
	}()
}

// Reload drops any cached data for exp and loads it again.
func (s *Store) Reload(exp results.Experiment) {
	s.cache.Remove(exp.Key())
	s.Load(exp)
}

func (s *Store) fetch(exp results.Experiment, gen uint64) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.LoadTimeout)
	defer cancel()

	data, err := s.read(ctx, exp)

	loadLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		loadsTotal.WithLabelValues(LoadFailed).Inc()
		s.logger.Error().Err(err).Str("experiment", exp.Key()).Msg("failed to load experiment")

		if !s.cache.Resolve(exp.Key(), gen, nil, err) {
			s.logger.Debug().Str("experiment", exp.Key()).Msg("discarding superseded load")
		}

		return
	}

	data.LoadedAt = start

	loadsTotal.WithLabelValues(LoadOK).Inc()
	s.logger.Info().
		Str("experiment", exp.Key()).
		Int("articles", len(data.Articles)).
		Dur("took", time.Since(start)).
		Msg("experiment loaded")

	if !s.cache.Resolve(exp.Key(), gen, data, nil) {
		s.logger.Debug().Str("experiment", exp.Key()).Msg("discarding superseded load")
	}
}

// read loads the benchmark, the cases and the linker output concurrently.
func (s *Store) read(ctx context.Context, exp results.Experiment) (*ExperimentData, error) {
	var (
		articles []results.Article
		cases    [][]results.Case
		linked   []results.LinkedArticle
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		articles, err = s.loader.ReadArticles(gctx, exp.Benchmark)

		return err
	})

	g.Go(func() error {
		var err error

		cases, err = s.loader.ReadCases(gctx, exp)

		return err
	})

	g.Go(func() error {
		var err error

		linked, err = s.loader.ReadLinkedArticles(gctx, exp)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(cases) != len(articles) {
		return nil, fmt.Errorf("%s: %d case lines for %d articles: %w", exp, len(cases), len(articles), apperrors.ErrCaseCountMismatch)
	}

	byID := make(map[string]*results.LinkedArticle, len(linked))
	for i := range linked {
		byID[linked[i].ID] = &linked[i]
	}

	return &ExperimentData{
		Experiment: exp,
		Articles:   articles,
		Cases:      cases,
		Linked:     byID,
	}, nil
}

// Wait returns the data of exp, starting a load when needed. It polls the
// cache with bounded exponential backoff and returns ErrNoData when the data
// does not become ready in time, or ErrLoadFailed when loading failed.
func (s *Store) Wait(ctx context.Context, exp results.Experiment) (*ExperimentData, error) {
	s.Load(exp)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.PollInterval
	b.MaxInterval = s.cfg.MaxPollInterval
	b.MaxElapsedTime = 0
	b.Reset()

	attempts := uint64(s.cfg.PollAttempts) //nolint:gosec // positive by withDefaults

	data, err := backoff.RetryWithData(func() (*ExperimentData, error) {
		entry, ok := s.cache.Get(exp.Key())
		if !ok {
			// Evicted while waiting.
			s.Load(exp)

			return nil, errNotReady
		}

		switch entry.State {
		case StateReady:
			return entry.Data, nil
		case StateFailed:
			return nil, backoff.Permanent(fmt.Errorf("%w: %w", apperrors.ErrLoadFailed, entry.Err))
		case StateLoading:
		}

		return nil, errNotReady
	}, backoff.WithContext(backoff.WithMaxRetries(b, attempts), ctx))

	switch {
	case err == nil:
		waitsTotal.WithLabelValues(WaitReady).Inc()

		return data, nil
	case errors.Is(err, apperrors.ErrLoadFailed):
		waitsTotal.WithLabelValues(WaitFailed).Inc()

		return nil, err
	case errors.Is(err, errNotReady):
		waitsTotal.WithLabelValues(WaitNoData).Inc()

		return nil, fmt.Errorf("%s: %w", exp, apperrors.ErrNoData)
	default:
		waitsTotal.WithLabelValues(WaitNoData).Inc()

		return nil, fmt.Errorf("%s: %w: %w", exp, apperrors.ErrNoData, err)
	}
}

// Stater reports when the files of an experiment last changed.
type Stater interface {
	ModifiedAt(exp results.Experiment) (time.Time, error)
}

// Refresh reloads cached experiments whose files changed after they were
// loaded and returns how many reloads it started.
func (s *Store) Refresh(stat Stater) int {
	reloaded := 0

	for _, data := range s.cache.Ready() {
		modified, err := stat.ModifiedAt(data.Experiment)
		if err != nil {
			s.logger.Warn().Err(err).Str("experiment", data.Experiment.Key()).Msg("failed to check result files")

			continue
		}

		if !modified.After(data.LoadedAt) {
			continue
		}

		s.logger.Info().Str("experiment", data.Experiment.Key()).Time("modified", modified).Msg("result files changed, reloading")
		s.Reload(data.Experiment)
		reloaded++
	}

	return reloaded
}

// Close stops background loads and waits for them to finish.
func (s *Store) Close() {
	s.cancel()
	s.wg.Wait()
}
