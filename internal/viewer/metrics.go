package viewer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"

	LoadOK     = "ok"
	LoadFailed = "failed"

	WaitReady  = "ready"
	WaitNoData = "no_data"
	WaitFailed = "failed"
)

var (
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viewer_cache_lookups_total",
		Help: "Experiment cache lookups by result",
	}, []string{"result"})

	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewer_cache_evictions_total",
		Help: "Experiments evicted from the cache",
	})

	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "viewer_cache_entries",
		Help: "Experiments currently held in the cache",
	})

	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viewer_experiment_loads_total",
		Help: "Experiment data loads by outcome",
	}, []string{"status"})

	loadLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "viewer_experiment_load_seconds",
		Help:    "Time to load the result files of one experiment",
		Buckets: prometheus.DefBuckets,
	})

	waitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viewer_wait_total",
		Help: "Readiness waits by outcome",
	}, []string{"result"})

	staleTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewer_stale_renders_total",
		Help: "Article renders dropped because a newer request superseded them",
	})
)
