package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_http_requests_total",
		Help: "Dashboard HTTP requests by route and status code",
	}, []string{"route", "code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_http_request_duration_seconds",
		Help:    "Duration of dashboard HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_rate_limited_total",
		Help: "Requests rejected by the per-client rate limiter",
	})

	ArticleRenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_article_render_duration_seconds",
		Help:    "Time to render the article view, by number of compared columns",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"columns"})

	ExperimentsAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_experiments_available",
		Help: "Number of experiments found in the results directory at the last listing",
	})
)
