package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort     int `env:"HTTP_PORT" envDefault:"8000"`
	HealthPort   int `env:"HEALTH_PORT" envDefault:"8080"`
	RateLimitRPS int `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateBurst    int `env:"RATE_LIMIT_BURST" envDefault:"40"`

	ResultsDir    string `env:"RESULTS_DIR" envDefault:"./evaluation-results"`
	BenchmarksDir string `env:"BENCHMARKS_DIR" envDefault:"./benchmarks"`

	// Benchmark name prefixes whose articles are only partially evaluated.
	PartialEvaluationBenchmarks []string `env:"PARTIAL_EVALUATION_BENCHMARKS" envSeparator:"," envDefault:"wiki-ex,newscrawl"`

	CacheMaxEntries     int           `env:"CACHE_MAX_ENTRIES" envDefault:"8"`
	CachePollAttempts   int           `env:"CACHE_POLL_ATTEMPTS" envDefault:"20"`
	CachePollInterval   time.Duration `env:"CACHE_POLL_INTERVAL" envDefault:"100ms"`
	CacheMaxPollWait    time.Duration `env:"CACHE_MAX_POLL_WAIT" envDefault:"2s"`
	CacheLoadTimeout    time.Duration `env:"CACHE_LOAD_TIMEOUT" envDefault:"5m"`
	MaxSessions         int           `env:"MAX_SESSIONS" envDefault:"1000"`
	SessionCookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"linking_session"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	// Cached experiments whose result files changed are reloaded at this interval; 0 disables.
	ResultsRefreshInterval time.Duration `env:"RESULTS_REFRESH_INTERVAL" envDefault:"1m"`

	EntityBaseURL    string `env:"ENTITY_BASE_URL" envDefault:"https://www.wikidata.org/wiki/"`
	HyperlinkBaseURL string `env:"HYPERLINK_BASE_URL" envDefault:"https://en.wikipedia.org/wiki/"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	return cfg, nil
}

// IsLocal reports whether the process runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local"
}

// applyAliases honours the variable names of older deployments when the
// current name is not set.
func applyAliases(cfg *Config) {
	if !hasEnv("RESULTS_DIR") {
		setStringFromEnv("EVALUATION_RESULTS_DIR", &cfg.ResultsDir)
	}

	if !hasEnv("BENCHMARKS_DIR") {
		setStringFromEnv("BENCHMARK_DIR", &cfg.BenchmarksDir)
	}

	if !hasEnv("HTTP_PORT") {
		setIntFromEnv("PORT", &cfg.HTTPPort)
	}

	if !hasEnv("CACHE_POLL_INTERVAL") {
		setDurationFromEnv("CACHE_POLL_DELAY", &cfg.CachePollInterval)
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setIntFromEnv(key string, target *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}

func setDurationFromEnv(key string, target *time.Duration) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}
