package config

import (
	"os"
	"testing"
	"time"
)

// Test environment variable keys.
const (
	testEnvResultsDir = "RESULTS_DIR"
	testEnvPartial    = "PARTIAL_EVALUATION_BENCHMARKS"
	testEnvPort       = "HTTP_PORT"
)

// Test values.
const (
	testErrLoad           = "Load() error = %v"
	testDefaultEnv        = "local"
	testDefaultResultsDir = "./evaluation-results"
	testResultsDir        = "/data/results"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()

	for _, key := range keys {
		// t.Setenv registers the restore; the unset makes the variable absent.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "APP_ENV", testEnvResultsDir, "EVALUATION_RESULTS_DIR", testEnvPartial,
		testEnvPort, "PORT", "HEALTH_PORT", "CACHE_MAX_ENTRIES", "CACHE_POLL_INTERVAL", "CACHE_POLL_DELAY",
		"ENTITY_BASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AppEnv != testDefaultEnv {
		t.Errorf("AppEnv default = %q, want %q", cfg.AppEnv, testDefaultEnv)
	}

	if !cfg.IsLocal() {
		t.Error("IsLocal() should be true for the default environment")
	}

	if cfg.ResultsDir != testDefaultResultsDir {
		t.Errorf("ResultsDir default = %q, want %q", cfg.ResultsDir, testDefaultResultsDir)
	}

	if cfg.HTTPPort != 8000 {
		t.Errorf("HTTPPort default = %d, want %d", cfg.HTTPPort, 8000)
	}

	if cfg.HealthPort != 8080 {
		t.Errorf("HealthPort default = %d, want %d", cfg.HealthPort, 8080)
	}

	if cfg.CacheMaxEntries != 8 {
		t.Errorf("CacheMaxEntries default = %d, want %d", cfg.CacheMaxEntries, 8)
	}

	if cfg.CachePollInterval != 100*time.Millisecond {
		t.Errorf("CachePollInterval default = %v, want %v", cfg.CachePollInterval, 100*time.Millisecond)
	}

	if cfg.EntityBaseURL != "https://www.wikidata.org/wiki/" {
		t.Errorf("EntityBaseURL default = %q", cfg.EntityBaseURL)
	}

	want := []string{"wiki-ex", "newscrawl"}
	if len(cfg.PartialEvaluationBenchmarks) != len(want) {
		t.Fatalf("PartialEvaluationBenchmarks = %v, want %v", cfg.PartialEvaluationBenchmarks, want)
	}

	for i, v := range want {
		if cfg.PartialEvaluationBenchmarks[i] != v {
			t.Errorf("PartialEvaluationBenchmarks[%d] = %q, want %q", i, cfg.PartialEvaluationBenchmarks[i], v)
		}
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(testEnvResultsDir, testResultsDir)
	t.Setenv(testEnvPartial, "wiki-ex,my-partial,other")
	t.Setenv(testEnvPort, "9000")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.ResultsDir != testResultsDir {
		t.Errorf("ResultsDir = %q, want %q", cfg.ResultsDir, testResultsDir)
	}

	if len(cfg.PartialEvaluationBenchmarks) != 3 {
		t.Errorf("PartialEvaluationBenchmarks length = %d, want %d", len(cfg.PartialEvaluationBenchmarks), 3)
	}

	if cfg.HTTPPort != 9000 {
		t.Errorf("HTTPPort = %d, want %d", cfg.HTTPPort, 9000)
	}

	if cfg.IsLocal() {
		t.Error("IsLocal() should be false in production")
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("CACHE_MAX_ENTRIES", "many")

	if _, err := Load(); err == nil {
		t.Error("expected error for a non-numeric CACHE_MAX_ENTRIES")
	}
}

func TestLoad_Aliases(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(*Config) bool
	}{
		{
			name:  "legacy results dir",
			env:   map[string]string{"EVALUATION_RESULTS_DIR": testResultsDir},
			check: func(c *Config) bool { return c.ResultsDir == testResultsDir },
		},
		{
			name:  "current name wins over legacy",
			env:   map[string]string{testEnvResultsDir: "/current", "EVALUATION_RESULTS_DIR": testResultsDir},
			check: func(c *Config) bool { return c.ResultsDir == "/current" },
		},
		{
			name:  "PORT sets the http port",
			env:   map[string]string{"PORT": "7777"},
			check: func(c *Config) bool { return c.HTTPPort == 7777 },
		},
		{
			name:  "invalid legacy port is ignored",
			env:   map[string]string{"PORT": "abc"},
			check: func(c *Config) bool { return c.HTTPPort == 8000 },
		},
		{
			name:  "legacy poll delay",
			env:   map[string]string{"CACHE_POLL_DELAY": "250ms"},
			check: func(c *Config) bool { return c.CachePollInterval == 250*time.Millisecond },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetEnv(t, testEnvResultsDir, "EVALUATION_RESULTS_DIR", testEnvPort, "PORT",
				"CACHE_POLL_INTERVAL", "CACHE_POLL_DELAY")

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf(testErrLoad, err)
			}

			if !tt.check(cfg) {
				t.Errorf("unexpected config: %+v", cfg)
			}
		})
	}
}
