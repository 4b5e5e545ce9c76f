package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/linking-dashboard/internal/platform/config"
	"github.com/lueurxax/linking-dashboard/internal/platform/observability"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()

	cfg := &config.Config{
		ResultsDir:        filepath.Join(root, "results"),
		BenchmarksDir:     filepath.Join(root, "benchmarks"),
		CacheMaxEntries:   2,
		SessionCookieName: "s",
	}

	require.NoError(t, os.MkdirAll(filepath.Join(cfg.ResultsDir, "refined"), 0o755))
	require.NoError(t, os.MkdirAll(cfg.BenchmarksDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.ResultsDir, "refined", "refined.kore50.eval_results.json"),
		[]byte(`{"all":{"tp":3,"fp":1,"fn":0}}`), 0o600))
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.ResultsDir, "whitelist_types.tsv"),
		[]byte("Q5\tperson\n"), 0o600))

	return cfg
}

func TestApp_Ready(t *testing.T) {
	logger := zerolog.Nop()
	cfg := testConfig(t)

	a := New(cfg, &logger)
	require.NoError(t, a.Ready(context.Background()))

	cfg.BenchmarksDir = filepath.Join(cfg.ResultsDir, "whitelist_types.tsv")
	assert.ErrorIs(t, a.Ready(context.Background()), errNotDirectory)

	cfg.BenchmarksDir = filepath.Join(cfg.ResultsDir, "missing")
	assert.Error(t, a.Ready(context.Background()))
}

func TestApp_NewDashboard(t *testing.T) {
	logger := zerolog.Nop()
	a := New(testConfig(t), &logger)

	handler, store, err := a.NewDashboard()
	require.NoError(t, err)
	t.Cleanup(store.Close)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kore50")
}

func TestApp_RefreshUpdatesExperimentGauge(t *testing.T) {
	logger := zerolog.Nop()
	a := New(testConfig(t), &logger)

	_, store, err := a.NewDashboard()
	require.NoError(t, err)
	t.Cleanup(store.Close)

	a.refresh(store)

	var m dto.Metric
	require.NoError(t, observability.ExperimentsAvailable.Write(&m))
	assert.InDelta(t, 1, m.GetGauge().GetValue(), 0)
}
