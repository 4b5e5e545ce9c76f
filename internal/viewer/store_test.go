package viewer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/linking-dashboard/internal/core/errors"
	"github.com/lueurxax/linking-dashboard/internal/core/results"
)

type fakeLoader struct {
	articles  []results.Article
	cases     [][]results.Case
	linked    []results.LinkedArticle
	casesErr  error
	release   chan struct{}
	caseReads atomic.Int32
}

func (f *fakeLoader) ReadArticles(_ context.Context, _ string) ([]results.Article, error) {
	return f.articles, nil
}

func (f *fakeLoader) ReadCases(ctx context.Context, _ results.Experiment) ([][]results.Case, error) {
	f.caseReads.Add(1)

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return f.cases, f.casesErr
}

func (f *fakeLoader) ReadLinkedArticles(_ context.Context, _ results.Experiment) ([]results.LinkedArticle, error) {
	return f.linked, nil
}

var testExperiment = results.Experiment{Linker: "refined", Benchmark: "kore50"}

func newTestStore(t *testing.T, loader Loader, cfg StoreConfig) *Store {
	t.Helper()

	logger := zerolog.Nop()
	store := NewStore(loader, NewCache(4), cfg, &logger)
	t.Cleanup(store.Close)

	return store
}

func fastPolling(attempts int) StoreConfig {
	return StoreConfig{PollAttempts: attempts, PollInterval: time.Millisecond, MaxPollInterval: 5 * time.Millisecond}
}

func TestStore_WaitLoadsData(t *testing.T) {
	loader := &fakeLoader{
		articles: []results.Article{{ID: "a1", Text: "Berlin"}},
		cases:    [][]results.Case{{}},
		linked:   []results.LinkedArticle{{ID: "a1"}},
	}
	store := newTestStore(t, loader, fastPolling(200))

	data, err := store.Wait(context.Background(), testExperiment)
	require.NoError(t, err)
	assert.Len(t, data.Articles, 1)
	assert.Equal(t, "a1", data.Linked["a1"].ID)

	_, err = store.Wait(context.Background(), testExperiment)
	require.NoError(t, err)
	assert.Equal(t, int32(1), loader.caseReads.Load(), "cached data is not reloaded")
}

func TestStore_WaitGivesUpWithNoData(t *testing.T) {
	loader := &fakeLoader{release: make(chan struct{})}
	store := newTestStore(t, loader, fastPolling(2))

	_, err := store.Wait(context.Background(), testExperiment)
	require.ErrorIs(t, err, apperrors.ErrNoData)

	entry, ok := store.Cache().Get(testExperiment.Key())
	require.True(t, ok)
	assert.Equal(t, StateLoading, entry.State)

	close(loader.release)
}

func TestStore_LoadFailureIsNotRetried(t *testing.T) {
	loader := &fakeLoader{casesErr: errors.New("disk on fire")}
	store := newTestStore(t, loader, fastPolling(200))

	_, err := store.Wait(context.Background(), testExperiment)
	require.ErrorIs(t, err, apperrors.ErrLoadFailed)

	_, err = store.Wait(context.Background(), testExperiment)
	require.ErrorIs(t, err, apperrors.ErrLoadFailed)
	assert.Equal(t, int32(1), loader.caseReads.Load())
}

func TestStore_ReloadAfterFailure(t *testing.T) {
	loader := &fakeLoader{casesErr: errors.New("disk on fire")}
	store := newTestStore(t, loader, fastPolling(200))

	_, err := store.Wait(context.Background(), testExperiment)
	require.ErrorIs(t, err, apperrors.ErrLoadFailed)

	store.Reload(testExperiment)
	_, _ = store.Wait(context.Background(), testExperiment)

	assert.Equal(t, int32(2), loader.caseReads.Load())
}

func TestStore_CaseCountMismatchFails(t *testing.T) {
	loader := &fakeLoader{
		articles: []results.Article{{ID: "a1"}, {ID: "a2"}},
		cases:    [][]results.Case{{}},
	}
	store := newTestStore(t, loader, fastPolling(200))

	_, err := store.Wait(context.Background(), testExperiment)
	require.ErrorIs(t, err, apperrors.ErrLoadFailed)
	require.ErrorIs(t, err, apperrors.ErrCaseCountMismatch)
}

func TestStore_WaitHonoursContext(t *testing.T) {
	loader := &fakeLoader{release: make(chan struct{})}
	store := newTestStore(t, loader, StoreConfig{PollAttempts: 1000, PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := store.Wait(ctx, testExperiment)
	require.ErrorIs(t, err, apperrors.ErrNoData)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(loader.release)
}

type fakeStater struct {
	modified time.Time
	err      error
}

func (f fakeStater) ModifiedAt(results.Experiment) (time.Time, error) {
	return f.modified, f.err
}

func TestStore_RefreshReloadsChangedExperiments(t *testing.T) {
	loader := &fakeLoader{cases: [][]results.Case{}}
	store := newTestStore(t, loader, fastPolling(200))

	data, err := store.Wait(context.Background(), testExperiment)
	require.NoError(t, err)
	require.False(t, data.LoadedAt.IsZero())

	assert.Equal(t, 0, store.Refresh(fakeStater{modified: data.LoadedAt.Add(-time.Hour)}))
	assert.Equal(t, 0, store.Refresh(fakeStater{err: errors.New("stat failed")}))
	assert.Equal(t, int32(1), loader.caseReads.Load())

	assert.Equal(t, 1, store.Refresh(fakeStater{modified: data.LoadedAt.Add(time.Hour)}))

	_, err = store.Wait(context.Background(), testExperiment)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.caseReads.Load())
}

// slowFirstLoader blocks its first case read until unblock is closed and then
// fails it; later reads succeed at once.
type slowFirstLoader struct {
	fakeLoader
	unblock chan struct{}
	calls   atomic.Int32
}

func (l *slowFirstLoader) ReadCases(ctx context.Context, _ results.Experiment) ([][]results.Case, error) {
	if l.calls.Add(1) == 1 {
		select {
		case <-l.unblock:
		case <-ctx.Done():
		}

		return nil, errors.New("old read")
	}

	return [][]results.Case{{}}, nil
}

func TestStore_ReloadDiscardsSupersededLoad(t *testing.T) {
	loader := &slowFirstLoader{
		fakeLoader: fakeLoader{articles: []results.Article{{ID: "a1"}}},
		unblock:    make(chan struct{}),
	}
	store := newTestStore(t, loader, fastPolling(200))

	store.Load(testExperiment)
	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)

	store.Reload(testExperiment)

	data, err := store.Wait(context.Background(), testExperiment)
	require.NoError(t, err)

	close(loader.unblock)
	store.Close()

	entry, ok := store.Cache().Get(testExperiment.Key())
	require.True(t, ok)
	assert.Equal(t, StateReady, entry.State)
	assert.Same(t, data, entry.Data)
}
