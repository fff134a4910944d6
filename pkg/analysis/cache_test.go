package analysis_test

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"weak"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/tethls/pkg/analysis"
	"github.com/yaklabco/tethls/pkg/parser/teth"
	"github.com/yaklabco/tethls/pkg/source"
)

// countingCompute returns a ComputeFunc that records how often it ran.
func countingCompute(calls *atomic.Int32) analysis.ComputeFunc {
	return func(_ context.Context, unit *source.Unit) (*analysis.Entry, error) {
		calls.Add(1)
		return analysis.NewEntry(unit, nil, nil, nil), nil
	}
}

func TestResolveIsCoherent(t *testing.T) {
	t.Parallel()

	cache := analysis.New()
	unit := source.NewUnit("/ws/a.teth", "let a = 1")
	var calls atomic.Int32

	first, err := cache.Resolve(context.Background(), unit, countingCompute(&calls))
	require.NoError(t, err)
	second, err := cache.Resolve(context.Background(), unit, countingCompute(&calls))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	present, ok := cache.GetIfPresent("/ws/a.teth")
	require.True(t, ok)
	assert.Same(t, first, present)
	assert.Same(t, unit, first.Unit())

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestInvalidateIsVisible(t *testing.T) {
	t.Parallel()

	cache := analysis.New()
	unit := source.NewUnit("/ws/a.teth", "let a = 1")
	other := source.NewUnit("/ws/b.teth", "let b = 1")
	var calls atomic.Int32

	before, err := cache.Resolve(context.Background(), unit, countingCompute(&calls))
	require.NoError(t, err)
	_, err = cache.Resolve(context.Background(), other, countingCompute(&calls))
	require.NoError(t, err)

	cache.Invalidate("/ws/b.teth")

	// Every unit is dropped, not only the mutated one.
	_, ok := cache.GetIfPresent("/ws/a.teth")
	assert.False(t, ok)
	_, ok = cache.GetIfPresent("/ws/b.teth")
	assert.False(t, ok)

	after, err := cache.Resolve(context.Background(), unit, countingCompute(&calls))
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Greater(t, after.Generation, before.Generation)
	assert.Equal(t, int32(3), calls.Load())
}

func TestConcurrentResolveComputesOnce(t *testing.T) {
	t.Parallel()

	cache := analysis.New()
	unit := source.NewUnit("/ws/a.teth", "let a = 1")
	var calls atomic.Int32

	slow := func(_ context.Context, u *source.Unit) (*analysis.Entry, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return analysis.NewEntry(u, nil, nil, nil), nil
	}

	const callers = 8
	entries := make([]*analysis.Entry, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := cache.Resolve(context.Background(), unit, slow)
			assert.NoError(t, err)
			entries[i] = entry
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, entry := range entries[1:] {
		assert.Same(t, entries[0], entry)
	}
}

func TestFailuresAreNotCached(t *testing.T) {
	t.Parallel()

	cache := analysis.New()
	unit := source.NewUnit("/ws/a.teth", "let a = 1")
	boom := errors.New("boom")
	var calls atomic.Int32

	flaky := func(_ context.Context, u *source.Unit) (*analysis.Entry, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return analysis.NewEntry(u, nil, nil, nil), nil
	}

	_, err := cache.Resolve(context.Background(), unit, flaky)
	require.ErrorIs(t, err, boom)
	_, ok := cache.GetIfPresent(unit.ID())
	assert.False(t, ok)

	entry, err := cache.Resolve(context.Background(), unit, flaky)
	require.NoError(t, err)
	assert.NotNil(t, entry)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int64(1), cache.Stats().Failures)
}

func TestNilEntryIsAFailure(t *testing.T) {
	t.Parallel()

	cache := analysis.New()
	_, err := cache.Resolve(context.Background(), source.NewUnit("/ws/a.teth", ""),
		func(context.Context, *source.Unit) (*analysis.Entry, error) { return nil, nil })
	require.ErrorIs(t, err, analysis.ErrNilEntry)
}

func TestCancelledCallerDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	cache := analysis.New()
	unit := source.NewUnit("/ws/a.teth", "let a = 1")
	release := make(chan struct{})
	started := make(chan struct{})
	var computeErr atomic.Value

	gated := func(ctx context.Context, u *source.Unit) (*analysis.Entry, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			computeErr.Store(err)
		}
		return analysis.NewEntry(u, nil, nil, nil), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Resolve(ctx, unit, gated)
		firstErr <- err
	}()
	<-started

	secondEntry := make(chan *analysis.Entry, 1)
	go func() {
		entry, err := cache.Resolve(context.Background(), unit, gated)
		assert.NoError(t, err)
		secondEntry <- entry
	}()

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	entry := <-secondEntry
	require.NotNil(t, entry)
	assert.Nil(t, computeErr.Load(), "computation must not see the caller's cancellation")

	cached, ok := cache.GetIfPresent(unit.ID())
	require.True(t, ok)
	assert.Same(t, entry, cached)
}

func TestInFlightResultIsDroppedByInvalidate(t *testing.T) {
	t.Parallel()

	cache := analysis.New()
	unit := source.NewUnit("/ws/a.teth", "let a = 1")
	release := make(chan struct{})
	started := make(chan struct{})

	gated := func(_ context.Context, u *source.Unit) (*analysis.Entry, error) {
		close(started)
		<-release
		return analysis.NewEntry(u, nil, nil, nil), nil
	}

	done := make(chan *analysis.Entry, 1)
	go func() {
		entry, err := cache.Resolve(context.Background(), unit, gated)
		assert.NoError(t, err)
		done <- entry
	}()
	<-started

	cache.Invalidate(unit.ID())
	close(release)
	stale := <-done
	require.NotNil(t, stale)

	_, ok := cache.GetIfPresent(unit.ID())
	assert.False(t, ok, "a result started before the invalidation must not be visible after it")
}

func TestMaxEntriesEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	cache := analysis.New(analysis.WithMaxEntries(2))
	a := source.NewUnit("/ws/a.teth", "")
	b := source.NewUnit("/ws/b.teth", "")
	c := source.NewUnit("/ws/c.teth", "")
	var calls atomic.Int32
	ctx := context.Background()

	for _, u := range []*source.Unit{a, b} {
		_, err := cache.Resolve(ctx, u, countingCompute(&calls))
		require.NoError(t, err)
	}

	// Touch a so that b becomes the oldest.
	_, err := cache.Resolve(ctx, a, countingCompute(&calls))
	require.NoError(t, err)
	_, err = cache.Resolve(ctx, c, countingCompute(&calls))
	require.NoError(t, err)

	_, ok := cache.GetIfPresent(b.ID())
	assert.False(t, ok)
	_, ok = cache.GetIfPresent(a.ID())
	assert.True(t, ok)
	_, ok = cache.GetIfPresent(c.ID())
	assert.True(t, ok)

	assert.Equal(t, int64(1), cache.Stats().Evictions)
	assert.Equal(t, 2, cache.Stats().Entries)
}

func TestEntriesAreReapedWithTheirUnit(t *testing.T) {
	t.Parallel()

	cache := analysis.New()
	var calls atomic.Int32

	func() {
		unit := source.NewUnit("/ws/tmp.teth", strings.Repeat("let a = 1\n", 4))
		_, err := cache.Resolve(context.Background(), unit, countingCompute(&calls))
		require.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return cache.Stats().Reaped == 1
	}, 5*time.Second, 10*time.Millisecond)

	_, ok := cache.GetIfPresent("/ws/tmp.teth")
	assert.False(t, ok)
}

func TestInvalidatedEntriesAreReleasedWhileUnitIsAlive(t *testing.T) {
	t.Parallel()

	cache := analysis.New()
	unit := source.NewUnit("/ws/open.teth", "let a = 1")
	var calls atomic.Int32

	released := make([]weak.Pointer[analysis.Entry], 0, 5)
	for range 5 {
		entry, err := cache.Resolve(context.Background(), unit, countingCompute(&calls))
		require.NoError(t, err)
		released = append(released, weak.Make(entry))
		cache.Invalidate(unit.ID())
	}

	require.Eventually(t, func() bool {
		runtime.GC()
		for _, p := range released {
			if p.Value() != nil {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond, "entries of invalidated generations must not be pinned by the unit")

	runtime.KeepAlive(unit)
	assert.Equal(t, int64(0), cache.Stats().Reaped)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	cache := analysis.New(analysis.WithRegisterer(reg))
	unit := source.NewUnit("/ws/a.teth", "let a = 1")
	var calls atomic.Int32

	for range 3 {
		_, err := cache.Resolve(context.Background(), unit, countingCompute(&calls))
		require.NoError(t, err)
	}
	cache.Invalidate(unit.ID())

	expected := `
# HELP tethls_analysis_cache_computations_total Analyses started by the cache.
# TYPE tethls_analysis_cache_computations_total counter
tethls_analysis_cache_computations_total 1
# HELP tethls_analysis_cache_hits_total Resolve calls answered from the cache.
# TYPE tethls_analysis_cache_hits_total counter
tethls_analysis_cache_hits_total 2
# HELP tethls_analysis_cache_invalidations_total Cache invalidations.
# TYPE tethls_analysis_cache_invalidations_total counter
tethls_analysis_cache_invalidations_total 1
# HELP tethls_analysis_cache_misses_total Resolve calls that found no cached entry.
# TYPE tethls_analysis_cache_misses_total counter
tethls_analysis_cache_misses_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"tethls_analysis_cache_computations_total",
		"tethls_analysis_cache_hits_total",
		"tethls_analysis_cache_invalidations_total",
		"tethls_analysis_cache_misses_total",
	))
}

func TestComputeCollectsDiagnostics(t *testing.T) {
	t.Parallel()

	text := "let a = missing\nlet b = )\n"
	unit := source.NewUnit("/ws/a.teth", text)

	entry, err := analysis.Compute(teth.New(), nil)(context.Background(), unit)
	require.NoError(t, err)

	var messages []string
	for _, p := range entry.Diagnostics {
		messages = append(messages, p.Message)
	}
	assert.Equal(t, []string{"Unresolved identifier 'missing'", "Expected an expression"}, messages)
	assert.True(t, entry.HasErrors())

	ref := entry.ReferenceAt(strings.Index(text, "missing") + 2)
	require.NotNil(t, ref)
	assert.Equal(t, "missing", ref.Name)
	assert.Nil(t, entry.Analyzer.ResolvedReference(ref))

	name := entry.ReferenceAt(strings.Index(text, "b"))
	require.NotNil(t, name)
	assert.Equal(t, "b", name.Name)

	assert.Nil(t, entry.ReferenceAt(len(text)))
}
