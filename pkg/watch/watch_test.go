package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/tethls/pkg/module"
	"github.com/yaklabco/tethls/pkg/source"
	"github.com/yaklabco/tethls/pkg/watch"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]watch.Change
	ids     []source.ID
}

func (r *recorder) handle(_ context.Context, changes []watch.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, changes)
}

func (r *recorder) Invalidate(id source.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *recorder) changes() []watch.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []watch.Change
	for _, b := range r.batches {
		all = append(all, b...)
	}
	return all
}

func (r *recorder) invalidated() []source.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]source.ID(nil), r.ids...)
}

func start(t *testing.T, w *watch.Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
}

func TestWatcherReportsSourceChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := &recorder{}
	w, err := watch.New(dir, rec.handle, watch.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	start(t, w)

	path := filepath.Join(dir, "a.teth")
	require.NoError(t, os.WriteFile(path, []byte("let a = 1\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	require.Eventually(t, func() bool {
		return len(rec.changes()) > 0
	}, 5*time.Second, 10*time.Millisecond)

	for _, c := range rec.changes() {
		assert.Equal(t, module.Normalize(path), c.ID)
		assert.Contains(t, []watch.Op{watch.OpCreate, watch.OpWrite}, c.Op)
	}
}

func TestWatcherDebouncesIntoOneBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := &recorder{}
	w, err := watch.New(dir, rec.handle, watch.WithDebounce(200*time.Millisecond))
	require.NoError(t, err)
	start(t, w)

	path := filepath.Join(dir, "a.teth")
	for i := range 5 {
		require.NoError(t, os.WriteFile(path, []byte{byte('0' + i)}, 0o600))
	}

	require.Eventually(t, func() bool {
		return len(rec.changes()) > 0
	}, 5*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.batches, 1)
	assert.Len(t, rec.batches[0], 1, "repeated writes to one file are merged")
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := &recorder{}
	w, err := watch.New(dir, watch.InvalidateOn(rec), watch.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	start(t, w)

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o700))
	path := filepath.Join(sub, "b.teth")

	// The new directory is registered asynchronously, so keep touching the
	// file until an event arrives.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("let b = 1\n"), 0o600)
		return len(rec.invalidated()) > 0
	}, 5*time.Second, 50*time.Millisecond)

	assert.Contains(t, rec.invalidated(), module.Normalize(path))
}

func TestWatcherSkipsIgnoredDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ignored := filepath.Join(dir, "vendor")
	require.NoError(t, os.Mkdir(ignored, 0o700))

	rec := &recorder{}
	w, err := watch.New(dir, rec.handle,
		watch.WithDebounce(20*time.Millisecond),
		watch.WithIgnore("vendor"),
	)
	require.NoError(t, err)
	start(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(ignored, "x.teth"), []byte("x"), 0o600))
	marker := filepath.Join(dir, "marker.teth")
	require.NoError(t, os.WriteFile(marker, []byte("m"), 0o600))

	require.Eventually(t, func() bool {
		return len(rec.changes()) > 0
	}, 5*time.Second, 10*time.Millisecond)

	for _, c := range rec.changes() {
		assert.Equal(t, marker, c.Path)
	}
}

func TestNewRejectsMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := watch.New(filepath.Join(t.TempDir(), "missing"), func(context.Context, []watch.Change) {})
	require.Error(t, err)

	_, err = watch.New(t.TempDir(), nil)
	require.Error(t, err)
}

func TestOpString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "create", watch.OpCreate.String())
	assert.Equal(t, "write", watch.OpWrite.String())
	assert.Equal(t, "remove", watch.OpRemove.String())
	assert.Equal(t, "unknown", watch.Op(42).String())
}
