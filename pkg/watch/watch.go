// Package watch invalidates analysis results when teth sources change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/yaklabco/tethls/internal/logging"
	"github.com/yaklabco/tethls/pkg/module"
	"github.com/yaklabco/tethls/pkg/source"
)

// DefaultDebounce is how long the watcher waits for more events before it
// reports a batch.
const DefaultDebounce = 100 * time.Millisecond

// Op is the kind of a file change.
type Op int

const (
	// OpCreate is a new file.
	OpCreate Op = iota
	// OpWrite is modified content.
	OpWrite
	// OpRemove is a deleted or renamed-away file.
	OpRemove
)

// String returns the name of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Change is one changed source file.
type Change struct {
	// ID is the unit identity of the file.
	ID source.ID

	// Path is the host path reported by the file system.
	Path string

	// Op is the last operation seen for the file within the batch.
	Op Op
}

// Handler receives debounced batches of changes, one file per entry, in
// path order. It is called from a single goroutine.
type Handler func(ctx context.Context, changes []Change)

// Invalidator drops cached results of a unit.
type Invalidator interface {
	Invalidate(id source.ID)
}

// InvalidateOn returns a handler that invalidates every changed unit.
func InvalidateOn(target Invalidator) Handler {
	return func(_ context.Context, changes []Change) {
		for _, c := range changes {
			target.Invalidate(c.ID)
		}
	}
}

// Watcher reports changes of teth source files below a root directory.
type Watcher struct {
	root     string
	handler  Handler
	debounce time.Duration
	ignore   []string
	logger   *log.Logger

	fsw *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a batch is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore adds base-name glob patterns of files and directories to skip.
func WithIgnore(patterns ...string) Option {
	return func(w *Watcher) {
		w.ignore = append(w.ignore, patterns...)
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(logger *log.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// New creates a watcher for root and every directory below it. Events are
// buffered from then on; call Run to process them.
func New(root string, handler Handler, opts ...Option) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: nil handler")
	}

	w := &Watcher{
		root:     root,
		handler:  handler,
		debounce: DefaultDebounce,
		ignore:   []string{".git", "node_modules", ".idea", "*.swp", "*.tmp"},
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w.fsw = fsw

	if err := w.addRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	return w, nil
}

// Run watches until ctx is done. Pending changes are reported before Run
// returns. The watcher cannot be reused afterwards.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	w.logger.Debug("watching", logging.FieldPath, w.root)

	pending := make(map[string]Change)
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
		if len(pending) == 0 {
			return
		}
		batch := make([]Change, 0, len(pending))
		for _, c := range pending {
			batch = append(batch, c)
		}
		slices.SortFunc(batch, func(a, b Change) int {
			return strings.Compare(a.Path, b.Path)
		})
		clear(pending)
		w.handler(ctx, batch)
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				flush()
				return nil
			}
			change, ok := w.convert(event)
			if !ok {
				continue
			}
			pending[change.Path] = change
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			flush()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				flush()
				return nil
			}
			w.logger.Warn("watch error", logging.FieldError, err)
		}
	}
}

// convert maps an fsnotify event to a change. New directories are added to
// the watch list and produce no change.
func (w *Watcher) convert(event fsnotify.Event) (Change, bool) {
	if w.ignored(event.Name) {
		return Change{}, false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("cannot watch directory", logging.FieldPath, event.Name, logging.FieldError, err)
			}
			return Change{}, false
		}
	}

	if !module.IsSourcePath(event.Name) {
		return Change{}, false
	}

	change := Change{ID: module.Normalize(event.Name), Path: event.Name}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		change.Op = OpRemove
	case event.Has(fsnotify.Create):
		change.Op = OpCreate
	case event.Has(fsnotify.Write):
		change.Op = OpWrite
	default:
		return Change{}, false
	}
	return change, true
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.ignore {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
