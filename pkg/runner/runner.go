package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/tethls/internal/logging"
	"github.com/yaklabco/tethls/pkg/analysis"
	"github.com/yaklabco/tethls/pkg/module"
	"github.com/yaklabco/tethls/pkg/source"
)

// ErrUnreadable is recorded for files that disappear or cannot be read
// between discovery and analysis.
var ErrUnreadable = errors.New("file cannot be read")

// Workspace provides units and their analyses. *workspace.Workspace
// implements it.
type Workspace interface {
	Unit(ctx context.Context, id source.ID) (*source.Unit, bool, error)
	GetAnalysis(ctx context.Context, unit *source.Unit) (*analysis.Entry, error)
	Stats() analysis.Stats
}

// Runner checks files through a shared workspace, so imports analyzed
// for one file are parsed from the same overlay as the others.
type Runner struct {
	Workspace Workspace
}

// New creates a runner over ws.
func New(ws Workspace) *Runner {
	return &Runner{Workspace: ws}
}

// Run discovers files under opts.Paths and analyzes them concurrently.
// Per-file failures are recorded in the outcomes; only discovery errors
// and cancellation are returned.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	files, err := Discover(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{Stats: newStats()}
	result.Stats.FilesDiscovered = len(files)

	outcomes := make([]FileOutcome, len(files))

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = r.check(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	for _, outcome := range outcomes {
		result.accumulate(outcome)
	}
	result.Stats.Cache = r.Workspace.Stats()
	return result, nil
}

// check analyzes a single file.
func (r *Runner) check(ctx context.Context, path string) FileOutcome {
	id := module.Normalize(path)
	outcome := FileOutcome{Path: path, ID: id}
	ctx = logging.WithFields(ctx, logging.FieldPath, id)

	unit, ok, err := r.Workspace.Unit(ctx, id)
	switch {
	case err != nil:
		outcome.Error = err
		return outcome
	case !ok:
		logging.FromContext(ctx).Debug("file vanished after discovery")
		outcome.Error = fmt.Errorf("%w: %s", ErrUnreadable, path)
		return outcome
	}
	outcome.Unit = unit

	entry, err := r.Workspace.GetAnalysis(ctx, unit)
	if err != nil {
		outcome.Error = err
		return outcome
	}
	outcome.Diagnostics = entry.Diagnostics
	return outcome
}
