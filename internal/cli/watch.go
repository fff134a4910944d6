package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/tethls/internal/logging"
	"github.com/yaklabco/tethls/pkg/config"
	"github.com/yaklabco/tethls/pkg/reporter"
	"github.com/yaklabco/tethls/pkg/runner"
	"github.com/yaklabco/tethls/pkg/watch"
	"github.com/yaklabco/tethls/pkg/workspace"
)

// shutdownTimeout bounds how long the metrics server may take to stop.
const shutdownTimeout = 5 * time.Second

type watchFlags struct {
	debounce    time.Duration
	metricsAddr string
}

func newWatchCommand(global *globalFlags) *cobra.Command {
	var cfg config.Config
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-check teth sources whenever they change",
		Long: `Check every teth source below dir, then watch the directory tree and
re-check after each burst of changes. Changed files invalidate the analysis
cache; unchanged imports are re-read only when a new analysis needs them.

With --metrics-addr, analysis cache counters are served in the Prometheus
text format at /metrics.

Examples:
  tethls watch
  tethls watch src --debounce 250ms
  tethls watch --metrics-addr :9464`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runWatch(cmd, dir, global, &cfg, flags)
		},
	}

	cmd.Flags().DurationVar(&flags.debounce, "debounce", 0, "quiet period before re-checking (default from config)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve cache metrics on this address")
	cmd.Flags().IntVar(&cfg.Jobs, "jobs", 0, "number of parallel workers (0 = auto)")

	return cmd
}

func runWatch(cmd *cobra.Command, dir string, global *globalFlags, cli *config.Config, flags *watchFlags) error {
	cli.Watch.Debounce = flags.debounce
	if flags.metricsAddr != "" {
		cli.Cache.Metrics = true
	}

	sess, err := newSession(cmd, global, cli)
	if err != nil {
		return err
	}

	root := dir
	if !filepath.IsAbs(root) {
		root = filepath.Join(sess.workDir, root)
	}

	ctx, stop := signal.NotifyContext(sess.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws := sess.workspace()
	check := &watchChecker{
		sess: sess,
		ws:   ws,
		out:  cmd,
		opts: runner.OptionsFromConfig(sess.cfg, []string{root}),
	}
	check.opts.WorkingDir = sess.workDir

	if err := check.run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	invalidate := watch.InvalidateOn(ws)
	watcher, err := watch.New(root,
		func(ctx context.Context, changes []watch.Change) {
			invalidate(ctx, changes)
			sess.logger.Info("sources changed", logging.FieldChanges, len(changes))
			if err := check.run(ctx); err != nil && ctx.Err() == nil {
				sess.logger.Error("check failed", logging.FieldError, err)
			}
		},
		watch.WithDebounce(sess.cfg.Watch.Debounce),
		watch.WithIgnore(watchIgnores(sess.cfg.Ignore)...),
		watch.WithLogger(sess.logger),
	)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	sess.logger.Info("watching for changes", logging.FieldPath, sess.displayPath(root))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	if flags.metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, sess, flags.metricsAddr)
		})
	}
	return g.Wait()
}

// watchChecker re-runs a check through a long-lived workspace.
type watchChecker struct {
	sess *session
	ws   *workspace.Workspace
	out  *cobra.Command
	opts runner.Options
}

func (c *watchChecker) run(ctx context.Context) error {
	result, err := runner.New(c.ws).Run(ctx, c.opts)
	if err != nil {
		return err
	}

	format, err := reporter.ParseFormat(string(c.sess.cfg.Format))
	if err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	rep, err := reporter.New(reporter.Options{
		Writer:      c.out.OutOrStdout(),
		Format:      format,
		Color:       c.sess.cfg.Color,
		ShowContext: true,
		ShowSummary: true,
		ShowStats:   c.sess.cfg.Stats,
		GroupByFile: true,
		WorkingDir:  c.sess.workDir,
	})
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}
	_, err = rep.Report(ctx, result)
	return err
}

// watchIgnores keeps the ignore patterns that name a single path element;
// the watcher matches them against base names.
func watchIgnores(patterns []string) []string {
	var out []string
	for _, p := range patterns {
		if filepath.Base(p) == p {
			out = append(out, p)
		}
	}
	return out
}

func serveMetrics(ctx context.Context, sess *session, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(sess.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		sess.logger.Info("serving metrics", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve metrics: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("stop metrics server: %w", err)
		}
		return nil
	}
}
