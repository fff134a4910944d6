package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/tethls/internal/logging"
	"github.com/yaklabco/tethls/pkg/config"
	"github.com/yaklabco/tethls/pkg/reporter"
	"github.com/yaklabco/tethls/pkg/runner"
)

// Errors returned when a check found problems. They only select the exit
// code and are not logged.
var (
	ErrIssuesFound   = errors.New("issues found")
	ErrWarningsFound = errors.New("warnings found in strict mode")
)

type checkFlags struct {
	format    string
	ignore    []string
	strict    bool
	noContext bool
	compact   bool
	symlinks  bool
}

func newCheckCommand(global *globalFlags) *cobra.Command {
	var cfg config.Config
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Report syntax and semantic problems in teth sources",
		Long:  checkLongDescription,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, global, &cfg, flags)
		},
	}

	addCheckFlags(cmd, &cfg, flags)

	return cmd
}

const checkLongDescription = `Parse and analyze teth sources and report their problems.

By default, checks every .teth file in the current directory and its
subdirectories. Hidden directories are skipped. Files are analyzed
concurrently through one workspace, so each imported module is read from
the same file system view.

Examples:
  tethls check                     # Check current directory
  tethls check src/                # Check src directory
  tethls check main.teth           # Check a single file
  tethls check --format json       # Output as JSON for CI
  tethls check --stats             # Print analysis cache counters
  tethls check --strict            # Fail on warnings too`

func addCheckFlags(cmd *cobra.Command, cfg *config.Config, flags *checkFlags) {
	cmd.Flags().StringVar(&flags.format, "format", "", "output format: text, table, json")
	cmd.Flags().IntVar(&cfg.Jobs, "jobs", 0, "number of parallel workers (0 = auto)")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "glob patterns to ignore")
	cmd.Flags().BoolVar(&cfg.Stats, "stats", false, "print analysis cache counters")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "treat warnings as errors for exit code")
	cmd.Flags().BoolVar(&flags.noContext, "no-context", false, "hide source line context in output")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "use compact output format")
	cmd.Flags().BoolVar(&flags.symlinks, "follow-symlinks", false, "descend into symlinked directories")
}

func runCheck(cmd *cobra.Command, args []string, global *globalFlags, cli *config.Config, flags *checkFlags) error {
	cli.Format = config.OutputFormat(flags.format)
	cli.Ignore = flags.ignore

	sess, err := newSession(cmd, global, cli)
	if err != nil {
		return err
	}

	format, err := reporter.ParseFormat(string(sess.cfg.Format))
	if err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}

	rep, err := reporter.New(reporter.Options{
		Writer:      cmd.OutOrStdout(),
		Format:      format,
		Color:       sess.cfg.Color,
		ShowContext: !flags.noContext,
		ShowSummary: true,
		ShowStats:   sess.cfg.Stats,
		GroupByFile: true,
		Compact:     flags.compact,
		WorkingDir:  sess.workDir,
	})
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}

	runOpts := runner.OptionsFromConfig(sess.cfg, args)
	runOpts.WorkingDir = sess.workDir
	runOpts.FollowSymlinks = flags.symlinks

	sess.logger.Debug("starting check",
		logging.FieldPaths, runOpts.Paths,
		logging.FieldWorkingDir, runOpts.WorkingDir,
		logging.FieldJobs, runOpts.Jobs,
	)

	result, err := runner.New(sess.workspace()).Run(sess.ctx, runOpts)
	if err != nil {
		return errors.Join(errors.New("check failed"), err)
	}

	sess.logger.Debug("check finished",
		logging.FieldFilesDiscovered, result.Stats.FilesDiscovered,
		logging.FieldFilesProcessed, result.Stats.FilesProcessed,
		logging.FieldFilesWithIssues, result.Stats.FilesWithIssues,
		logging.FieldDiagnosticsTotal, result.Stats.DiagnosticsTotal,
	)

	if _, err := rep.Report(sess.ctx, result); err != nil {
		return fmt.Errorf("report results: %w", err)
	}

	switch ExitCodeFromResult(result, flags.strict) {
	case ExitCheckErrors:
		return ErrIssuesFound
	case ExitCheckWarnings:
		return ErrWarningsFound
	default:
		return nil
	}
}
