package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yaklabco/tethls/internal/logging"
	"github.com/yaklabco/tethls/pkg/config"
	"github.com/yaklabco/tethls/pkg/fsutil"
)

// configFilePermissions is the file mode for configuration files (world-readable).
const configFilePermissions = 0o644

// defaultConfigName is the project configuration file created by init.
const defaultConfigName = ".tethls.yml"

type initFlags struct {
	force  bool
	full   bool
	output string
}

func newInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new tethls configuration file",
		Long: `Create a new .tethls.yml configuration file in the current directory.
The default template only sets the source extension and documents every
other setting in comments.

Examples:
  tethls init                       Create a minimal .tethls.yml
  tethls init --full                Write every setting with its default
  tethls init --output custom.yml   Write to a custom file path`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Overwrite existing configuration file")
	cmd.Flags().BoolVar(&flags.full, "full", false, "Write every setting with its default value")
	cmd.Flags().StringVarP(&flags.output, "output", "o", defaultConfigName, "Output file path")

	return cmd
}

func runInit(cmd *cobra.Command, flags *initFlags) error {
	logger := logging.NewInteractive()
	logger.SetOutput(cmd.ErrOrStderr())

	absPath, err := filepath.Abs(flags.output)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if _, err := os.Stat(absPath); err == nil {
		if !flags.force {
			return fmt.Errorf("file %q already exists; use --force to overwrite", flags.output)
		}
		logger.Warn("overwriting existing file", logging.FieldPath, flags.output)
	}

	content, err := config.GenerateTemplate(config.TemplateOptions{Full: flags.full})
	if err != nil {
		return fmt.Errorf("generate template: %w", err)
	}

	written, err := fsutil.WriteAtomicIfChanged(cmd.Context(), absPath, content, configFilePermissions)
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if !written {
		logger.Info("configuration file is up to date", logging.FieldPath, flags.output)
		return nil
	}

	logger.Info("created configuration file", logging.FieldPath, flags.output)
	logger.Info("run 'tethls check' to check the sources below this directory")

	return nil
}
