// Package cli provides the Cobra command structure for tethls.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/tethls/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	debug      bool
	configPath string
	color      string
}

// NewRootCommand creates the root tethls command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "tethls",
		Short: "Syntax trees, diagnostics, and navigation for teth sources",
		Long: `tethls is the language-service core for the teth language.

It builds lossless concrete syntax trees over teth sources, caches semantic
analysis per source unit, and maps resolved references back to declarations
for go-to-definition. The commands below expose those services on the
command line: check a workspace, inspect trees and tokens, look up
definitions, or watch a directory and re-check on change.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if flags.debug {
				logging.SetLevel("debug")
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flags.color, "color", "auto",
		"colorize output: auto, always, never")

	rootCmd.AddCommand(newCheckCommand(flags))
	rootCmd.AddCommand(newTreeCommand(flags))
	rootCmd.AddCommand(newTokensCommand(flags))
	rootCmd.AddCommand(newDefinitionCommand(flags))
	rootCmd.AddCommand(newWatchCommand(flags))
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	NewHelpFormatter(flags.color, os.Stdout).ApplyToCommand(rootCmd)

	return rootCmd
}
