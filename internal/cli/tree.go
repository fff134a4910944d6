package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/tethls/internal/ui/pretty"
)

type treeFlags struct {
	trivia    bool
	positions bool
}

func newTreeCommand(global *globalFlags) *cobra.Command {
	flags := &treeFlags{}

	cmd := &cobra.Command{
		Use:   "tree <file>",
		Short: "Print the concrete syntax tree of a teth source",
		Long: `Print the concrete syntax tree of a teth source, one node per line.

Composite nodes show their kind and byte range; leaves also show their
token kind and quoted text. Whitespace and comments are hidden unless
--trivia is given. Parse problems are reported on stderr.

Examples:
  tethls tree main.teth
  tethls tree --trivia --positions main.teth`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, args[0], global, flags, false)
		},
	}

	addTreeFlags(cmd, flags)
	return cmd
}

func newTokensCommand(global *globalFlags) *cobra.Command {
	flags := &treeFlags{}

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the classified token stream of a teth source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, args[0], global, flags, true)
		},
	}

	addTreeFlags(cmd, flags)
	return cmd
}

func addTreeFlags(cmd *cobra.Command, flags *treeFlags) {
	cmd.Flags().BoolVar(&flags.trivia, "trivia", false, "include whitespace and comments")
	cmd.Flags().BoolVar(&flags.positions, "positions", false, "print line:column ranges instead of offsets")
}

func runTree(cmd *cobra.Command, path string, global *globalFlags, flags *treeFlags, tokensOnly bool) error {
	sess, err := newSession(cmd, global, nil)
	if err != nil {
		return err
	}

	ws := sess.workspace()
	unit, err := sess.loadUnit(ws, path)
	if err != nil {
		return err
	}

	tree, err := ws.GetCST(sess.ctx, unit)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}

	out := cmd.OutOrStdout()
	styles := pretty.NewStyles(pretty.IsColorEnabled(sess.cfg.Color, out))
	opts := pretty.TreeOptions{ShowTrivia: flags.trivia, Positions: flags.positions}

	if tokensOnly {
		fmt.Fprint(out, styles.FormatTokens(tree, opts))
	} else {
		fmt.Fprint(out, styles.FormatTree(tree, opts))
	}

	errOut := cmd.ErrOrStderr()
	errStyles := pretty.NewStyles(pretty.IsColorEnabled(sess.cfg.Color, errOut))
	for _, p := range tree.Problems {
		fmt.Fprint(errOut, errStyles.FormatDiagnostic(sess.displayPath(path), unit, p, false))
	}
	return nil
}
