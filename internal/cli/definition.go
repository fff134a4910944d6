package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/tethls/internal/logging"
	"github.com/yaklabco/tethls/pkg/source"
)

// ErrNoDefinition is returned when the position names nothing that can be
// navigated to.
var ErrNoDefinition = errors.New("no definition found")

func newDefinitionCommand(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "definition <file> <line:col>",
		Short: "Find the declaration an identifier refers to",
		Long: `Resolve the identifier at a 1-based line and column and print the
location and kind of the declaration it refers to, which may be in an
imported module.

Examples:
  tethls definition main.teth 3:9`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDefinition(cmd, args[0], args[1], global)
		},
	}
}

func runDefinition(cmd *cobra.Command, path, at string, global *globalFlags) error {
	pos, err := parsePosition(at)
	if err != nil {
		return err
	}

	sess, err := newSession(cmd, global, nil)
	if err != nil {
		return err
	}

	ws := sess.workspace()
	unit, err := sess.loadUnit(ws, path)
	if err != nil {
		return err
	}

	offset, ok := unit.Offset(pos)
	if !ok {
		return fmt.Errorf("position %s is outside %s", at, path)
	}

	def, err := ws.DefinitionAt(sess.ctx, unit.ID(), offset)
	if err != nil {
		return fmt.Errorf("find definition: %w", err)
	}
	if def == nil {
		return ErrNoDefinition
	}

	target := def.Tree.Unit
	start := target.Position(def.Name.Start)
	if def.Name.IsEmpty() {
		start = target.Position(def.Node.StartOffset)
	}

	sess.logger.Debug("definition found",
		logging.FieldModule, target.ID(),
		logging.FieldOffset, def.Name.Start,
	)

	name := ""
	if ident := def.Node.NameIdentifier(); ident != nil {
		name = ident.Text(target.Text())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s:%d:%d %s %s\n",
		sess.displayPath(filepath.FromSlash(target.ID().String())),
		start.Line, start.Column,
		strings.ToLower(def.Node.Kind.String()),
		name,
	)
	return nil
}

// parsePosition parses a 1-based "line:col" pair.
func parsePosition(at string) (source.Position, error) {
	lineText, colText, found := strings.Cut(at, ":")
	if !found {
		return source.Position{}, fmt.Errorf("invalid position %q: want line:col", at)
	}
	line, err := strconv.Atoi(lineText)
	if err != nil {
		return source.Position{}, fmt.Errorf("invalid line in %q: %w", at, err)
	}
	col, err := strconv.Atoi(colText)
	if err != nil {
		return source.Position{}, fmt.Errorf("invalid column in %q: %w", at, err)
	}
	pos := source.Position{Line: line, Column: col}
	if !pos.IsValid() {
		return source.Position{}, fmt.Errorf("invalid position %q: line and column start at 1", at)
	}
	return pos, nil
}
