package analysis

import (
	"context"
	"fmt"
	"slices"
	"weak"

	"github.com/yaklabco/tethls/pkg/source"
	"github.com/yaklabco/tethls/pkg/teth/analyzer"
	"github.com/yaklabco/tethls/pkg/teth/ast"
)

// Entry is the analysis result of one source unit. Entries are replaced
// wholesale and must not be modified by consumers.
type Entry struct {
	// ID identifies the analyzed unit.
	ID source.ID

	// AST is the transient tree the analysis ran on. It is unrelated to the
	// nodes of any CST.
	AST *ast.Unit

	// Analyzer answers reference and type queries about AST.
	Analyzer *analyzer.Analyzer

	// Diagnostics are the parse and analysis problems of the unit.
	Diagnostics []source.Problem

	// Generation is the cache generation the entry was computed in.
	Generation uint64

	unit weak.Pointer[source.Unit]
}

// NewEntry creates an entry for unit. The entry does not keep unit alive.
func NewEntry(unit *source.Unit, root *ast.Unit, a *analyzer.Analyzer, diagnostics []source.Problem) *Entry {
	return &Entry{
		ID:          unit.ID(),
		AST:         root,
		Analyzer:    a,
		Diagnostics: diagnostics,
		unit:        weak.Make(unit),
	}
}

// Unit returns the analyzed unit, or nil once it has been collected.
func (e *Entry) Unit() *source.Unit {
	return e.unit.Value()
}

// HasErrors reports whether any diagnostic is an error.
func (e *Entry) HasErrors() bool {
	return source.HasErrors(e.Diagnostics)
}

// ReferenceAt returns the identifier of the transient AST that covers
// offset, or nil. Declaration names are returned as well as references.
func (e *Entry) ReferenceAt(offset int) *ast.Identifier {
	var found *ast.Identifier
	ast.Inspect(e.AST, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		span, ok := n.Span()
		if !ok || offset < span.Start || offset > span.End {
			return false
		}
		if ident, ok := n.(*ast.Identifier); ok && ident.Name != "" && offset < span.End {
			found = ident
			return false
		}
		return true
	})
	return found
}

// ASTParser parses a unit into a fresh AST.
type ASTParser interface {
	ParseAST(ctx context.Context, unit *source.Unit) (*ast.Unit, []source.Problem, error)
}

// Compute returns the standard ComputeFunc: it re-parses the unit into a
// fresh AST and analyzes it, loading imports through loader.
func Compute(parser ASTParser, loader analyzer.ModuleLoader) ComputeFunc {
	return func(ctx context.Context, unit *source.Unit) (*Entry, error) {
		root, problems, err := parser.ParseAST(ctx, unit)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", unit.ID(), err)
		}

		a := analyzer.New(loader)
		results, err := a.Analyze(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", unit.ID(), err)
		}

		diagnostics := slices.Clone(problems)
		for _, r := range results {
			if r.Unit == unit.ID() {
				diagnostics = append(diagnostics, r.Problems...)
			}
		}
		source.SortProblems(diagnostics)

		return NewEntry(unit, root, a, diagnostics), nil
	}
}
