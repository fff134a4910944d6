// Package analyzer resolves names and infers types for teth ASTs.
//
// An Analyzer is created per analysis run. It analyzes a root unit and every
// unit reachable through use statements, loading them through a
// ModuleLoader, and records for each reference the declaration it resolves
// to. The resulting state is read-only once Analyze returns.
package analyzer

import (
	"context"
	"fmt"

	"github.com/yaklabco/tethls/pkg/source"
	"github.com/yaklabco/tethls/pkg/teth/ast"
	"github.com/yaklabco/tethls/pkg/teth/parser"
)

// ModuleLoader resolves and loads imported units.
type ModuleLoader interface {
	// ToUniqueID resolves relPath against the unit importing it.
	ToUniqueID(importing source.ID, relPath string) source.ID

	// Load returns the unit with the given identity. A missing or unreadable
	// unit is reported with ok == false, never as an error.
	Load(ctx context.Context, id source.ID) (unit *source.Unit, ok bool)
}

// Result holds the diagnostics of one analyzed unit.
type Result struct {
	Unit     source.ID
	Problems []source.Problem
}

type moduleState uint8

const (
	stateCollected moduleState = iota
	stateAnalyzing
	stateDone
)

type module struct {
	id       source.ID
	root     *ast.Unit
	scope    *scope
	exports  map[string]ast.Declaration
	problems []source.Problem
	state    moduleState
}

// Analyzer holds the state of one analysis run.
type Analyzer struct {
	loader  ModuleLoader
	modules map[source.ID]*module
	order   []source.ID
	missing map[source.ID]bool

	prelude *scope
	scopes  map[ast.Declaration]*scope

	refs      map[ast.Node]ast.Declaration
	types     map[ast.Node]*Type
	declTypes map[ast.Declaration]*Type
}

// New returns an analyzer that loads imports through loader.
// A nil loader makes every import unresolved.
func New(loader ModuleLoader) *Analyzer {
	a := &Analyzer{
		loader:    loader,
		modules:   make(map[source.ID]*module),
		missing:   make(map[source.ID]bool),
		scopes:    make(map[ast.Declaration]*scope),
		refs:      make(map[ast.Node]ast.Declaration),
		types:     make(map[ast.Node]*Type),
		declTypes: make(map[ast.Declaration]*Type),
	}

	// Built-in signatures are resolved like any other module. Nothing in the
	// prelude has a span, so it never reports.
	p := loadPrelude()
	a.prelude = newScope(nil, scopePrelude, nil)
	for name, decl := range p.decls {
		a.prelude.names[name] = decl
	}
	builtins := &module{id: preludeID, root: p.unit, scope: a.prelude}
	_ = a.analyzeModule(context.Background(), builtins)

	return a
}

// Analyze analyzes root and the units it imports. It returns the problems of
// every analyzed unit, root first. The only error is ctx's error.
func (a *Analyzer) Analyze(ctx context.Context, root *ast.Unit) ([]Result, error) {
	mod := a.collect(root.Module, root, nil)
	if err := a.analyzeModule(ctx, mod); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(a.order))
	for _, id := range a.order {
		m := a.modules[id]
		problems := append([]source.Problem(nil), m.problems...)
		source.SortProblems(problems)
		results = append(results, Result{Unit: id, Problems: problems})
	}
	return results, nil
}

// ResolvedReference returns the declaration that ref resolves to, or nil.
// ref is usually an identifier, a type name, or an object creation.
func (a *Analyzer) ResolvedReference(ref ast.Node) ast.Declaration {
	return a.refs[ref]
}

// TypeOf returns the inferred type of an expression or declaration, or nil
// if it is unknown.
func (a *Analyzer) TypeOf(n ast.Node) *Type {
	if decl, ok := n.(ast.Declaration); ok {
		if t, ok := a.declTypes[decl]; ok {
			return t
		}
	}
	return a.types[n]
}

// Module returns the AST of an analyzed unit.
func (a *Analyzer) Module(id source.ID) (*ast.Unit, bool) {
	m, ok := a.modules[id]
	if !ok {
		return nil, false
	}
	return m.root, true
}

// Modules returns the identities of every analyzed unit, root first.
func (a *Analyzer) Modules() []source.ID {
	return append([]source.ID(nil), a.order...)
}

// Exports returns the structs and functions a unit makes importable.
func (a *Analyzer) Exports(id source.ID) map[string]ast.Declaration {
	m, ok := a.modules[id]
	if !ok {
		return nil
	}
	return m.exports
}

// collect registers a module and declares its top-level structs and
// functions so that other modules can import them before it is analyzed.
func (a *Analyzer) collect(id source.ID, root *ast.Unit, parseProblems []source.Problem) *module {
	mod := &module{
		id:       id,
		root:     root,
		scope:    newScope(a.prelude, scopeModule, nil),
		exports:  make(map[string]ast.Declaration),
		problems: parseProblems,
	}
	a.modules[id] = mod
	a.order = append(a.order, id)

	for _, stmt := range root.Statements {
		var decl ast.Declaration
		switch s := stmt.(type) {
		case *ast.StructDeclaration:
			decl = s
		case *ast.FunctionDeclaration:
			decl = s
		default:
			continue
		}

		name := decl.DeclName()
		if name == nil {
			continue
		}
		if _, ok := mod.scope.define(name.Name, decl); !ok {
			a.report(mod, name, "Duplicate top level declaration '%s'", name.Name)
			continue
		}
		mod.exports[name.Name] = decl
	}

	return mod
}

// load returns the module with the given identity, loading, parsing, and
// analyzing it on first use. Cycles see the collected exports of modules
// still being analyzed.
func (a *Analyzer) load(ctx context.Context, id source.ID) (*module, error) {
	if mod, ok := a.modules[id]; ok {
		return mod, nil
	}
	if a.missing[id] || a.loader == nil {
		return nil, nil
	}

	unit, ok := a.loader.Load(ctx, id)
	if !ok {
		a.missing[id] = true
		return nil, nil
	}

	parsed := parser.Parse(unit.ID(), unit.Text())
	mod := a.collect(id, parsed.Unit, parsed.Problems)
	if err := a.analyzeModule(ctx, mod); err != nil {
		return nil, err
	}
	return mod, nil
}

func (a *Analyzer) analyzeModule(ctx context.Context, mod *module) error {
	if mod.state != stateCollected {
		return nil
	}
	mod.state = stateAnalyzing

	w := &walker{a: a, mod: mod, ctx: ctx}
	if err := w.declarations(mod.scope, mod.root.Statements); err != nil {
		return err
	}
	if err := w.statements(mod.scope, mod.root.Statements, true); err != nil {
		return err
	}

	mod.state = stateDone
	return nil
}

func (a *Analyzer) report(mod *module, at ast.Node, format string, args ...any) {
	span, ok := at.Span()
	if !ok {
		return
	}
	mod.problems = append(mod.problems, source.NewProblem(span, fmt.Sprintf(format, args...)))
}

func (a *Analyzer) bind(ref ast.Node, decl ast.Declaration) {
	if ref != nil && decl != nil {
		a.refs[ref] = decl
	}
}
