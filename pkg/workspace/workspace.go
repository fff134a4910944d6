// Package workspace is the editor-facing facade over the parser, the
// analysis cache, and the declaration locator.
//
// A Workspace owns the current source unit of every document it has seen.
// Units are replaced, never mutated: opening a document with new text
// creates a new unit and invalidates every analysis result, because any
// result may depend on the changed unit through imports.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/tethls/internal/logging"
	"github.com/yaklabco/tethls/pkg/analysis"
	"github.com/yaklabco/tethls/pkg/cst"
	"github.com/yaklabco/tethls/pkg/locate"
	"github.com/yaklabco/tethls/pkg/module"
	"github.com/yaklabco/tethls/pkg/parser/teth"
	"github.com/yaklabco/tethls/pkg/source"
	"github.com/yaklabco/tethls/pkg/teth/ast"
)

// Workspace holds open documents and answers tree, analysis, and
// navigation queries about them. It is safe for concurrent use.
type Workspace struct {
	files    *module.Overlay
	resolver *module.Resolver
	parser   *teth.Parser
	cache    *analysis.Cache
	locator  *locate.Locator
	compute  analysis.ComputeFunc
	logger   *log.Logger

	mu   sync.Mutex
	docs map[source.ID]*document
}

// document is the current unit of an id and its lazily built tree.
type document struct {
	unit *source.Unit
	tree *cst.Tree
}

// New creates a workspace that reads documents not opened in it from base.
// A nil base restricts the workspace to opened documents.
func New(base module.FileSource, opts ...Option) *Workspace {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}

	w := &Workspace{
		files:  module.NewOverlay(base),
		parser: teth.New(teth.WithLogger(o.logger)),
		logger: o.logger,
		docs:   make(map[source.ID]*document),
	}
	w.resolver = module.NewResolver(w.files, module.WithLogger(o.logger))
	w.cache = analysis.New(append(o.cacheOpts, analysis.WithLogger(o.logger))...)
	w.locator = &locate.Locator{Trees: w, UseIndex: o.useIndex}
	w.compute = analysis.Compute(w.parser, w.resolver)
	return w
}

// Open sets the text of a document, replacing any previous version.
func (w *Workspace) Open(id source.ID, text string) {
	w.files.Set(id, text)
	w.Invalidate(id)
}

// Close drops the editor text of a document. Later reads fall through to
// the base file source.
func (w *Workspace) Close(id source.ID) {
	w.files.Remove(id)
	w.Invalidate(id)
}

// Invalidate forgets the current unit of id and every analysis result.
func (w *Workspace) Invalidate(id source.ID) {
	w.mu.Lock()
	delete(w.docs, id)
	w.mu.Unlock()

	w.cache.Invalidate(id)
}

// Unit returns the current unit of id, reading it on first use. A unit
// that cannot be read is reported with ok == false; only cancellation is
// an error.
func (w *Workspace) Unit(ctx context.Context, id source.ID) (*source.Unit, bool, error) {
	w.mu.Lock()
	if doc, ok := w.docs[id]; ok {
		w.mu.Unlock()
		return doc.unit, true, nil
	}
	w.mu.Unlock()

	text, err := w.files.Read(ctx, id)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		w.logger.Debug("cannot read document", logging.FieldPath, id, logging.FieldError, err)
		return nil, false, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// Another caller may have read the document meanwhile. Keep the first
	// unit so that every caller shares one identity.
	if doc, ok := w.docs[id]; ok {
		return doc.unit, true, nil
	}
	unit := source.NewUnit(id, text)
	w.docs[id] = &document{unit: unit}
	return unit, true, nil
}

// GetCST returns the concrete syntax tree of unit. Trees of current units
// are built once and shared.
func (w *Workspace) GetCST(ctx context.Context, unit *source.Unit) (*cst.Tree, error) {
	if unit == nil {
		return nil, errors.New("get tree: nil unit")
	}

	w.mu.Lock()
	doc, current := w.docs[unit.ID()]
	if current && doc.unit == unit && doc.tree != nil {
		w.mu.Unlock()
		return doc.tree, nil
	}
	w.mu.Unlock()

	tree, err := w.parser.Parse(ctx, unit)
	if err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if doc, ok := w.docs[unit.ID()]; ok && doc.unit == unit {
		if doc.tree != nil {
			return doc.tree, nil
		}
		doc.tree = tree
	}
	return tree, nil
}

// GetAnalysis returns the analysis entry of unit from the cache, computing
// it if needed.
func (w *Workspace) GetAnalysis(ctx context.Context, unit *source.Unit) (*analysis.Entry, error) {
	if unit == nil {
		return nil, errors.New("get analysis: nil unit")
	}
	return w.cache.Resolve(ctx, unit, w.compute)
}

// LocateDeclaration returns the CST node of the declaration ref resolves
// to, or nil when there is nothing to go to.
func (w *Workspace) LocateDeclaration(ctx context.Context, ref ast.Node, entry *analysis.Entry) (*cst.Node, error) {
	return w.locator.Locate(ctx, ref, entry)
}

// TreeFor implements locate.TreeSource.
func (w *Workspace) TreeFor(ctx context.Context, id source.ID) (*cst.Tree, bool, error) {
	unit, ok, err := w.Unit(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	tree, err := w.GetCST(ctx, unit)
	if err != nil {
		return nil, false, err
	}
	return tree, true, nil
}

// Stats returns the analysis cache counters.
func (w *Workspace) Stats() analysis.Stats {
	return w.cache.Stats()
}

// Documents returns the ids of the documents opened in the workspace.
func (w *Workspace) Documents() []source.ID {
	return w.files.IDs()
}
