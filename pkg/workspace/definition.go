package workspace

import (
	"context"

	"github.com/yaklabco/tethls/pkg/cst"
	"github.com/yaklabco/tethls/pkg/source"
)

// Definition is the declaration a reference navigates to.
type Definition struct {
	// Tree is the tree of the declaring unit.
	Tree *cst.Tree

	// Node is the declaration node in Tree.
	Node *cst.Node

	// Name is the span of the declaration's name.
	Name source.Span
}

// DefinitionAt finds the identifier of document id that covers offset and
// returns the declaration it refers to. A nil definition with a nil error
// means there is nothing to go to.
func (w *Workspace) DefinitionAt(ctx context.Context, id source.ID, offset int) (*Definition, error) {
	unit, ok, err := w.Unit(ctx, id)
	if err != nil || !ok {
		return nil, err
	}

	entry, err := w.GetAnalysis(ctx, unit)
	if err != nil {
		return nil, err
	}

	ref := entry.ReferenceAt(offset)
	if ref == nil {
		return nil, nil
	}

	node, err := w.LocateDeclaration(ctx, ref, entry)
	if err != nil || node == nil {
		return nil, err
	}

	decl := entry.Analyzer.ResolvedReference(ref)
	span, _ := decl.Span()
	tree, ok, err := w.TreeFor(ctx, span.Unit)
	if err != nil || !ok {
		return nil, err
	}

	def := &Definition{Tree: tree, Node: node}
	if name := node.NameIdentifier(); name != nil {
		def.Name = tree.SpanOf(name)
	}
	return def, nil
}
