// Package locate maps declarations found by semantic analysis to the nodes
// of the concrete syntax trees kept for editing.
//
// Analysis runs on a transient AST whose nodes are unrelated to any CST.
// The only identity the two trees share is the source offset of a
// declaration's name, so that offset is what the locator searches for.
package locate

import (
	"context"
	"fmt"

	"github.com/yaklabco/tethls/pkg/analysis"
	"github.com/yaklabco/tethls/pkg/cst"
	"github.com/yaklabco/tethls/pkg/source"
	"github.com/yaklabco/tethls/pkg/teth/ast"
)

// TreeSource provides the CST of a unit, loading it if needed.
// A unit that cannot be loaded is reported with ok == false.
type TreeSource interface {
	TreeFor(ctx context.Context, id source.ID) (tree *cst.Tree, ok bool, err error)
}

// Locator finds the CST node of the declaration a reference resolves to.
type Locator struct {
	// Trees provides the CSTs of declaring units.
	Trees TreeSource

	// UseIndex selects the tree's sorted declaration index instead of
	// descending from the root. Both find the same node.
	UseIndex bool
}

// Locate resolves ref through the entry's analysis and returns the CST node
// of the declaration it names.
//
// A nil node with a nil error means there is nothing to go to: ref is
// unresolved, the declaration is intrinsic, its unit cannot be loaded, or no
// CST declaration starts at its name. Cancellation is returned as an error.
func (l *Locator) Locate(ctx context.Context, ref ast.Node, entry *analysis.Entry) (*cst.Node, error) {
	if ref == nil || entry == nil || entry.Analyzer == nil {
		return nil, nil
	}

	decl := entry.Analyzer.ResolvedReference(ref)
	if decl == nil {
		return nil, nil
	}

	offset, unit, ok := nameOffset(decl)
	if !ok {
		return nil, nil
	}

	if l.Trees == nil {
		return nil, nil
	}
	tree, ok, err := l.Trees.TreeFor(ctx, unit)
	if err != nil {
		return nil, fmt.Errorf("locate in %s: %w", unit, err)
	}
	if !ok {
		return nil, nil
	}

	if l.UseIndex {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return tree.DeclarationAt(offset), nil
	}
	return Find(ctx, tree.Root, offset)
}

// nameOffset returns where decl's name begins. Intrinsic declarations have
// no location.
func nameOffset(decl ast.Declaration) (int, source.ID, bool) {
	if name := decl.DeclName(); name != nil {
		if span, ok := name.Span(); ok {
			return span.Start, span.Unit, true
		}
	}
	if span, ok := decl.Span(); ok {
		return span.Start, span.Unit, true
	}
	return 0, "", false
}

// Find returns the first declaration under root, in pre-order, whose name
// identifier starts exactly at offset. Subtrees that start after offset are
// not visited. ctx is checked at every visited node.
func Find(ctx context.Context, root *cst.Node, offset int) (*cst.Node, error) {
	if root == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for child := root.FirstChild; child != nil; child = child.Next {
		if child.StartOffset > offset {
			break
		}
		if child.IsLeaf() {
			continue
		}
		if child.Kind.IsDeclaration() {
			if name := child.NameIdentifier(); name != nil && name.StartOffset == offset {
				return child, nil
			}
		}
		if child.EndOffset < offset {
			continue
		}
		found, err := Find(ctx, child, offset)
		if err != nil || found != nil {
			return found, err
		}
	}
	return nil, nil
}
