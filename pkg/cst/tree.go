// Package cst provides the concrete syntax tree kept for every open teth
// source unit. It defines a lossless, immutable view including:
// - Tree: the unit, its token stream, and the root node
// - Token stream: every byte classified
// - Nodes: composites mirroring syntax, with tokens as leaves
package cst

import (
	"sort"
	"sync"

	"github.com/yaklabco/tethls/pkg/source"
)

// Tree is an immutable, lossless syntax tree of one source unit.
type Tree struct {
	// Unit is the source the tree was built from.
	Unit *source.Unit

	// Tokens is the full token stream covering every byte.
	Tokens []Token

	// Root is the KindUnit root. Its range is [0, Unit.Len()).
	Root *Node

	// Problems are the toolchain's diagnostics for the unit.
	Problems []source.Problem

	declOnce sync.Once
	decls    []*Node
}

// NewTree assembles a tree. The root must already be complete.
func NewTree(unit *source.Unit, tokens []Token, root *Node, problems []source.Problem) *Tree {
	return &Tree{Unit: unit, Tokens: tokens, Root: root, Problems: problems}
}

// ID returns the identity of the tree's unit.
func (t *Tree) ID() source.ID {
	return t.Unit.ID()
}

// Text returns the unit's text.
func (t *Tree) Text() string {
	return t.Unit.Text()
}

// SpanOf returns the source span of n.
func (t *Tree) SpanOf(n *Node) source.Span {
	return source.NewSpan(t.Unit.ID(), n.StartOffset, n.EndOffset)
}

// DeclarationIndex returns the tree's declaration nodes sorted by the start
// offset of their name identifier. The index is built on first use.
func (t *Tree) DeclarationIndex() []*Node {
	t.declOnce.Do(func() {
		t.decls = FindAll(t.Root, func(n *Node) bool {
			return n.NameIdentifier() != nil
		})
		sort.SliceStable(t.decls, func(i, j int) bool {
			return t.decls[i].NameIdentifier().StartOffset < t.decls[j].NameIdentifier().StartOffset
		})
	})
	return t.decls
}

// DeclarationAt returns the declaration whose name starts exactly at offset,
// using the declaration index.
func (t *Tree) DeclarationAt(offset int) *Node {
	decls := t.DeclarationIndex()
	i := sort.Search(len(decls), func(i int) bool {
		return decls[i].NameIdentifier().StartOffset >= offset
	})
	if i < len(decls) && decls[i].NameIdentifier().StartOffset == offset {
		return decls[i]
	}
	return nil
}
