package ast

import (
	"errors"
	"fmt"
	"sort"
)

// errStopWalk is a sentinel used internally to stop walking early.
var errStopWalk = errors.New("stop walk")

// Children returns the direct children of n in source order.
// Missing optional children are omitted.
func Children(n Node) []Node {
	var out []Node

	switch x := n.(type) {
	case *Unit:
		for _, s := range x.Statements {
			out = append(out, s)
		}
	case *Identifier, *LongLiteral, *DoubleLiteral, *StringLiteral,
		*BooleanLiteral, *NullLiteral, *BreakStatement, *ContinueStatement, *Garbage:
		// Leaves.
	case *TypeExpression:
		out = appendPtr(out, x.Name)
		out = appendEach(out, x.Args)
	case *UseStatement:
		out = appendEach(out, x.Path)
		out = appendEach(out, x.Imports)
	case *StructDeclaration:
		out = appendPtr(out, x.Name)
		out = appendEach(out, x.Generics)
		members := make([]Node, 0, len(x.Fields)+len(x.Functions))
		members = appendEach(members, x.Fields)
		members = appendEach(members, x.Functions)
		sort.SliceStable(members, func(i, j int) bool {
			return startOf(members[i]) < startOf(members[j])
		})
		out = append(out, members...)
	case *FieldDeclaration:
		out = appendPtr(out, x.Name)
		out = appendPtr(out, x.Type)
	case *FunctionDeclaration:
		out = appendPtr(out, x.Name)
		out = appendEach(out, x.Generics)
		out = appendEach(out, x.Params)
		out = appendPtr(out, x.ReturnType)
		out = appendPtr(out, x.Body)
	case *ParameterDeclaration:
		out = appendPtr(out, x.Name)
		out = appendPtr(out, x.Type)
	case *GenericParameterDeclaration:
		out = appendPtr(out, x.Name)
	case *VariableDeclaration:
		out = appendPtr(out, x.Name)
		out = appendPtr(out, x.Type)
		out = appendExpr(out, x.Init)
	case *Block:
		for _, s := range x.Statements {
			out = append(out, s)
		}
	case *IfStatement:
		out = appendExpr(out, x.Cond)
		out = appendPtr(out, x.Then)
		out = appendPtr(out, x.Else)
	case *LoopStatement:
		out = appendEach(out, x.Vars)
		out = appendExpr(out, x.Cond)
		if x.Advance != nil {
			out = append(out, x.Advance)
		}
		out = appendPtr(out, x.Body)
	case *ReturnStatement:
		out = appendExpr(out, x.Value)
	case *BinaryExpression:
		out = appendExpr(out, x.Left)
		out = appendExpr(out, x.Right)
	case *UnaryExpression:
		out = appendExpr(out, x.Operand)
	case *CallExpression:
		out = appendExpr(out, x.Target)
		out = appendEach(out, x.TypeArgs)
		for _, a := range x.Args {
			out = appendExpr(out, a)
		}
	case *MemberAccessExpression:
		out = appendExpr(out, x.Target)
		out = appendPtr(out, x.Member)
	case *ObjectCreationExpression:
		out = appendPtr(out, x.Type)
		out = appendEach(out, x.TypeArgs)
		for _, a := range x.Args {
			out = appendExpr(out, a)
		}
	case *ListLiteral:
		for _, e := range x.Elements {
			out = appendExpr(out, e)
		}
	case *ParenthesisedExpression:
		out = appendExpr(out, x.Inner)
	default:
		panic(fmt.Sprintf("ast: unexpected node type %T", n))
	}

	return out
}

func appendPtr[T any, P interface {
	*T
	Node
}](out []Node, p P) []Node {
	if p == nil {
		return out
	}
	return append(out, p)
}

func appendEach[T any, P interface {
	*T
	Node
}](out []Node, items []P) []Node {
	for _, item := range items {
		out = appendPtr(out, item)
	}
	return out
}

func appendExpr(out []Node, e Expression) []Node {
	if e == nil {
		return out
	}
	return append(out, e)
}

func startOf(n Node) int {
	span, _ := n.Span()
	return span.Start
}

// WalkFunc is called for each node visited by Walk.
// Return a non-nil error to stop the walk.
type WalkFunc func(n Node) error

// Walk performs a pre-order traversal starting at root.
func Walk(root Node, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	if err := fn(root); err != nil {
		return err
	}
	for _, child := range Children(root) {
		if err := Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// Inspect traverses root in pre-order. If fn returns false the children of
// the current node are skipped.
func Inspect(root Node, fn func(Node) bool) {
	if root == nil || !fn(root) {
		return
	}
	for _, child := range Children(root) {
		Inspect(child, fn)
	}
}

// FindFirst returns the first node in pre-order for which pred is true.
func FindFirst(root Node, pred func(Node) bool) Node {
	var found Node
	_ = Walk(root, func(n Node) error {
		if pred(n) {
			found = n
			return errStopWalk
		}
		return nil
	})
	return found
}

// MarkSynthetic clears the location of root and all of its descendants.
func MarkSynthetic(root Node) {
	Inspect(root, func(n Node) bool {
		if b := baseOf(n); b != nil {
			b.Synthetic = true
		}
		return true
	})
}

type based interface {
	base() *Base
}

func (b *Base) base() *Base { return b }

func baseOf(n Node) *Base {
	if x, ok := n.(based); ok {
		return x.base()
	}
	return nil
}
