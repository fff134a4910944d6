package cst

import "strings"

// WalkFunc is the function signature for Walk callbacks.
// Return a non-nil error to stop the walk.
type WalkFunc func(n *Node) error

// Walk performs a pre-order traversal of the tree starting at root.
// If walkFunc returns a non-nil error, the walk stops and returns it.
func Walk(root *Node, walkFunc WalkFunc) error {
	if root == nil {
		return nil
	}

	if err := walkFunc(root); err != nil {
		return err
	}

	for child := root.FirstChild; child != nil; child = child.Next {
		if err := Walk(child, walkFunc); err != nil {
			return err
		}
	}

	return nil
}

// WalkWithContext performs a traversal with enter and leave callbacks.
// Either callback may be nil.
func WalkWithContext(root *Node, enter, leave WalkFunc) error {
	if root == nil {
		return nil
	}

	if enter != nil {
		if err := enter(root); err != nil {
			return err
		}
	}

	for child := root.FirstChild; child != nil; child = child.Next {
		if err := WalkWithContext(child, enter, leave); err != nil {
			return err
		}
	}

	if leave != nil {
		if err := leave(root); err != nil {
			return err
		}
	}

	return nil
}

// FindAll returns all nodes matching the predicate.
func FindAll(root *Node, predicate func(n *Node) bool) []*Node {
	var result []*Node

	//nolint:errcheck,revive // Walk only returns nil errors in this usage
	Walk(root, func(node *Node) error {
		if predicate(node) {
			result = append(result, node)
		}
		return nil
	})

	return result
}

// FindFirst returns the first node matching the predicate, or nil if none found.
func FindFirst(root *Node, predicate func(n *Node) bool) *Node {
	var found *Node

	//nolint:errcheck,revive // errStopWalk is expected and intentionally ignored
	Walk(root, func(node *Node) error {
		if predicate(node) {
			found = node
			return errStopWalk
		}
		return nil
	})

	return found
}

// FindByKind returns all nodes of the specified kind.
func FindByKind(root *Node, kind NodeKind) []*Node {
	return FindAll(root, func(n *Node) bool {
		return n.Kind == kind
	})
}

// Leaves returns the token leaves under root in source order.
func Leaves(root *Node) []*Node {
	return FindByKind(root, KindToken)
}

// Reconstruct concatenates the text of every leaf under root.
// For a complete tree it reproduces the unit's text exactly.
func Reconstruct(root *Node, content string) string {
	var sb strings.Builder
	for _, leaf := range Leaves(root) {
		sb.WriteString(leaf.Token.Text(content))
	}
	return sb.String()
}

// NodeAt returns the deepest node containing offset, or nil.
func NodeAt(root *Node, offset int) *Node {
	if root == nil || !root.Contains(offset) {
		return nil
	}

	cur := root
	for {
		var next *Node
		for child := cur.FirstChild; child != nil; child = child.Next {
			if child.Contains(offset) {
				next = child
				break
			}
			if child.StartOffset > offset {
				break
			}
		}
		if next == nil {
			return cur
		}
		cur = next
	}
}

// errStopWalk is a sentinel error used to stop walking early.
var errStopWalk = &stopWalkError{}

type stopWalkError struct{}

func (e *stopWalkError) Error() string {
	return "stop walk"
}
