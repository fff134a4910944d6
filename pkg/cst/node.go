package cst

import "fmt"

// NodeKind classifies a CST node.
type NodeKind uint8

// Node kinds. KindToken nodes are leaves wrapping a single token; every other
// kind is a composite mirroring a syntax construct.
const (
	KindToken NodeKind = iota

	KindUnit
	KindGarbage

	// Declarations and statements.
	KindUse
	KindStruct
	KindField
	KindFunction
	KindParameter
	KindGenericParameter
	KindVariable
	KindBlock
	KindIf
	KindLoop
	KindReturn
	KindBreak
	KindContinue

	// Expressions.
	KindIdentifier
	KindType
	KindBinary
	KindUnary
	KindCall
	KindMemberAccess
	KindObjectCreation
	KindList
	KindLiteral
	KindParenthesised
)

var nodeKindNames = [...]string{
	KindToken:            "Token",
	KindUnit:             "Unit",
	KindGarbage:          "Garbage",
	KindUse:              "Use",
	KindStruct:           "Struct",
	KindField:            "Field",
	KindFunction:         "Function",
	KindParameter:        "Parameter",
	KindGenericParameter: "GenericParameter",
	KindVariable:         "Variable",
	KindBlock:            "Block",
	KindIf:               "If",
	KindLoop:             "Loop",
	KindReturn:           "Return",
	KindBreak:            "Break",
	KindContinue:         "Continue",
	KindIdentifier:       "Identifier",
	KindType:             "Type",
	KindBinary:           "Binary",
	KindUnary:            "Unary",
	KindCall:             "Call",
	KindMemberAccess:     "MemberAccess",
	KindObjectCreation:   "ObjectCreation",
	KindList:             "List",
	KindLiteral:          "Literal",
	KindParenthesised:    "Parenthesised",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", k)
}

// IsDeclaration reports whether nodes of this kind introduce a name.
func (k NodeKind) IsDeclaration() bool {
	switch k {
	case KindStruct, KindField, KindFunction, KindParameter, KindGenericParameter, KindVariable:
		return true
	default:
		return false
	}
}

// Node is a node of the concrete syntax tree.
// The children of a composite tile its span without gaps or overlaps.
type Node struct {
	Kind NodeKind

	// Tree structure pointers.
	Parent     *Node
	FirstChild *Node
	LastChild  *Node
	Prev       *Node
	Next       *Node

	// StartOffset and EndOffset delimit the node in the unit's text.
	StartOffset int
	EndOffset   int

	// Token is the wrapped token. It is only meaningful for KindToken.
	Token Token
}

// NewNode creates an empty composite of the given kind at offset.
func NewNode(kind NodeKind, offset int) *Node {
	return &Node{Kind: kind, StartOffset: offset, EndOffset: offset}
}

// NewLeaf creates a leaf wrapping tok.
func NewLeaf(tok Token) *Node {
	return &Node{
		Kind:        KindToken,
		StartOffset: tok.StartOffset,
		EndOffset:   tok.EndOffset,
		Token:       tok,
	}
}

// IsLeaf reports whether n wraps a single token.
func (n *Node) IsLeaf() bool {
	return n.Kind == KindToken
}

// Len returns the length of the node in bytes.
func (n *Node) Len() int {
	return n.EndOffset - n.StartOffset
}

// Contains reports whether offset lies inside the node.
func (n *Node) Contains(offset int) bool {
	return offset >= n.StartOffset && offset < n.EndOffset
}

// HasChildren returns true if this node has any children.
func (n *Node) HasChildren() bool {
	return n.FirstChild != nil
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	count := 0
	for child := n.FirstChild; child != nil; child = child.Next {
		count++
	}
	return count
}

// Children returns a slice of all direct children.
func (n *Node) Children() []*Node {
	var children []*Node
	for child := n.FirstChild; child != nil; child = child.Next {
		children = append(children, child)
	}
	return children
}

// Text returns the source text covered by the node.
func (n *Node) Text(content string) string {
	if n.StartOffset < 0 || n.EndOffset > len(content) || n.StartOffset > n.EndOffset {
		return ""
	}
	return content[n.StartOffset:n.EndOffset]
}

// NameIdentifier returns the identifier child naming a declaration, or nil.
func (n *Node) NameIdentifier() *Node {
	if !n.Kind.IsDeclaration() {
		return nil
	}
	for child := n.FirstChild; child != nil; child = child.Next {
		if child.Kind == KindIdentifier {
			return child
		}
	}
	return nil
}

// String formats the node kind and range.
func (n *Node) String() string {
	if n.IsLeaf() {
		return fmt.Sprintf("%s(%s)[%d,%d)", n.Kind, n.Token.Kind, n.StartOffset, n.EndOffset)
	}
	return fmt.Sprintf("%s[%d,%d)", n.Kind, n.StartOffset, n.EndOffset)
}

// AppendChild appends child to parent and extends parent's range to cover it.
// A parent without children takes the child's start offset.
func AppendChild(parent, child *Node) {
	if parent == nil || child == nil {
		return
	}

	child.Parent = parent
	child.Prev = parent.LastChild
	child.Next = nil

	if parent.LastChild != nil {
		parent.LastChild.Next = child
	} else {
		parent.FirstChild = child
		parent.StartOffset = child.StartOffset
	}
	parent.LastChild = child

	if child.EndOffset > parent.EndOffset {
		parent.EndOffset = child.EndOffset
	}
}
