// Package ast defines the teth abstract syntax tree.
//
// The tree is a closed sum type: every node type implements Node through an
// unexported marker method, and consumers walk it with exhaustive type
// switches. Nodes produced by the parser carry spans; synthetic nodes, such
// as prelude declarations, do not.
package ast

import "github.com/yaklabco/tethls/pkg/source"

// Node is implemented by every AST node.
type Node interface {
	// Span returns the node's source span. ok is false for synthetic nodes.
	Span() (span source.Span, ok bool)

	node()
}

// Statement is a node that may appear in a statement list.
type Statement interface {
	Node
	stmtNode()
}

// Expression is a node that produces a value.
// Expressions are also valid statements.
type Expression interface {
	Statement
	exprNode()
}

// Declaration is a node that introduces a name.
type Declaration interface {
	Statement
	DeclName() *Identifier
}

// Base carries the location shared by every node.
type Base struct {
	// Loc is the node's span. It is meaningless when Synthetic is set.
	Loc source.Span

	// Synthetic marks nodes that do not originate from source text.
	Synthetic bool
}

// At returns a Base located at span.
func At(span source.Span) Base {
	return Base{Loc: span}
}

// Span implements Node.
func (b *Base) Span() (source.Span, bool) {
	return b.Loc, !b.Synthetic
}

func (*Base) node() {}

// Unit is the root of a parsed source unit.
type Unit struct {
	Base
	Module     source.ID
	Statements []Statement
}

// Identifier is a name, either a reference or the name of a declaration.
// Name is empty when the parser recovered from a missing identifier.
type Identifier struct {
	Base
	Name string
}

// TypeExpression names a type, optionally with type arguments.
type TypeExpression struct {
	Base
	Name *Identifier
	Args []*TypeExpression
}

// UseStatement imports names from another module.
// Path holds the slash-separated path segments, including "." and "..".
type UseStatement struct {
	Base
	Path    []*Identifier
	Imports []*Identifier
}

// PathText returns the import path as written, joined with slashes.
func (u *UseStatement) PathText() string {
	out := ""
	for i, part := range u.Path {
		if i > 0 {
			out += "/"
		}
		out += part.Name
	}
	return out
}

// StructDeclaration declares a struct type.
type StructDeclaration struct {
	Base
	Name      *Identifier
	Generics  []*GenericParameterDeclaration
	Fields    []*FieldDeclaration
	Functions []*FunctionDeclaration
	Intrinsic bool
}

// FieldDeclaration declares a struct field.
type FieldDeclaration struct {
	Base
	Name  *Identifier
	Type  *TypeExpression
	Index int
}

// FunctionDeclaration declares a function or a struct method.
// Body is nil for intrinsic functions.
type FunctionDeclaration struct {
	Base
	Name       *Identifier
	Generics   []*GenericParameterDeclaration
	Params     []*ParameterDeclaration
	ReturnType *TypeExpression
	Body       *Block
	Method     bool
	Intrinsic  bool
}

// ParameterDeclaration declares a function parameter.
type ParameterDeclaration struct {
	Base
	Name *Identifier
	Type *TypeExpression
}

// GenericParameterDeclaration declares a type parameter.
type GenericParameterDeclaration struct {
	Base
	Name *Identifier
}

// VariableDeclaration declares a local or module-level variable.
type VariableDeclaration struct {
	Base
	Name *Identifier
	Type *TypeExpression
	Init Expression
}

// Block is a braced statement list, or a single statement where the
// grammar allows one in place of a block.
type Block struct {
	Base
	Statements []Statement
}

// IfStatement is a conditional with an optional else branch.
type IfStatement struct {
	Base
	Cond Expression
	Then *Block
	Else *Block
}

// LoopStatement is an infinite, conditional, or counting loop.
type LoopStatement struct {
	Base
	Vars    []*VariableDeclaration
	Cond    Expression
	Advance Statement
	Body    *Block
}

// ReturnStatement returns from the enclosing function.
type ReturnStatement struct {
	Base
	Value Expression
}

// BreakStatement exits the innermost loop.
type BreakStatement struct {
	Base
}

// ContinueStatement skips to the next loop iteration.
type ContinueStatement struct {
	Base
}

// BinaryExpression applies a binary operator, including assignment.
type BinaryExpression struct {
	Base
	Op    BinaryOp
	Left  Expression
	Right Expression
}

// UnaryExpression applies a prefix operator.
type UnaryExpression struct {
	Base
	Op      UnaryOp
	Operand Expression
}

// CallExpression invokes Target with Args.
type CallExpression struct {
	Base
	Target   Expression
	TypeArgs []*TypeExpression
	Args     []Expression
}

// MemberAccessExpression selects a field or method of Target.
type MemberAccessExpression struct {
	Base
	Target Expression
	Member *Identifier
}

// ObjectCreationExpression instantiates a struct with "new".
type ObjectCreationExpression struct {
	Base
	Type     *Identifier
	TypeArgs []*TypeExpression
	Args     []Expression
}

// ListLiteral is a bracketed list of elements.
type ListLiteral struct {
	Base
	Elements []Expression
}

// LongLiteral is an integer literal.
type LongLiteral struct {
	Base
	Value int64
}

// DoubleLiteral is a floating point literal.
type DoubleLiteral struct {
	Base
	Value float64
}

// StringLiteral is a string literal. Value holds the unquoted text.
type StringLiteral struct {
	Base
	Value string
}

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	Base
	Value bool
}

// NullLiteral is the null keyword.
type NullLiteral struct {
	Base
}

// ParenthesisedExpression wraps an expression in parentheses.
type ParenthesisedExpression struct {
	Base
	Inner Expression
}

// Garbage covers a malformed region the parser could not make sense of.
type Garbage struct {
	Base
}

func (*UseStatement) stmtNode()                {}
func (*StructDeclaration) stmtNode()           {}
func (*FieldDeclaration) stmtNode()            {}
func (*FunctionDeclaration) stmtNode()         {}
func (*ParameterDeclaration) stmtNode()        {}
func (*GenericParameterDeclaration) stmtNode() {}
func (*VariableDeclaration) stmtNode()         {}
func (*Block) stmtNode()                       {}
func (*IfStatement) stmtNode()                 {}
func (*LoopStatement) stmtNode()               {}
func (*ReturnStatement) stmtNode()             {}
func (*BreakStatement) stmtNode()              {}
func (*ContinueStatement) stmtNode()           {}

func (*Identifier) stmtNode()               {}
func (*TypeExpression) stmtNode()           {}
func (*BinaryExpression) stmtNode()         {}
func (*UnaryExpression) stmtNode()          {}
func (*CallExpression) stmtNode()           {}
func (*MemberAccessExpression) stmtNode()   {}
func (*ObjectCreationExpression) stmtNode() {}
func (*ListLiteral) stmtNode()              {}
func (*LongLiteral) stmtNode()              {}
func (*DoubleLiteral) stmtNode()            {}
func (*StringLiteral) stmtNode()            {}
func (*BooleanLiteral) stmtNode()           {}
func (*NullLiteral) stmtNode()              {}
func (*ParenthesisedExpression) stmtNode()  {}
func (*Garbage) stmtNode()                  {}

func (*Identifier) exprNode()               {}
func (*TypeExpression) exprNode()           {}
func (*BinaryExpression) exprNode()         {}
func (*UnaryExpression) exprNode()          {}
func (*CallExpression) exprNode()           {}
func (*MemberAccessExpression) exprNode()   {}
func (*ObjectCreationExpression) exprNode() {}
func (*ListLiteral) exprNode()              {}
func (*LongLiteral) exprNode()              {}
func (*DoubleLiteral) exprNode()            {}
func (*StringLiteral) exprNode()            {}
func (*BooleanLiteral) exprNode()           {}
func (*NullLiteral) exprNode()              {}
func (*ParenthesisedExpression) exprNode()  {}
func (*Garbage) exprNode()                  {}

// DeclName implements Declaration.
func (d *StructDeclaration) DeclName() *Identifier { return d.Name }

// DeclName implements Declaration.
func (d *FieldDeclaration) DeclName() *Identifier { return d.Name }

// DeclName implements Declaration.
func (d *FunctionDeclaration) DeclName() *Identifier { return d.Name }

// DeclName implements Declaration.
func (d *ParameterDeclaration) DeclName() *Identifier { return d.Name }

// DeclName implements Declaration.
func (d *GenericParameterDeclaration) DeclName() *Identifier { return d.Name }

// DeclName implements Declaration.
func (d *VariableDeclaration) DeclName() *Identifier { return d.Name }
