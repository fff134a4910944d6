package teth

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/yaklabco/tethls/pkg/cst"
	"github.com/yaklabco/tethls/pkg/source"
	"github.com/yaklabco/tethls/pkg/teth/ast"
)

// ErrInvariant is returned when the toolchain output violates the
// guarantees the builder relies on.
var ErrInvariant = errors.New("toolchain invariant violated")

// InvariantError describes a toolchain invariant violation.
type InvariantError struct {
	Unit   source.ID
	Offset int
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d: %s", e.Unit, ErrInvariant, e.Offset, e.Reason)
}

// Unwrap returns ErrInvariant.
func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}

// Build merges an AST with the full token stream of unit into a CST.
//
// Tokens that fall between AST spans are attached to the innermost node
// open at that point, so every byte of the unit ends up in exactly one leaf
// and the root covers [0, unit.Len()). AST nodes without a span contribute
// nothing.
func Build(ctx context.Context, unit *source.Unit, root ast.Node, tokens []cst.Token) (*cst.Node, error) {
	if err := cst.ValidateTokens(tokens, unit.Len()); err != nil {
		return nil, &InvariantError{Unit: unit.ID(), Reason: err.Error()}
	}

	b := &builder{ctx: ctx, unit: unit, tokens: tokens}
	cstRoot := cst.NewNode(cst.KindUnit, 0)

	if span, ok := root.Span(); ok {
		if err := b.checkSpan(span, 0, unit.Len()); err != nil {
			return nil, err
		}
		if err := b.children(cstRoot, root, span); err != nil {
			return nil, err
		}
	}

	b.flush(cstRoot, math.MaxInt)
	return cstRoot, nil
}

type builder struct {
	ctx    context.Context
	unit   *source.Unit
	tokens []cst.Token
	pos    int
}

// flush attaches every pending token starting before limit to parent.
func (b *builder) flush(parent *cst.Node, limit int) {
	for b.pos < len(b.tokens) && b.tokens[b.pos].StartOffset < limit {
		cst.AppendChild(parent, cst.NewLeaf(b.tokens[b.pos]))
		b.pos++
	}
}

// emit appends the composite for n to parent. lo and hi bound where n may
// lie: after its previous sibling and inside its parent.
func (b *builder) emit(parent *cst.Node, n ast.Node, lo, hi int) (int, error) {
	if err := b.ctx.Err(); err != nil {
		return lo, err
	}

	span, ok := n.Span()
	if !ok {
		return lo, nil
	}
	if err := b.checkSpan(span, lo, hi); err != nil {
		return lo, err
	}

	kind, err := b.kindOf(n, span)
	if err != nil {
		return lo, err
	}

	b.flush(parent, span.Start)

	node := cst.NewNode(kind, span.Start)
	if err := b.children(node, n, span); err != nil {
		return lo, err
	}
	b.flush(node, span.End)

	cst.AppendChild(parent, node)
	return span.End, nil
}

func (b *builder) children(node *cst.Node, n ast.Node, span source.Span) error {
	lo := span.Start
	for _, child := range ast.Children(n) {
		end, err := b.emit(node, child, lo, span.End)
		if err != nil {
			return err
		}
		lo = end
	}
	return nil
}

func (b *builder) checkSpan(span source.Span, lo, hi int) error {
	switch {
	case span.Unit != b.unit.ID():
		return &InvariantError{Unit: b.unit.ID(), Offset: span.Start, Reason: fmt.Sprintf("node from unit %s", span.Unit)}
	case span.Start > span.End:
		return &InvariantError{Unit: b.unit.ID(), Offset: span.Start, Reason: "inverted span"}
	case span.Start < lo:
		return &InvariantError{Unit: b.unit.ID(), Offset: span.Start, Reason: fmt.Sprintf("span %s overlaps its previous sibling ending at %d", span, lo)}
	case span.End > hi:
		return &InvariantError{Unit: b.unit.ID(), Offset: span.Start, Reason: fmt.Sprintf("span %s exceeds its parent ending at %d", span, hi)}
	}
	return nil
}

func (b *builder) kindOf(n ast.Node, span source.Span) (cst.NodeKind, error) {
	switch n.(type) {
	case *ast.UseStatement:
		return cst.KindUse, nil
	case *ast.StructDeclaration:
		return cst.KindStruct, nil
	case *ast.FieldDeclaration:
		return cst.KindField, nil
	case *ast.FunctionDeclaration:
		return cst.KindFunction, nil
	case *ast.ParameterDeclaration:
		return cst.KindParameter, nil
	case *ast.GenericParameterDeclaration:
		return cst.KindGenericParameter, nil
	case *ast.VariableDeclaration:
		return cst.KindVariable, nil
	case *ast.Block:
		return cst.KindBlock, nil
	case *ast.IfStatement:
		return cst.KindIf, nil
	case *ast.LoopStatement:
		return cst.KindLoop, nil
	case *ast.ReturnStatement:
		return cst.KindReturn, nil
	case *ast.BreakStatement:
		return cst.KindBreak, nil
	case *ast.ContinueStatement:
		return cst.KindContinue, nil
	case *ast.Identifier:
		return cst.KindIdentifier, nil
	case *ast.TypeExpression:
		return cst.KindType, nil
	case *ast.BinaryExpression:
		return cst.KindBinary, nil
	case *ast.UnaryExpression:
		return cst.KindUnary, nil
	case *ast.CallExpression:
		return cst.KindCall, nil
	case *ast.MemberAccessExpression:
		return cst.KindMemberAccess, nil
	case *ast.ObjectCreationExpression:
		return cst.KindObjectCreation, nil
	case *ast.ListLiteral:
		return cst.KindList, nil
	case *ast.LongLiteral, *ast.DoubleLiteral, *ast.StringLiteral, *ast.BooleanLiteral, *ast.NullLiteral:
		return cst.KindLiteral, nil
	case *ast.ParenthesisedExpression:
		return cst.KindParenthesised, nil
	case *ast.Garbage:
		return cst.KindGarbage, nil
	default:
		return 0, &InvariantError{Unit: b.unit.ID(), Offset: span.Start, Reason: fmt.Sprintf("unexpected node %T", n)}
	}
}
