package ast

import "github.com/yaklabco/tethls/pkg/teth/lexer"

// BinaryOp is a binary operator.
type BinaryOp uint8

// Binary operators.
const (
	OpAssign BinaryOp = iota
	OpOr
	OpAnd
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpPow
)

var binaryOps = map[lexer.Kind]BinaryOp{
	lexer.Equal:        OpAssign,
	lexer.OrOr:         OpOr,
	lexer.AndAnd:       OpAnd,
	lexer.EqualEqual:   OpEqual,
	lexer.NotEqual:     OpNotEqual,
	lexer.Less:         OpLess,
	lexer.LessEqual:    OpLessEqual,
	lexer.Greater:      OpGreater,
	lexer.GreaterEqual: OpGreaterEqual,
	lexer.Plus:         OpAdd,
	lexer.Minus:        OpSubtract,
	lexer.Star:         OpMultiply,
	lexer.Slash:        OpDivide,
	lexer.Pow:          OpPow,
}

var binarySymbols = [...]string{
	OpAssign:       "=",
	OpOr:           "||",
	OpAnd:          "&&",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpAdd:          "+",
	OpSubtract:     "-",
	OpMultiply:     "*",
	OpDivide:       "/",
	OpPow:          "^",
}

// BinaryOpFor returns the operator a token kind denotes.
func BinaryOpFor(kind lexer.Kind) (BinaryOp, bool) {
	op, ok := binaryOps[kind]
	return op, ok
}

// Precedence returns the binding strength of op. Higher binds tighter.
func (op BinaryOp) Precedence() int {
	switch op {
	case OpAssign:
		return 1
	case OpOr:
		return 2
	case OpAnd:
		return 3
	case OpEqual, OpNotEqual:
		return 4
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return 5
	case OpAdd, OpSubtract:
		return 6
	case OpMultiply, OpDivide:
		return 7
	case OpPow:
		return 8
	default:
		return 0
	}
}

// RightAssociative reports whether op groups from the right.
func (op BinaryOp) RightAssociative() bool {
	return op == OpAssign || op == OpPow
}

// IsComparison reports whether op yields a boolean from two operands.
func (op BinaryOp) IsComparison() bool {
	return op >= OpOr && op <= OpGreaterEqual
}

// String returns the operator symbol.
func (op BinaryOp) String() string {
	if int(op) < len(binarySymbols) {
		return binarySymbols[op]
	}
	return "?"
}

// UnaryOp is a prefix operator.
type UnaryOp uint8

// Unary operators.
const (
	OpNegate UnaryOp = iota
	OpNot
)

// UnaryOpFor returns the prefix operator a token kind denotes.
func UnaryOpFor(kind lexer.Kind) (UnaryOp, bool) {
	switch kind {
	case lexer.Minus:
		return OpNegate, true
	case lexer.Not:
		return OpNot, true
	default:
		return 0, false
	}
}

// String returns the operator symbol.
func (op UnaryOp) String() string {
	if op == OpNot {
		return "!"
	}
	return "-"
}
