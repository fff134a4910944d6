// Package teth provides the CST parser for teth source units.
//
// It drives the reference toolchain (lexer and parser) and merges its AST
// with the classified token stream into a complete cst.Tree.
package teth

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/tethls/internal/logging"
	"github.com/yaklabco/tethls/pkg/cst"
	"github.com/yaklabco/tethls/pkg/source"
	"github.com/yaklabco/tethls/pkg/teth/ast"
	"github.com/yaklabco/tethls/pkg/teth/lexer"
	"github.com/yaklabco/tethls/pkg/teth/parser"
)

// Parser builds CSTs and transient ASTs for source units.
// A Parser is stateless and safe for concurrent use.
type Parser struct {
	logger *log.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used to report invariant violations.
// Without it the logger is taken from the context.
func WithLogger(logger *log.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// New creates a parser.
func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse tokenizes, parses, and builds the CST of unit.
//
// Malformed source never fails: it yields Garbage nodes and problems. The
// returned error is either the context's error or an *InvariantError.
func (p *Parser) Parse(ctx context.Context, unit *source.Unit) (*cst.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}

	lexed := lexer.Tokenize(unit.ID(), unit.Text())
	parsed := parser.ParseTokens(unit.ID(), unit.Text(), lexed)
	tokens := classify(lexed.Source(), 0)

	root, err := Build(ctx, unit, parsed.Unit, tokens)
	if err != nil {
		if errors.Is(err, ErrInvariant) {
			p.loggerFor(ctx).Error("cannot build syntax tree",
				logging.FieldPath, unit.ID(),
				logging.FieldError, err,
			)
		}
		return nil, fmt.Errorf("build %s: %w", unit.ID(), err)
	}

	return cst.NewTree(unit, tokens, root, parsed.Problems), nil
}

// ParseAST parses unit into a fresh AST. Every call returns new nodes, so
// the result may be handed to an analyzer and discarded afterwards.
func (p *Parser) ParseAST(ctx context.Context, unit *source.Unit) (*ast.Unit, []source.Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("parse cancelled: %w", err)
	}

	parsed := parser.Parse(unit.ID(), unit.Text())
	return parsed.Unit, parsed.Problems, nil
}

func (p *Parser) loggerFor(ctx context.Context) *log.Logger {
	if p.logger != nil {
		return p.logger
	}
	return logging.FromContext(ctx)
}
