// Package parser turns teth tokens into an AST.
//
// The parser never fails. Malformed input is reported as problems and
// represented in the tree by Garbage nodes, so every unit produces a root
// whose child spans are ordered, non-overlapping, and nested.
package parser

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/yaklabco/tethls/pkg/source"
	"github.com/yaklabco/tethls/pkg/teth/ast"
	"github.com/yaklabco/tethls/pkg/teth/lexer"
)

// Result is the output of Parse.
type Result struct {
	// Unit is the root of the AST. Its span covers the whole text.
	Unit *ast.Unit

	// Tokens is the lossless token stream the AST was built from,
	// terminated by an EOF token.
	Tokens []lexer.Token

	// Problems holds lexical and syntactic problems, sorted by offset.
	Problems []source.Problem
}

// Parse tokenizes and parses text as the unit id.
func Parse(id source.ID, text string) Result {
	return ParseTokens(id, text, lexer.Tokenize(id, text))
}

// ParseTokens parses an existing token stream for text.
func ParseTokens(id source.ID, text string, lexed lexer.Result) Result {
	p := newParser(id, text, lexed.Tokens)
	unit := p.parseUnit()

	problems := slices.Clone(lexed.Problems)
	problems = append(problems, p.problems...)
	source.SortProblems(problems)

	return Result{Unit: unit, Tokens: lexed.Tokens, Problems: problems}
}

type anchorSet uint64

func anchors(kinds ...lexer.Kind) anchorSet {
	var set anchorSet
	for _, k := range kinds {
		set |= 1 << k
	}
	return set
}

func (s anchorSet) has(k lexer.Kind) bool {
	return s&(1<<k) != 0
}

// recoverySet holds the tokens at which error recovery stops skipping.
var recoverySet = anchors(
	lexer.LineBreak, lexer.Semicolon, lexer.Comma, lexer.Colon, lexer.Equal, lexer.Greater,
	lexer.LParen, lexer.RParen, lexer.LCurly, lexer.RCurly, lexer.RBracket,
	lexer.Let, lexer.Fn, lexer.Struct, lexer.Use, lexer.If, lexer.Else,
	lexer.Loop, lexer.Return, lexer.Break, lexer.Continue, lexer.EOF,
)

type parser struct {
	unit     source.ID
	text     string
	tokens   []lexer.Token
	pos      int
	prevEnd  int
	suppress bool
	problems []source.Problem
}

func newParser(id source.ID, text string, all []lexer.Token) *parser {
	tokens := make([]lexer.Token, 0, len(all))
	for _, tok := range all {
		if !tok.Kind.IsTrivia() {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.EOF {
		tokens = append(tokens, lexer.Token{Kind: lexer.EOF, Start: len(text), End: len(text)})
	}
	return &parser{unit: id, text: text, tokens: tokens}
}

// mark records where a node begins.
type mark struct {
	offset int
	pos    int
}

func (p *parser) mark() mark {
	return mark{offset: p.peek().Start, pos: p.pos}
}

// finish returns the span of a node started at m. A node that consumed no
// tokens gets an empty span at the end of the previous token, which keeps
// it inside its parent and after its preceding siblings. The span is widened
// to cover any of children that starts before m: an empty placeholder for a
// missing operand sits at the end of the previous token, ahead of m.
func (p *parser) finish(m mark, children ...ast.Node) ast.Base {
	if p.pos == m.pos {
		return ast.At(source.NewSpan(p.unit, p.prevEnd, p.prevEnd))
	}
	start := m.offset
	for _, child := range children {
		if child == nil {
			continue
		}
		if span, ok := child.Span(); ok && span.Start < start {
			start = span.Start
		}
	}
	return ast.At(source.NewSpan(p.unit, start, p.prevEnd))
}

func (p *parser) from(start int) ast.Base {
	return ast.At(source.NewSpan(p.unit, start, p.prevEnd))
}

func (p *parser) tokenBase(tok lexer.Token) ast.Base {
	return ast.At(source.NewSpan(p.unit, tok.Start, tok.End))
}

func (p *parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *parser) at(kind lexer.Kind) bool {
	return p.peek().Kind == kind
}

func (p *parser) consume(recovering bool) lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Kind == lexer.EOF {
		return tok
	}
	if !recovering {
		p.suppress = false
	}
	p.pos++
	p.prevEnd = tok.End
	return tok
}

func (p *parser) advance() lexer.Token {
	return p.consume(false)
}

func (p *parser) skipLineBreaks() {
	for p.at(lexer.LineBreak) {
		p.advance()
	}
}

func (p *parser) skipTerminators() {
	for p.at(lexer.LineBreak) || p.at(lexer.Semicolon) {
		p.advance()
	}
}

func (p *parser) errorAt(tok lexer.Token, format string, args ...any) {
	if !p.suppress {
		span := source.NewSpan(p.unit, tok.Start, tok.End)
		p.problems = append(p.problems, source.NewProblem(span, fmt.Sprintf(format, args...)))
	}
	p.suppress = true
}

func (p *parser) recover() {
	for k := p.peek().Kind; k != lexer.EOF && !recoverySet.has(k); k = p.peek().Kind {
		p.consume(true)
	}
}

func (p *parser) expect(kind lexer.Kind, format string, args ...any) (lexer.Token, bool) {
	if p.at(kind) {
		return p.advance(), true
	}

	p.errorAt(p.peek(), format, args...)
	p.recover()
	if p.at(kind) {
		return p.consume(true), true
	}
	return lexer.Token{}, false
}

func (p *parser) expectIdentifier(format string, args ...any) *ast.Identifier {
	tok, ok := p.expect(lexer.Identifier, format, args...)
	if !ok {
		return nil
	}
	return &ast.Identifier{Base: p.tokenBase(tok), Name: tok.Text(p.text)}
}

func (p *parser) parseUnit() *ast.Unit {
	statements := p.parseStatementList(lexer.EOF)
	return &ast.Unit{
		Base:       ast.At(source.NewSpan(p.unit, 0, len(p.text))),
		Module:     p.unit,
		Statements: statements,
	}
}

func (p *parser) parseStatementList(end lexer.Kind) []ast.Statement {
	var statements []ast.Statement
	for {
		p.skipTerminators()
		if p.at(end) || p.at(lexer.EOF) {
			return statements
		}

		before := p.pos
		stmt := p.parseStatement()
		if p.pos == before {
			// Nothing could start here; swallow the token so parsing advances.
			tok := p.peek()
			p.errorAt(tok, "Unexpected '%s'", tok.Text(p.text))
			p.consume(true)
			stmt = &ast.Garbage{Base: p.tokenBase(tok)}
		}
		statements = append(statements, stmt)
	}
}

func (p *parser) parseStatement() ast.Statement {
	switch tok := p.peek(); tok.Kind {
	case lexer.If:
		return p.parseIf()
	case lexer.Loop:
		return p.parseLoop()
	case lexer.Struct:
		return p.parseStruct()
	case lexer.Fn:
		return p.parseFunction(false)
	case lexer.Return:
		return p.parseReturn()
	case lexer.Let:
		return p.parseVariable()
	case lexer.Use:
		return p.parseUse()
	case lexer.Break:
		p.advance()
		return &ast.BreakStatement{Base: p.tokenBase(tok)}
	case lexer.Continue:
		p.advance()
		return &ast.ContinueStatement{Base: p.tokenBase(tok)}
	case lexer.Else:
		p.errorAt(tok, "'else' not allowed here")
		p.consume(true)
		return &ast.Garbage{Base: p.tokenBase(tok)}
	case lexer.LCurly:
		return p.parseBlock()
	default:
		return p.parseExpression()
	}
}

func (p *parser) parseBlock() *ast.Block {
	if p.at(lexer.LCurly) {
		start := p.advance().Start
		statements := p.parseStatementList(lexer.RCurly)
		p.expect(lexer.RCurly, "Expected closing '}'")
		return &ast.Block{Base: p.from(start), Statements: statements}
	}

	// A single statement stands in for a braced block.
	p.skipLineBreaks()
	m := p.mark()
	stmt := p.parseStatement()
	return &ast.Block{Base: p.finish(m, stmt), Statements: []ast.Statement{stmt}}
}

func (p *parser) parseIf() *ast.IfStatement {
	start := p.advance().Start
	node := &ast.IfStatement{}
	node.Cond = p.parseExpression()
	p.skipLineBreaks()
	node.Then = p.parseBlock()

	savePos, saveEnd := p.pos, p.prevEnd
	p.skipLineBreaks()
	if p.at(lexer.Else) {
		p.advance()
		p.skipLineBreaks()
		node.Else = p.parseBlock()
	} else {
		p.pos, p.prevEnd = savePos, saveEnd
	}

	node.Base = p.from(start)
	return node
}

func (p *parser) parseLoop() *ast.LoopStatement {
	start := p.advance().Start
	node := &ast.LoopStatement{}
	p.skipLineBreaks()

	if p.at(lexer.LParen) {
		p.advance()
		p.skipLineBreaks()

		for p.at(lexer.Let) {
			node.Vars = append(node.Vars, p.parseVariable())
			p.skipLineBreaks()
			if !p.at(lexer.Comma) {
				break
			}
			p.advance()
			p.skipLineBreaks()
		}

		if !p.at(lexer.RParen) {
			node.Cond = p.parseExpression()
			p.skipLineBreaks()
			if p.at(lexer.Comma) {
				p.advance()
				p.skipLineBreaks()
				node.Advance = p.parseStatement()
			}
		}

		p.skipLineBreaks()
		p.expect(lexer.RParen, "Expected closing ')'")
		p.skipLineBreaks()
	}

	node.Body = p.parseBlock()
	node.Base = p.from(start)
	return node
}

func (p *parser) parseReturn() *ast.ReturnStatement {
	start := p.advance().Start
	node := &ast.ReturnStatement{}

	switch p.peek().Kind {
	case lexer.LineBreak, lexer.Semicolon, lexer.RCurly, lexer.EOF:
	default:
		node.Value = p.parseExpression()
	}

	node.Base = p.from(start)
	return node
}

func (p *parser) parseVariable() *ast.VariableDeclaration {
	start := p.advance().Start
	node := &ast.VariableDeclaration{}
	p.skipLineBreaks()

	node.Name = p.expectIdentifier("Expected variable name")
	p.skipLineBreaks()

	if p.at(lexer.Colon) {
		p.advance()
		p.skipLineBreaks()
		node.Type = p.parseType()
		p.skipLineBreaks()
	}

	if _, ok := p.expect(lexer.Equal, "Expected '=' after variable name"); ok {
		p.skipLineBreaks()
		node.Init = p.parseExpression()
	} else {
		node.Init = &ast.Garbage{Base: ast.At(source.NewSpan(p.unit, p.prevEnd, p.prevEnd))}
	}

	node.Base = p.from(start)
	return node
}

func (p *parser) parseFunction(method bool) *ast.FunctionDeclaration {
	start := p.advance().Start
	node := &ast.FunctionDeclaration{Method: method}
	p.skipLineBreaks()

	if p.at(lexer.Intrinsic) {
		p.advance()
		node.Intrinsic = true
	}

	node.Name = p.expectIdentifier("Expected function name")
	p.skipLineBreaks()
	node.Generics = p.parseGenericParameters()
	p.skipLineBreaks()

	if _, ok := p.expect(lexer.LParen, "Expected opening '(' after function name"); ok {
		p.parseList(lexer.RParen, func() {
			node.Params = append(node.Params, p.parseParameter())
		})
		p.expect(lexer.RParen, "Expected closing ')'")
	}

	if p.at(lexer.Identifier) {
		node.ReturnType = p.parseType()
	}

	if node.Intrinsic && !p.at(lexer.LCurly) {
		node.Base = p.from(start)
		return node
	}

	p.skipLineBreaks()
	node.Body = p.parseBlock()
	node.Base = p.from(start)
	return node
}

func (p *parser) parseParameter() *ast.ParameterDeclaration {
	m := p.mark()
	node := &ast.ParameterDeclaration{}
	node.Name = p.expectIdentifier("Expected parameter name")
	p.skipLineBreaks()
	p.expect(lexer.Colon, "Expected ':' after parameter name")
	p.skipLineBreaks()
	node.Type = p.parseType()
	node.Base = p.finish(m)
	return node
}

func (p *parser) parseGenericParameters() []*ast.GenericParameterDeclaration {
	if !p.at(lexer.Less) {
		return nil
	}
	p.advance()

	var params []*ast.GenericParameterDeclaration
	p.parseList(lexer.Greater, func() {
		name := p.expectIdentifier("Expected generic parameter name")
		if name != nil {
			params = append(params, &ast.GenericParameterDeclaration{Base: name.Base, Name: name})
		}
	})
	p.expect(lexer.Greater, "Expected '>'")
	return params
}

// parseList parses comma-separated elements up to, but not including, end.
func (p *parser) parseList(end lexer.Kind, element func()) {
	count := 0
	for {
		p.skipLineBreaks()
		if p.at(end) || p.at(lexer.EOF) {
			return
		}

		if count > 0 {
			if _, ok := p.expect(lexer.Comma, "Expected ',' or '%s'", end); !ok && (p.at(end) || p.at(lexer.EOF)) {
				return
			}
			p.skipLineBreaks()
		}

		before := p.pos
		element()
		count++
		if before == p.pos && !p.at(lexer.Comma) {
			return
		}
	}
}

func (p *parser) parseStruct() *ast.StructDeclaration {
	start := p.advance().Start
	node := &ast.StructDeclaration{}
	p.skipLineBreaks()

	if p.at(lexer.Intrinsic) {
		p.advance()
		node.Intrinsic = true
	}

	node.Name = p.expectIdentifier("Expected struct name")
	p.skipLineBreaks()
	node.Generics = p.parseGenericParameters()
	p.skipLineBreaks()

	if !p.at(lexer.LCurly) {
		node.Base = p.from(start)
		return node
	}
	p.advance()

	for {
		p.skipTerminators()
		if p.at(lexer.RCurly) || p.at(lexer.EOF) {
			break
		}

		before := p.pos
		switch tok := p.peek(); tok.Kind {
		case lexer.Identifier:
			node.Fields = append(node.Fields, p.parseField(len(node.Fields)))
		case lexer.Fn:
			node.Functions = append(node.Functions, p.parseFunction(true))
		default:
			p.errorAt(tok, "Expected field or function declaration")
			p.recover()
		}
		if p.pos == before {
			p.consume(true)
		}
	}

	p.expect(lexer.RCurly, "Expected closing '}'")
	node.Base = p.from(start)
	return node
}

func (p *parser) parseField(index int) *ast.FieldDeclaration {
	nameTok := p.advance()
	node := &ast.FieldDeclaration{
		Name:  &ast.Identifier{Base: p.tokenBase(nameTok), Name: nameTok.Text(p.text)},
		Index: index,
	}
	if _, ok := p.expect(lexer.Colon, "Expected ':' after field name"); ok {
		node.Type = p.parseType()
	}
	node.Base = p.from(nameTok.Start)
	return node
}

func (p *parser) parseUse() *ast.UseStatement {
	start := p.advance().Start
	node := &ast.UseStatement{}
	p.skipLineBreaks()

	for {
		part := p.parsePathPart()
		if part == nil {
			break
		}
		node.Path = append(node.Path, part)
		if !p.at(lexer.Slash) {
			break
		}
		p.advance()
	}
	p.skipLineBreaks()

	switch {
	case p.at(lexer.LCurly):
		p.advance()
		p.parseList(lexer.RCurly, func() {
			if name := p.expectIdentifier("Expected identifier"); name != nil {
				node.Imports = append(node.Imports, name)
			}
		})
		p.expect(lexer.RCurly, "Missing closing '}'")
	case p.at(lexer.Colon):
		p.advance()
		for {
			if name := p.expectIdentifier("Expected identifier"); name != nil {
				node.Imports = append(node.Imports, name)
			}
			if !p.at(lexer.Comma) {
				break
			}
			p.advance()
			p.skipLineBreaks()
		}
	default:
		p.errorAt(p.peek(), "Expected '{' or ':' after use statement path")
		p.recover()
	}

	node.Base = p.from(start)
	return node
}

// parsePathPart parses one segment of a use path: a name, "." or "..".
func (p *parser) parsePathPart() *ast.Identifier {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Identifier:
		p.advance()
		return &ast.Identifier{Base: p.tokenBase(tok), Name: tok.Text(p.text)}
	case lexer.Dot:
		p.advance()
		if next := p.peek(); next.Kind == lexer.Dot && next.Start == tok.End {
			p.advance()
			return &ast.Identifier{Base: p.from(tok.Start), Name: ".."}
		}
		return &ast.Identifier{Base: p.tokenBase(tok), Name: "."}
	default:
		p.errorAt(tok, "Expected use statement path part")
		return nil
	}
}

func (p *parser) parseType() *ast.TypeExpression {
	name := p.expectIdentifier("Expected a type name")
	if name == nil {
		return &ast.TypeExpression{Base: ast.At(source.NewSpan(p.unit, p.prevEnd, p.prevEnd))}
	}

	node := &ast.TypeExpression{Name: name}
	if p.at(lexer.Less) {
		less := p.advance()
		p.parseList(lexer.Greater, func() {
			node.Args = append(node.Args, p.parseType())
		})
		if len(node.Args) == 0 {
			p.errorAt(less, "Empty generic parameter list")
		}
		p.expect(lexer.Greater, "Expected '>'")
	}

	node.Base = p.from(name.Loc.Start)
	return node
}

func (p *parser) parseExpression() ast.Expression {
	return p.parseBinary(1)
}

func (p *parser) parseBinary(minPrec int) ast.Expression {
	left := p.parseUnary()

	for {
		op, ok := ast.BinaryOpFor(p.peek().Kind)
		if !ok || op.Precedence() < minPrec {
			return left
		}
		p.advance()
		p.skipLineBreaks()

		next := op.Precedence() + 1
		if op.RightAssociative() {
			next = op.Precedence()
		}
		right := p.parseBinary(next)

		leftSpan, _ := left.Span()
		if op == ast.OpAssign && !isAssignable(left) {
			p.problems = append(p.problems, source.NewProblem(leftSpan, "Cannot assign to this expression"))
		}

		left = &ast.BinaryExpression{Base: p.from(leftSpan.Start), Op: op, Left: left, Right: right}
	}
}

func isAssignable(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Identifier, *ast.MemberAccessExpression:
		return true
	default:
		return false
	}
}

func (p *parser) parseUnary() ast.Expression {
	tok := p.peek()
	op, ok := ast.UnaryOpFor(tok.Kind)
	if !ok {
		return p.parsePostfix()
	}

	p.advance()
	operand := p.parseUnary()
	return &ast.UnaryExpression{Base: p.from(tok.Start), Op: op, Operand: operand}
}

func (p *parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()

	for {
		start, _ := expr.Span()
		switch p.peek().Kind {
		case lexer.LParen, lexer.LessPipe:
			call := &ast.CallExpression{Target: expr}
			if p.at(lexer.LessPipe) {
				p.advance()
				p.parseList(lexer.Greater, func() {
					call.TypeArgs = append(call.TypeArgs, p.parseType())
				})
				p.expect(lexer.Greater, "Expected '>'")
			}
			call.Args = p.parseArguments()
			call.Base = p.from(start.Start)
			expr = call
		case lexer.Dot:
			p.advance()
			member := p.expectIdentifier("Expected member name after '.'")
			expr = &ast.MemberAccessExpression{Base: p.from(start.Start), Target: expr, Member: member}
		default:
			return expr
		}
	}
}

func (p *parser) parseArguments() []ast.Expression {
	var args []ast.Expression
	if _, ok := p.expect(lexer.LParen, "Expected opening '('"); !ok {
		return nil
	}
	p.parseList(lexer.RParen, func() {
		args = append(args, p.parseExpression())
	})
	p.expect(lexer.RParen, "Expected closing ')'")
	return args
}

func (p *parser) parsePrimary() ast.Expression {
	tok := p.peek()

	switch tok.Kind {
	case lexer.LParen:
		p.advance()
		p.skipLineBreaks()
		inner := p.parseExpression()
		p.skipLineBreaks()
		p.expect(lexer.RParen, "Expected closing ')'")
		return &ast.ParenthesisedExpression{Base: p.from(tok.Start), Inner: inner}
	case lexer.New:
		return p.parseObjectCreation()
	case lexer.LBracket:
		p.advance()
		list := &ast.ListLiteral{}
		p.parseList(lexer.RBracket, func() {
			list.Elements = append(list.Elements, p.parseExpression())
		})
		p.expect(lexer.RBracket, "Expected closing ']'")
		list.Base = p.from(tok.Start)
		return list
	case lexer.Identifier:
		p.advance()
		return &ast.Identifier{Base: p.tokenBase(tok), Name: tok.Text(p.text)}
	case lexer.Long:
		p.advance()
		value, _ := strconv.ParseInt(tok.Text(p.text), 10, 64)
		return &ast.LongLiteral{Base: p.tokenBase(tok), Value: value}
	case lexer.Double:
		p.advance()
		value, _ := strconv.ParseFloat(tok.Text(p.text), 64)
		return &ast.DoubleLiteral{Base: p.tokenBase(tok), Value: value}
	case lexer.String:
		p.advance()
		return &ast.StringLiteral{Base: p.tokenBase(tok), Value: unquote(tok.Text(p.text))}
	case lexer.Boolean:
		p.advance()
		return &ast.BooleanLiteral{Base: p.tokenBase(tok), Value: tok.Text(p.text) == "true"}
	case lexer.Null:
		p.advance()
		return &ast.NullLiteral{Base: p.tokenBase(tok)}
	default:
		m := p.mark()
		p.errorAt(tok, "Expected an expression")
		p.recover()
		return &ast.Garbage{Base: p.finish(m)}
	}
}

func (p *parser) parseObjectCreation() *ast.ObjectCreationExpression {
	start := p.advance().Start
	node := &ast.ObjectCreationExpression{}
	p.skipLineBreaks()

	node.Type = p.expectIdentifier("Expected type name")
	p.skipLineBreaks()

	if p.at(lexer.Less) {
		p.advance()
		p.parseList(lexer.Greater, func() {
			node.TypeArgs = append(node.TypeArgs, p.parseType())
		})
		p.expect(lexer.Greater, "Expected '>'")
	}

	node.Args = p.parseArguments()
	node.Base = p.from(start)
	return node
}

// unquote strips the quotes of a string literal and resolves escapes.
// Unterminated literals keep everything after the opening quote.
func unquote(raw string) string {
	if len(raw) == 0 {
		return ""
	}
	body := raw[1:]
	if len(body) > 0 && body[len(body)-1] == '"' && !strings.HasSuffix(body, `\"`) {
		body = body[:len(body)-1]
	}

	var out strings.Builder
	out.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			out.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		default:
			out.WriteByte(body[i])
		}
	}
	return out.String()
}
