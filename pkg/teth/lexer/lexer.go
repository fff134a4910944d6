package lexer

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/yaklabco/tethls/pkg/source"
)

// Result is the output of Tokenize.
type Result struct {
	// Tokens cover [0, len(input)) contiguously, followed by a zero-width EOF token.
	Tokens []Token

	// Problems are the lexical diagnostics, in source order.
	Problems []source.Problem
}

// Source returns the tokens without the trailing EOF token.
func (r Result) Source() []Token {
	if n := len(r.Tokens); n > 0 && r.Tokens[n-1].Kind == EOF {
		return r.Tokens[:n-1]
	}
	return r.Tokens
}

// Tokenize splits input into tokens. Spans in problems refer to unit.
func Tokenize(unit source.ID, input string) Result {
	lx := &lexer{unit: unit, input: input}
	lx.run()
	return Result{Tokens: lx.tokens, Problems: lx.problems}
}

type lexer struct {
	unit     source.ID
	input    string
	pos      int
	tokens   []Token
	problems []source.Problem
}

func (lx *lexer) run() {
	lx.tokens = make([]Token, 0, len(lx.input)/3+1)

	for lx.pos < len(lx.input) {
		start := lx.pos
		c := lx.input[lx.pos]

		switch {
		case isDigit(c):
			lx.number()
		case c == '"':
			lx.str()
		case isIdentStart(c):
			lx.word()
		case c == '\n':
			lx.pos++
			lx.emit(LineBreak, start)
		case c == '\r' && lx.peekAt(1) == '\n':
			lx.pos += 2
			lx.emit(LineBreak, start)
		case isSpace(c):
			for lx.pos < len(lx.input) && isSpace(lx.input[lx.pos]) && !lx.atCRLF() {
				lx.pos++
			}
			lx.emit(Whitespace, start)
		default:
			if kind, width := punctuation(lx.input[lx.pos:]); width > 0 {
				lx.pos += width
				lx.emit(kind, start)
				continue
			}
			lx.operator()
		}
	}

	lx.tokens = append(lx.tokens, Token{Kind: EOF, Start: len(lx.input), End: len(lx.input)})
}

func (lx *lexer) emit(kind Kind, start int) {
	lx.tokens = append(lx.tokens, Token{Kind: kind, Start: start, End: lx.pos})
}

func (lx *lexer) report(start, end int, format string, args ...any) {
	lx.problems = append(lx.problems, source.NewProblem(source.NewSpan(lx.unit, start, end), fmt.Sprintf(format, args...)))
}

func (lx *lexer) peekAt(n int) byte {
	if lx.pos+n >= len(lx.input) {
		return 0
	}
	return lx.input[lx.pos+n]
}

func (lx *lexer) atCRLF() bool {
	return lx.input[lx.pos] == '\r' && lx.peekAt(1) == '\n'
}

func (lx *lexer) word() {
	start := lx.pos
	for lx.pos < len(lx.input) && isIdentPart(lx.input[lx.pos]) {
		lx.pos++
	}

	text := lx.input[start:lx.pos]
	switch {
	case text == "true" || text == "false":
		lx.emit(Boolean, start)
	default:
		if kind, ok := LookupKeyword(text); ok {
			lx.emit(kind, start)
			return
		}
		lx.emit(Identifier, start)
	}
}

func (lx *lexer) number() {
	start := lx.pos
	for lx.pos < len(lx.input) && isDigit(lx.input[lx.pos]) {
		lx.pos++
	}

	kind := Long
	if lx.pos < len(lx.input) && lx.input[lx.pos] == '.' && isDigit(lx.peekAt(1)) {
		kind = Double
		lx.pos++
		for lx.pos < len(lx.input) && isDigit(lx.input[lx.pos]) {
			lx.pos++
		}
	}

	text := lx.input[start:lx.pos]
	var err error
	if kind == Long {
		_, err = strconv.ParseInt(text, 10, 64)
	} else {
		_, err = strconv.ParseFloat(text, 64)
	}
	if err != nil {
		lx.report(start, lx.pos, "Number is too big")
	}

	lx.emit(kind, start)
}

// str lexes a string literal. An unterminated literal ends before the line
// break or end of input and is reported once, spanning the whole token.
func (lx *lexer) str() {
	start := lx.pos
	lx.pos++ // opening quote

	escaped := false
	for {
		if lx.pos >= len(lx.input) || lx.input[lx.pos] == '\n' || lx.atCRLF() {
			lx.report(start, lx.pos, "Unclosed string literal")
			break
		}

		c := lx.input[lx.pos]
		lx.pos++
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			break
		}
	}

	lx.emit(String, start)
}

func (lx *lexer) operator() {
	start := lx.pos
	c := lx.input[lx.pos]
	next := lx.peekAt(1)

	two := func(kind Kind) {
		lx.pos += 2
		lx.emit(kind, start)
	}
	one := func(kind Kind) {
		lx.pos++
		lx.emit(kind, start)
	}

	switch c {
	case '=':
		if next == '=' {
			two(EqualEqual)
			return
		}
		one(Equal)
	case '!':
		if next == '=' {
			two(NotEqual)
			return
		}
		one(Not)
	case '<':
		switch next {
		case '=':
			two(LessEqual)
		case '|':
			two(LessPipe)
		default:
			one(Less)
		}
	case '>':
		if next == '=' {
			two(GreaterEqual)
			return
		}
		one(Greater)
	case '&':
		if next == '&' {
			two(AndAnd)
			return
		}
		lx.report(start, start+1, "Invalid character '&', did you mean '&&'?")
		one(AndAnd)
	case '|':
		if next == '|' {
			two(OrOr)
			return
		}
		lx.report(start, start+1, "Invalid character '|', did you mean '||'?")
		one(OrOr)
	case '+':
		one(Plus)
	case '-':
		one(Minus)
	case '*':
		one(Star)
	case '^':
		one(Pow)
	case '/':
		switch next {
		case '/':
			lx.lineComment()
		case '*':
			lx.blockComment()
		default:
			one(Slash)
		}
	default:
		_, width := utf8.DecodeRuneInString(lx.input[lx.pos:])
		lx.pos += width
		lx.report(start, lx.pos, "Invalid character '%s'", lx.input[start:lx.pos])
		lx.emit(Invalid, start)
	}
}

func (lx *lexer) lineComment() {
	start := lx.pos
	for lx.pos < len(lx.input) && lx.input[lx.pos] != '\n' && !lx.atCRLF() {
		lx.pos++
	}
	lx.emit(Comment, start)
}

func (lx *lexer) blockComment() {
	start := lx.pos
	lx.pos += 2

	for {
		if lx.pos >= len(lx.input) {
			lx.report(start, lx.pos, "Unclosed comment")
			break
		}
		if lx.input[lx.pos] == '*' && lx.peekAt(1) == '/' {
			lx.pos += 2
			break
		}
		lx.pos++
	}

	lx.emit(Comment, start)
}

func punctuation(rest string) (Kind, int) {
	switch rest[0] {
	case ',':
		return Comma, 1
	case '.':
		return Dot, 1
	case ':':
		return Colon, 1
	case ';':
		return Semicolon, 1
	case '(':
		return LParen, 1
	case ')':
		return RParen, 1
	case '{':
		return LCurly, 1
	case '}':
		return RCurly, 1
	case '[':
		return LBracket, 1
	case ']':
		return RBracket, 1
	default:
		return Invalid, 0
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v'
}
