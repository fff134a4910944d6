package teth

import (
	"github.com/yaklabco/tethls/pkg/cst"
	"github.com/yaklabco/tethls/pkg/teth/lexer"
)

// Tokenize re-tokenizes text with the toolchain lexer and classifies every
// token for the CST. The result is contiguous and covers [0, len(text)).
func Tokenize(text string) []cst.Token {
	return classify(lexer.Tokenize("", text).Source(), 0)
}

// TokenizeRange tokenizes text[start:end] on its own, the way an editor
// lexer restarts on a window of the buffer. Offsets are relative to text.
// An out-of-range window is clamped to the text.
func TokenizeRange(text string, start, end int) []cst.Token {
	start = max(0, min(start, len(text)))
	end = max(start, min(end, len(text)))
	return classify(lexer.Tokenize("", text[start:end]).Source(), start)
}

func classify(tokens []lexer.Token, base int) []cst.Token {
	out := make([]cst.Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind == lexer.EOF {
			continue
		}
		out = append(out, cst.Token{
			Kind:        Classify(tok.Kind),
			StartOffset: base + tok.Start,
			EndOffset:   base + tok.End,
		})
	}
	return out
}

// Classify maps a toolchain token kind to its CST token kind.
func Classify(kind lexer.Kind) cst.TokenKind {
	switch kind {
	case lexer.Identifier:
		return cst.TokIdentifier
	case lexer.Long:
		return cst.TokLong
	case lexer.Double:
		return cst.TokDouble
	case lexer.String:
		return cst.TokString
	case lexer.Boolean:
		return cst.TokKeyword

	case lexer.Comma:
		return cst.TokComma
	case lexer.Dot, lexer.Colon, lexer.Semicolon, lexer.LineBreak:
		return cst.TokSeparator

	case lexer.Less:
		return cst.TokLess
	case lexer.LessPipe:
		return cst.TokLessPipe
	case lexer.Greater:
		return cst.TokGreater
	case lexer.Equal, lexer.Not, lexer.EqualEqual, lexer.NotEqual, lexer.LessEqual,
		lexer.GreaterEqual, lexer.Plus, lexer.Minus, lexer.Star, lexer.Slash, lexer.Pow,
		lexer.AndAnd, lexer.OrOr:
		return cst.TokOperator

	case lexer.LParen:
		return cst.TokLParen
	case lexer.RParen:
		return cst.TokRParen
	case lexer.LCurly:
		return cst.TokLCurly
	case lexer.RCurly:
		return cst.TokRCurly
	case lexer.LBracket:
		return cst.TokLBracket
	case lexer.RBracket:
		return cst.TokRBracket

	case lexer.Whitespace:
		return cst.TokWhitespace
	case lexer.Comment:
		return cst.TokComment
	}

	if kind.IsKeyword() {
		return cst.TokKeyword
	}
	return cst.TokBadCharacter
}
