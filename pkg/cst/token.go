package cst

import "fmt"

// TokenKind classifies a token for editor features.
// The set is fixed and independent of the toolchain's own token kinds.
type TokenKind uint8

// Token kinds cover every byte in the source.
const (
	TokKeyword TokenKind = iota
	TokIdentifier
	TokSeparator // '.', ':', ';', line breaks
	TokOperator
	TokLCurly
	TokRCurly
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokLess
	TokLessPipe // '<|'
	TokGreater
	TokComma
	TokString
	TokDouble
	TokLong
	TokComment
	TokWhitespace
	TokBadCharacter
)

var tokenKindNames = [...]string{
	TokKeyword:      "Keyword",
	TokIdentifier:   "Identifier",
	TokSeparator:    "Separator",
	TokOperator:     "Operator",
	TokLCurly:       "LCurly",
	TokRCurly:       "RCurly",
	TokLParen:       "LParen",
	TokRParen:       "RParen",
	TokLBracket:     "LBracket",
	TokRBracket:     "RBracket",
	TokLess:         "Less",
	TokLessPipe:     "LessPipe",
	TokGreater:      "Greater",
	TokComma:        "Comma",
	TokString:       "String",
	TokDouble:       "Double",
	TokLong:         "Long",
	TokComment:      "Comment",
	TokWhitespace:   "Whitespace",
	TokBadCharacter: "BadCharacter",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", k)
}

// IsTrivia reports whether tokens of this kind carry no syntax.
func (k TokenKind) IsTrivia() bool {
	return k == TokWhitespace || k == TokComment
}

// Token is a classified span of bytes in the source.
// Tokens are contiguous and non-overlapping, covering [0, len(text)).
type Token struct {
	Kind TokenKind

	// StartOffset is the byte index where this token begins (inclusive).
	StartOffset int

	// EndOffset is the byte index where this token ends (exclusive).
	EndOffset int
}

// Text returns the source text of this token.
func (t Token) Text(content string) string {
	if t.StartOffset < 0 || t.EndOffset > len(content) || t.StartOffset > t.EndOffset {
		return ""
	}
	return content[t.StartOffset:t.EndOffset]
}

// Len returns the length of this token in bytes.
func (t Token) Len() int {
	return t.EndOffset - t.StartOffset
}

// IsEmpty returns true if this token has zero length.
func (t Token) IsEmpty() bool {
	return t.StartOffset == t.EndOffset
}

// ValidateTokens checks that tokens are contiguous, non-empty, and cover
// [0, contentLen). It returns a description of the first violation, or nil.
func ValidateTokens(tokens []Token, contentLen int) error {
	if len(tokens) == 0 {
		if contentLen != 0 {
			return fmt.Errorf("no tokens for %d bytes of content", contentLen)
		}
		return nil
	}

	if tokens[0].StartOffset != 0 {
		return fmt.Errorf("first token starts at %d", tokens[0].StartOffset)
	}

	for i, tok := range tokens {
		if tok.IsEmpty() || tok.StartOffset > tok.EndOffset {
			return fmt.Errorf("token %d has empty range [%d,%d)", i, tok.StartOffset, tok.EndOffset)
		}
		if i > 0 && tok.StartOffset != tokens[i-1].EndOffset {
			return fmt.Errorf("token %d starts at %d, previous ends at %d", i, tok.StartOffset, tokens[i-1].EndOffset)
		}
	}

	if last := tokens[len(tokens)-1]; last.EndOffset != contentLen {
		return fmt.Errorf("last token ends at %d, content length is %d", last.EndOffset, contentLen)
	}

	return nil
}
