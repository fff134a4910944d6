// Package lexer implements the lossless teth tokenizer.
//
// Every byte of the input belongs to exactly one token, including
// whitespace, line breaks, and comments. Malformed input never stops the
// lexer; it produces Invalid tokens or truncated literals plus problems.
package lexer

// Kind classifies a lexical token.
type Kind uint8

// Token kinds.
const (
	Invalid Kind = iota
	EOF

	Identifier
	Long
	Double
	String
	Boolean

	Comma
	Dot
	Colon
	Semicolon

	Equal
	Not
	EqualEqual
	NotEqual
	Less
	LessEqual
	LessPipe
	Greater
	GreaterEqual
	Plus
	Minus
	Star
	Slash
	Pow
	AndAnd
	OrOr

	LParen
	RParen
	LCurly
	RCurly
	LBracket
	RBracket

	Whitespace
	LineBreak
	Comment

	keywordStart
	If
	Else
	Fn
	Return
	Let
	Loop
	Break
	Continue
	New
	Struct
	Use
	Null
	Intrinsic
	keywordEnd
)

var kindNames = map[Kind]string{
	Invalid:      "Invalid",
	EOF:          "EOF",
	Identifier:   "Identifier",
	Long:         "Long",
	Double:       "Double",
	String:       "String",
	Boolean:      "Boolean",
	Comma:        ",",
	Dot:          ".",
	Colon:        ":",
	Semicolon:    ";",
	Equal:        "=",
	Not:          "!",
	EqualEqual:   "==",
	NotEqual:     "!=",
	Less:         "<",
	LessEqual:    "<=",
	LessPipe:     "<|",
	Greater:      ">",
	GreaterEqual: ">=",
	Plus:         "+",
	Minus:        "-",
	Star:         "*",
	Slash:        "/",
	Pow:          "^",
	AndAnd:       "&&",
	OrOr:         "||",
	LParen:       "(",
	RParen:       ")",
	LCurly:       "{",
	RCurly:       "}",
	LBracket:     "[",
	RBracket:     "]",
	Whitespace:   "Whitespace",
	LineBreak:    "Line break",
	Comment:      "Comment",
	If:           "if",
	Else:         "else",
	Fn:           "fn",
	Return:       "return",
	Let:          "let",
	Loop:         "loop",
	Break:        "break",
	Continue:     "continue",
	New:          "new",
	Struct:       "struct",
	Use:          "use",
	Null:         "null",
	Intrinsic:    "intrinsic",
}

// String returns the display text of the kind, as used in parser messages.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k > keywordStart && k < keywordEnd
}

// IsTrivia reports whether k carries no syntactic meaning for the parser.
// Line breaks are not trivia: they terminate statements.
func (k Kind) IsTrivia() bool {
	return k == Whitespace || k == Comment
}

var keywords = map[string]Kind{
	"if":        If,
	"else":      Else,
	"fn":        Fn,
	"return":    Return,
	"let":       Let,
	"loop":      Loop,
	"break":     Break,
	"continue":  Continue,
	"new":       New,
	"struct":    Struct,
	"use":       Use,
	"null":      Null,
	"intrinsic": Intrinsic,
}

// LookupKeyword returns the keyword kind for word, if it is reserved.
func LookupKeyword(word string) (Kind, bool) {
	kind, ok := keywords[word]
	return kind, ok
}

// Token is a classified byte range [Start, End) of the input.
type Token struct {
	Kind  Kind
	Start int
	End   int
}

// Text returns the token's text within input.
func (t Token) Text(input string) string {
	if t.Start < 0 || t.End > len(input) || t.Start > t.End {
		return ""
	}
	return input[t.Start:t.End]
}

// Len returns the length of the token in bytes.
func (t Token) Len() int {
	return t.End - t.Start
}
