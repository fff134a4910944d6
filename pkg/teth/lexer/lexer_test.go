package lexer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/tethls/pkg/teth/lexer"
)

func kinds(tokens []lexer.Token) []lexer.Kind {
	out := make([]lexer.Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenizeKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []lexer.Kind
	}{
		{
			name:  "variable declaration",
			input: "let x = 1",
			want: []lexer.Kind{
				lexer.Let, lexer.Whitespace, lexer.Identifier, lexer.Whitespace,
				lexer.Equal, lexer.Whitespace, lexer.Long,
			},
		},
		{
			name:  "double and boolean",
			input: "1.5 true",
			want:  []lexer.Kind{lexer.Double, lexer.Whitespace, lexer.Boolean},
		},
		{
			name:  "member access on long",
			input: "1.a",
			want:  []lexer.Kind{lexer.Long, lexer.Dot, lexer.Identifier},
		},
		{
			name:  "two character operators",
			input: "== != <= >= <| && ||",
			want: []lexer.Kind{
				lexer.EqualEqual, lexer.Whitespace, lexer.NotEqual, lexer.Whitespace,
				lexer.LessEqual, lexer.Whitespace, lexer.GreaterEqual, lexer.Whitespace,
				lexer.LessPipe, lexer.Whitespace, lexer.AndAnd, lexer.Whitespace, lexer.OrOr,
			},
		},
		{
			name:  "comments and line breaks",
			input: "a // note\r\n/* block */b",
			want: []lexer.Kind{
				lexer.Identifier, lexer.Whitespace, lexer.Comment, lexer.LineBreak,
				lexer.Comment, lexer.Identifier,
			},
		},
		{
			name:  "use statement short form",
			input: "use b: value;",
			want: []lexer.Kind{
				lexer.Use, lexer.Whitespace, lexer.Identifier, lexer.Colon, lexer.Whitespace,
				lexer.Identifier, lexer.Semicolon,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := lexer.Tokenize("/t.teth", tt.input)
			assert.Empty(t, result.Problems)
			assert.Equal(t, tt.want, kinds(result.Source()))
			assert.Equal(t, lexer.EOF, result.Tokens[len(result.Tokens)-1].Kind)
		})
	}
}

func TestTokenizeIsLossless(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"fn main() {\n\tprint(\"hi\")\n}\n",
		"let s = \"unterminated\nlet y = 2",
		"§ @ # ü",
		"/* never closed",
		"a & b | c",
		"99999999999999999999999",
	}

	for _, input := range inputs {
		result := lexer.Tokenize("/t.teth", input)

		var builder strings.Builder
		pos := 0
		for _, tok := range result.Source() {
			require.Equal(t, pos, tok.Start, "tokens must be contiguous in %q", input)
			builder.WriteString(tok.Text(input))
			pos = tok.End
		}
		assert.Equal(t, input, builder.String())
	}
}

func TestTokenizeUnclosedString(t *testing.T) {
	t.Parallel()

	input := "let s = \"abc\nlet y = 2"
	result := lexer.Tokenize("/t.teth", input)

	require.Len(t, result.Problems, 1)
	problem := result.Problems[0]
	assert.Equal(t, "Unclosed string literal", problem.Message)

	start := strings.Index(input, "\"")
	assert.Equal(t, start, problem.Span.Start)
	assert.Equal(t, strings.Index(input, "\n"), problem.Span.End)

	var str lexer.Token
	for _, tok := range result.Tokens {
		if tok.Kind == lexer.String {
			str = tok
		}
	}
	assert.Equal(t, problem.Span.Start, str.Start)
	assert.Equal(t, problem.Span.End, str.End)
}

func TestTokenizeProblems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		message string
	}{
		{name: "invalid character", input: "a @ b", message: "Invalid character '@'"},
		{name: "single ampersand", input: "a & b", message: "Invalid character '&', did you mean '&&'?"},
		{name: "unclosed comment", input: "/* x", message: "Unclosed comment"},
		{name: "number overflow", input: "99999999999999999999999", message: "Number is too big"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := lexer.Tokenize("/t.teth", tt.input)
			require.Len(t, result.Problems, 1)
			assert.Equal(t, tt.message, result.Problems[0].Message)
		})
	}
}

func TestKeywordLookup(t *testing.T) {
	t.Parallel()

	kind, ok := lexer.LookupKeyword("struct")
	require.True(t, ok)
	assert.Equal(t, lexer.Struct, kind)
	assert.True(t, kind.IsKeyword())
	assert.Equal(t, "struct", kind.String())

	_, ok = lexer.LookupKeyword("value")
	assert.False(t, ok)
	assert.False(t, lexer.Identifier.IsKeyword())
}
