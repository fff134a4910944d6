package pretty_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/tethls/internal/ui/pretty"
	"github.com/yaklabco/tethls/pkg/source"
)

func TestFormatDiagnostic_Basic(t *testing.T) {
	styles := pretty.NewStyles(false) // No colors for easier testing

	text := "let a = 1\nlet b = missing\n"
	unit := source.NewUnit("/ws/a.teth", text)
	start := strings.Index(text, "missing")
	problem := source.NewProblem(source.NewSpan(unit.ID(), start, start+len("missing")), "Unresolved identifier 'missing'")

	result := styles.FormatDiagnostic("a.teth", unit, problem, false)

	assert.Contains(t, result, "a.teth:2:9")
	assert.Contains(t, result, "error")
	assert.Contains(t, result, "Unresolved identifier 'missing'")
	assert.NotContains(t, result, "^")
}

func TestFormatDiagnostic_WithContext(t *testing.T) {
	styles := pretty.NewStyles(false)

	text := "let b = missing\n"
	unit := source.NewUnit("/ws/a.teth", text)
	problem := source.NewProblem(source.NewSpan(unit.ID(), 8, 15), "Unresolved identifier 'missing'")

	result := styles.FormatDiagnostic("a.teth", unit, problem, true)
	lines := strings.Split(strings.TrimRight(result, "\n"), "\n")

	assert.Len(t, lines, 3)
	assert.Equal(t, "        let b = missing", lines[1])
	assert.Equal(t, "                ^~~~~~~", lines[2])
}

func TestFormatDiagnostic_WithoutUnit(t *testing.T) {
	styles := pretty.NewStyles(false)

	problem := source.NewProblem(source.NewSpan("/ws/a.teth", 0, 1), "Invalid character")
	result := styles.FormatDiagnostic("a.teth", nil, problem, true)

	assert.Equal(t, "  a.teth  error  Invalid character\n", result)
}

func TestFormatSeverity(t *testing.T) {
	styles := pretty.NewStyles(false)

	tests := []struct {
		severity source.Severity
		expected string
	}{
		{source.SeverityError, "error"},
		{source.SeverityWarning, "warning"},
		{source.Severity(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, styles.FormatSeverity(tt.severity))
		})
	}
}

func TestFormatSourceContext(t *testing.T) {
	styles := pretty.NewStyles(false)

	tests := []struct {
		name     string
		line     string
		column   int
		length   int
		expected string
	}{
		{
			name:     "single character",
			line:     "let a = )",
			column:   9,
			length:   1,
			expected: "        let a = )\n                ^\n",
		},
		{
			name:     "clipped to the line",
			line:     "let s = \"open",
			column:   9,
			length:   40,
			expected: "        let s = \"open\n                ^~~~~\n",
		},
		{
			name:     "tabs are expanded",
			line:     "\tx",
			column:   2,
			length:   1,
			expected: "         x\n         ^\n",
		},
		{
			name:     "empty first column",
			line:     "",
			column:   1,
			length:   0,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, styles.FormatSourceContext(tt.line, tt.column, tt.length))
		})
	}
}

func TestFormatFileHeader(t *testing.T) {
	styles := pretty.NewStyles(false)

	assert.Equal(t, "a.teth", styles.FormatFileHeader("a.teth", 0))
	assert.Equal(t, "a.teth (1 issue)", styles.FormatFileHeader("a.teth", 1))
	assert.Equal(t, "a.teth (3 issues)", styles.FormatFileHeader("a.teth", 3))
}
