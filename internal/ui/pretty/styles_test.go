package pretty_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/tethls/internal/ui/pretty"
)

func TestNewStyles_ColorEnabled(t *testing.T) {
	styles := pretty.NewStyles(true)
	require.NotNil(t, styles)

	// Lipgloss may not render ANSI codes in non-TTY environments, so only
	// the construction is checked.
	assert.NotNil(t, styles.Error)
	assert.NotNil(t, styles.Warning)
	assert.NotNil(t, styles.NodeKind)
}

func TestNewStyles_ColorDisabled(t *testing.T) {
	styles := pretty.NewStyles(false)
	require.NotNil(t, styles)

	text := "test"
	assert.Equal(t, text, styles.NodeKind.Render(text), "No-color NodeKind should not add formatting")
	assert.Equal(t, text, styles.Error.Render(text), "No-color Error should not add formatting")
	assert.Equal(t, text, styles.Leaf.Render(text), "No-color Leaf should not add formatting")
}

func TestIsColorEnabled_AlwaysMode(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, pretty.IsColorEnabled(pretty.ColorAlways, &buf), "always mode should return true")
}

func TestIsColorEnabled_NeverMode(t *testing.T) {
	assert.False(t, pretty.IsColorEnabled(pretty.ColorNever, os.Stdout), "never mode should return false")
}

func TestIsColorEnabled_AutoMode_NonTTY(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, pretty.IsColorEnabled("auto", &buf), "auto mode with non-TTY should return false")
}

func TestIsColorEnabled_AutoMode_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	// Even with a TTY, NO_COLOR should disable colors
	assert.False(t, pretty.IsColorEnabled("auto", os.Stdout), "auto mode with NO_COLOR set should return false")
}

func TestIsColorEnabled_DefaultsToAuto(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	var buf bytes.Buffer
	assert.False(t, pretty.IsColorEnabled("", &buf), "empty mode with non-TTY should return false (auto behavior)")
	assert.False(t, pretty.IsColorEnabled("unknown", &buf), "unknown mode with non-TTY should return false (auto behavior)")
}

func TestStyles_AllFieldsInitialized(t *testing.T) {
	styles := pretty.NewStyles(true)

	for name, style := range map[string]interface{ Render(...string) string }{
		"Error":          styles.Error,
		"Warning":        styles.Warning,
		"FilePath":       styles.FilePath,
		"Location":       styles.Location,
		"Message":        styles.Message,
		"SourceLine":     styles.SourceLine,
		"Caret":          styles.Caret,
		"NodeKind":       styles.NodeKind,
		"TokenKind":      styles.TokenKind,
		"Span":           styles.Span,
		"Leaf":           styles.Leaf,
		"Trivia":         styles.Trivia,
		"SummaryTitle":   styles.SummaryTitle,
		"SummaryValue":   styles.SummaryValue,
		"Success":        styles.Success,
		"Failure":        styles.Failure,
		"TableHeader":    styles.TableHeader,
		"TableErrorRow":  styles.TableErrorRow,
		"TableWarnRow":   styles.TableWarnRow,
		"TableSeparator": styles.TableSeparator,
		"Dim":            styles.Dim,
	} {
		assert.NotEmpty(t, style.Render("x"), name)
	}
}

func TestNewStyles_ColorDisabledIgnoresEveryLook(t *testing.T) {
	styles := pretty.NewStyles(false)

	for name, style := range map[string]interface{ Render(...string) string }{
		"Trivia":      styles.Trivia,
		"TableHeader": styles.TableHeader,
		"Failure":     styles.Failure,
		"Dim":         styles.Dim,
	} {
		assert.Equal(t, "node", style.Render("node"), name)
	}
}
