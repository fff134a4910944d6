// Package pretty renders tethls diagnostics, summaries, tables and syntax
// trees for the terminal.
package pretty

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styles is the lipgloss style of every element the renderers draw.
type Styles struct {
	Error   lipgloss.Style
	Warning lipgloss.Style

	// Diagnostic lines and their source excerpt.
	FilePath   lipgloss.Style
	Location   lipgloss.Style
	Message    lipgloss.Style
	SourceLine lipgloss.Style
	Caret      lipgloss.Style

	// CST outlines and token listings.
	NodeKind  lipgloss.Style
	TokenKind lipgloss.Style
	Span      lipgloss.Style
	Leaf      lipgloss.Style
	Trivia    lipgloss.Style

	SummaryTitle lipgloss.Style
	SummaryValue lipgloss.Style
	Success      lipgloss.Style
	Failure      lipgloss.Style

	TableHeader    lipgloss.Style
	TableErrorRow  lipgloss.Style
	TableWarnRow   lipgloss.Style
	TableSeparator lipgloss.Style

	Dim lipgloss.Style
}

// ANSI 256 palette.
const (
	silver lipgloss.Color = "7"
	gray   lipgloss.Color = "8"
	red    lipgloss.Color = "9"
	green  lipgloss.Color = "10"
	yellow lipgloss.Color = "11"
	blue   lipgloss.Color = "12"
	cyan   lipgloss.Color = "14"
)

// look describes a style independently of whether color is on.
type look struct {
	fg     lipgloss.Color
	bold   bool
	italic bool
}

func (l look) style(color bool) lipgloss.Style {
	s := lipgloss.NewStyle()
	if !color {
		return s
	}
	if l.fg != "" {
		s = s.Foreground(l.fg)
	}
	return s.Bold(l.bold).Italic(l.italic)
}

// NewStyles returns the style set. With color disabled every style renders
// its input unchanged.
func NewStyles(colorEnabled bool) *Styles {
	st := func(l look) lipgloss.Style { return l.style(colorEnabled) }

	return &Styles{
		Error:   st(look{fg: red, bold: true}),
		Warning: st(look{fg: yellow, bold: true}),

		FilePath:   st(look{bold: true}),
		Location:   st(look{fg: gray}),
		Message:    st(look{}),
		SourceLine: st(look{fg: silver}),
		Caret:      st(look{fg: red}),

		NodeKind:  st(look{fg: cyan, bold: true}),
		TokenKind: st(look{fg: blue}),
		Span:      st(look{fg: gray}),
		Leaf:      st(look{fg: green}),
		Trivia:    st(look{fg: gray, italic: true}),

		SummaryTitle: st(look{bold: true}),
		SummaryValue: st(look{}),
		Success:      st(look{fg: green, bold: true}),
		Failure:      st(look{fg: red, bold: true}),

		TableHeader:    st(look{fg: silver, bold: true}),
		TableErrorRow:  st(look{fg: red}),
		TableWarnRow:   st(look{fg: yellow}),
		TableSeparator: st(look{fg: gray}),

		Dim: st(look{fg: gray}),
	}
}

// Color modes accepted by IsColorEnabled. Anything else means ColorAuto.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// IsColorEnabled reports whether output to w should be colored under mode.
// In auto mode w must be a terminal and NO_COLOR (https://no-color.org/)
// must be unset.
func IsColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
