package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/tethls/pkg/source"
)

// FormatDiagnostic formats a single problem for terminal output. unit
// converts the problem's offsets to line and column; the source line is
// shown below the message when showContext is set.
func (s *Styles) FormatDiagnostic(path string, unit *source.Unit, problem source.Problem, showContext bool) string {
	var builder strings.Builder

	pos := source.Position{}
	if unit != nil {
		pos = unit.Position(problem.Span.Start)
	}

	// Location: path:line:col
	location := s.FilePath.Render(path)
	if pos.IsValid() {
		location += s.Location.Render(fmt.Sprintf(":%d:%d", pos.Line, pos.Column))
	}

	builder.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		location,
		s.FormatSeverity(problem.Severity),
		s.Message.Render(problem.Message),
	))

	if showContext && pos.IsValid() {
		builder.WriteString(s.FormatSourceContext(unit.LineText(pos.Line), pos.Column, problem.Span.Len()))
	}

	return builder.String()
}

// FormatSeverity returns a styled severity string.
func (s *Styles) FormatSeverity(sev source.Severity) string {
	switch sev {
	case source.SeverityError:
		return s.Error.Render("error")
	case source.SeverityWarning:
		return s.Warning.Render("warning")
	default:
		return sev.String()
	}
}

// FormatSourceContext formats the source line with a marker under the
// problem. The marker is clipped to the end of the line.
func (s *Styles) FormatSourceContext(line string, column, length int) string {
	if line == "" && column <= 1 {
		return ""
	}

	var builder strings.Builder

	// Indent to align with diagnostic output
	const indent = "        "

	builder.WriteString(indent + s.SourceLine.Render(expandTabs(line)) + "\n")

	if column > 0 {
		width := min(max(length, 1), max(len(line)-(column-1), 1))
		padding := indent + strings.Repeat(" ", len(expandTabs(line[:min(column-1, len(line))])))
		builder.WriteString(padding + s.Caret.Render("^"+strings.Repeat("~", width-1)) + "\n")
	}

	return builder.String()
}

// FormatFileHeader formats a file header for grouped output.
func (s *Styles) FormatFileHeader(path string, issueCount int) string {
	header := s.FilePath.Render(path)
	switch {
	case issueCount == 1:
		header += s.Dim.Render(" (1 issue)")
	case issueCount > 1:
		header += s.Dim.Render(fmt.Sprintf(" (%d issues)", issueCount))
	}
	return header
}

// expandTabs replaces tabs with single spaces so that carets line up with
// the byte columns reported for the line.
func expandTabs(line string) string {
	return strings.ReplaceAll(line, "\t", " ")
}
