package pretty

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yaklabco/tethls/pkg/runner"
	"github.com/yaklabco/tethls/pkg/source"
)

// Table formatting constants.
const (
	tablePadding     = 2
	tableColumnCount = 4 // FILE, LOC, SEVERITY, MESSAGE
	minFileWidth     = 20
	minLocWidth      = 8
	severityWidth    = 8
	minMessageWidth  = 30
	heavySeparator   = "="
	defaultTermWidth = 100
)

// TableRow represents a single row in the diagnostic table.
type TableRow struct {
	File     string
	Location string
	Message  string
	Severity source.Severity
}

// TableFormatter formats diagnostics as a styled table.
type TableFormatter struct {
	styles    *Styles
	termWidth int
}

// NewTableFormatter creates a new table formatter. A non-positive
// termWidth selects a default width.
func NewTableFormatter(styles *Styles, termWidth int) *TableFormatter {
	if termWidth <= 0 {
		termWidth = defaultTermWidth
	}
	return &TableFormatter{styles: styles, termWidth: termWidth}
}

// Rows collects one row per diagnostic in result, in file order.
// displayPath maps host paths to the text shown in the FILE column.
func Rows(result *runner.Result, displayPath func(string) string) []TableRow {
	if result == nil {
		return nil
	}
	if displayPath == nil {
		displayPath = func(p string) string { return p }
	}

	var rows []TableRow
	for _, file := range result.Files {
		for _, d := range file.Diagnostics {
			loc := ""
			if file.Unit != nil {
				if pos := file.Unit.Position(d.Span.Start); pos.IsValid() {
					loc = fmt.Sprintf("%d:%d", pos.Line, pos.Column)
				}
			}
			rows = append(rows, TableRow{
				File:     displayPath(file.Path),
				Location: loc,
				Message:  d.Message,
				Severity: d.Severity,
			})
		}
	}
	return rows
}

// FormatTable formats rows as a table that fits the terminal width.
// Messages that do not fit are truncated.
func (t *TableFormatter) FormatTable(rows []TableRow) string {
	if len(rows) == 0 {
		return ""
	}

	fileWidth, locWidth, messageWidth := minFileWidth, minLocWidth, minMessageWidth
	for _, row := range rows {
		fileWidth = max(fileWidth, lipgloss.Width(row.File))
		locWidth = max(locWidth, len(row.Location))
		messageWidth = max(messageWidth, lipgloss.Width(row.Message))
	}

	total := fileWidth + locWidth + severityWidth + messageWidth + tablePadding*tableColumnCount
	if total > t.termWidth {
		messageWidth = max(minMessageWidth, messageWidth-(total-t.termWidth))
	}

	var builder strings.Builder
	header := fmt.Sprintf(" %-*s  %-*s  %-*s  %s",
		fileWidth, "FILE",
		locWidth, "LOC",
		severityWidth, "SEVERITY",
		"MESSAGE",
	)
	separator := strings.Repeat(heavySeparator, fileWidth+locWidth+severityWidth+messageWidth+tablePadding*tableColumnCount)

	builder.WriteString(t.styles.TableHeader.Render(header) + "\n")
	builder.WriteString(t.styles.TableSeparator.Render(separator) + "\n")

	for _, row := range rows {
		line := fmt.Sprintf(" %-*s  %-*s  %-*s  %s",
			fileWidth, row.File,
			locWidth, row.Location,
			severityWidth, row.Severity.String(),
			truncate(row.Message, messageWidth),
		)
		switch row.Severity {
		case source.SeverityError:
			line = t.styles.TableErrorRow.Render(line)
		case source.SeverityWarning:
			line = t.styles.TableWarnRow.Render(line)
		}
		builder.WriteString(line + "\n")
	}

	builder.WriteString(t.styles.TableSeparator.Render(separator) + "\n")
	return builder.String()
}

// truncate shortens s to at most width runes, marking the cut with an
// ellipsis.
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
