package pretty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yaklabco/tethls/pkg/analysis"
	"github.com/yaklabco/tethls/pkg/runner"
)

const (
	summaryDividerWidth = 40
	wordFile            = "file"
	wordFiles           = "files"
)

// FormatSummaryOneLine formats run statistics as a single line.
// Example: "5 issues (4 errors, 1 warning) in 3 files".
func (s *Styles) FormatSummaryOneLine(stats runner.Stats) string {
	if stats.DiagnosticsTotal == 0 && stats.FilesErrored == 0 {
		return s.Success.Render("No issues found") +
			s.Dim.Render(fmt.Sprintf(" (%d %s checked)", stats.FilesProcessed, plural(stats.FilesProcessed, wordFile, wordFiles))) + "\n"
	}

	var parts []string

	var severityParts []string
	if errors := stats.DiagnosticsBySeverity["error"]; errors > 0 {
		severityParts = append(severityParts, s.Error.Render(fmt.Sprintf("%d %s", errors, plural(errors, "error", "errors"))))
	}
	if warnings := stats.DiagnosticsBySeverity["warning"]; warnings > 0 {
		severityParts = append(severityParts, s.Warning.Render(fmt.Sprintf("%d %s", warnings, plural(warnings, "warning", "warnings"))))
	}

	issues := fmt.Sprintf("%d %s", stats.DiagnosticsTotal, plural(stats.DiagnosticsTotal, "issue", "issues"))
	if len(severityParts) > 0 {
		issues += " (" + strings.Join(severityParts, ", ") + ")"
	}
	parts = append(parts, issues)
	parts = append(parts, fmt.Sprintf("in %d %s", stats.FilesWithIssues, plural(stats.FilesWithIssues, wordFile, wordFiles)))

	line := strings.Join(parts, " ")
	if stats.FilesErrored > 0 {
		line += ", " + s.Failure.Render(fmt.Sprintf("%d %s unreadable", stats.FilesErrored, plural(stats.FilesErrored, wordFile, wordFiles)))
	}
	return line + "\n"
}

// FormatSummary formats run statistics as a summary block.
func (s *Styles) FormatSummary(stats runner.Stats) string {
	var builder strings.Builder

	builder.WriteString("\n")
	builder.WriteString(s.SummaryTitle.Render("Summary"))
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("-", summaryDividerWidth))
	builder.WriteString("\n")

	builder.WriteString("  Files checked:     " +
		s.SummaryValue.Render(strconv.Itoa(stats.FilesProcessed)) + "\n")

	if stats.FilesWithIssues > 0 {
		builder.WriteString("  Files with issues: " +
			s.Failure.Render(strconv.Itoa(stats.FilesWithIssues)) + "\n")
	}

	if stats.FilesErrored > 0 {
		builder.WriteString("  Files unreadable:  " +
			s.Failure.Render(strconv.Itoa(stats.FilesErrored)) + "\n")
	}

	builder.WriteString("\n")

	builder.WriteString("  Total issues:      " +
		s.SummaryValue.Render(strconv.Itoa(stats.DiagnosticsTotal)) + "\n")

	if errors := stats.DiagnosticsBySeverity["error"]; errors > 0 {
		builder.WriteString("    Errors:          " +
			s.Error.Render(strconv.Itoa(errors)) + "\n")
	}
	if warnings := stats.DiagnosticsBySeverity["warning"]; warnings > 0 {
		builder.WriteString("    Warnings:        " +
			s.Warning.Render(strconv.Itoa(warnings)) + "\n")
	}

	builder.WriteString("\n")

	switch {
	case stats.DiagnosticsBySeverity["error"] > 0 || stats.FilesErrored > 0:
		builder.WriteString(s.Failure.Render("Check failed"))
	case stats.DiagnosticsBySeverity["warning"] > 0:
		builder.WriteString(s.Warning.Render("Check completed with warnings"))
	default:
		builder.WriteString(s.Success.Render("Check passed"))
	}
	builder.WriteString("\n")

	return builder.String()
}

// FormatCacheStats formats analysis cache counters as a block.
func (s *Styles) FormatCacheStats(stats analysis.Stats) string {
	rows := []struct {
		label string
		value string
	}{
		{"Hits", strconv.FormatInt(stats.Hits, 10)},
		{"Misses", strconv.FormatInt(stats.Misses, 10)},
		{"Computations", strconv.FormatInt(stats.Computations, 10)},
		{"Failures", strconv.FormatInt(stats.Failures, 10)},
		{"Invalidations", strconv.FormatInt(stats.Invalidations, 10)},
		{"Evictions", strconv.FormatInt(stats.Evictions, 10)},
		{"Reaped", strconv.FormatInt(stats.Reaped, 10)},
		{"Entries", strconv.Itoa(stats.Entries)},
		{"Generation", strconv.FormatUint(stats.Generation, 10)},
	}

	var builder strings.Builder
	builder.WriteString("\n")
	builder.WriteString(s.SummaryTitle.Render("Analysis cache"))
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("-", summaryDividerWidth))
	builder.WriteString("\n")
	for _, row := range rows {
		builder.WriteString(fmt.Sprintf("  %-18s %s\n", row.label+":", s.SummaryValue.Render(row.value)))
	}
	return builder.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
