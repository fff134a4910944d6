package reporter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/tethls/pkg/analysis"
	"github.com/yaklabco/tethls/pkg/reporter"
	"github.com/yaklabco/tethls/pkg/runner"
	"github.com/yaklabco/tethls/pkg/source"
)

const workDir = "/ws"

// createTestResult builds a result with two diagnostics in a.teth, a clean
// b.teth, and an unreadable c.teth.
func createTestResult() *runner.Result {
	text := "let a = missing\nuse nowhere: thing\n"
	unit := source.NewUnit("/ws/src/a.teth", text)
	missing := strings.Index(text, "missing")
	use := strings.Index(text, "use")

	return &runner.Result{
		Files: []runner.FileOutcome{
			{
				Path: filepath.FromSlash("/ws/src/a.teth"),
				ID:   unit.ID(),
				Unit: unit,
				Diagnostics: []source.Problem{
					source.NewProblem(source.NewSpan(unit.ID(), missing, missing+7), "Unresolved identifier 'missing'"),
					source.NewProblem(source.NewSpan(unit.ID(), use, use+18), "Module 'nowhere' does not exist"),
				},
			},
			{
				Path: filepath.FromSlash("/ws/src/b.teth"),
				ID:   "/ws/src/b.teth",
				Unit: source.NewUnit("/ws/src/b.teth", "let b = 1\n"),
			},
			{
				Path:  filepath.FromSlash("/ws/src/c.teth"),
				ID:    "/ws/src/c.teth",
				Error: errors.New("file cannot be read"),
			},
		},
		Stats: runner.Stats{
			FilesDiscovered:       3,
			FilesProcessed:        2,
			FilesErrored:          1,
			FilesWithIssues:       1,
			DiagnosticsTotal:      2,
			DiagnosticsBySeverity: map[string]int{"error": 2},
			Cache:                 analysis.Stats{Hits: 1, Misses: 2, Computations: 2, Entries: 2},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    reporter.Format
		wantErr bool
	}{
		{name: "empty defaults to text", input: "", want: reporter.FormatText},
		{name: "text", input: "text", want: reporter.FormatText},
		{name: "table", input: "table", want: reporter.FormatTable},
		{name: "json", input: "json", want: reporter.FormatJSON},
		{name: "unknown format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reporter.ParseFormat(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, reporter.ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_IsValid(t *testing.T) {
	tests := []struct {
		format reporter.Format
		want   bool
	}{
		{reporter.FormatText, true},
		{reporter.FormatTable, true},
		{reporter.FormatJSON, true},
		{reporter.Format("sarif"), false},
		{reporter.Format(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format.IsValid())
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		format  reporter.Format
		wantErr bool
	}{
		{name: "text reporter", format: reporter.FormatText},
		{name: "table reporter", format: reporter.FormatTable},
		{name: "json reporter", format: reporter.FormatJSON},
		{name: "empty defaults to text", format: ""},
		{name: "unknown format", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			rep, err := reporter.New(reporter.Options{Writer: &buf, Format: tt.format, Color: "never"})
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, rep)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, rep)
		})
	}
}

func TestTextReporter_NilResult(t *testing.T) {
	var buf bytes.Buffer
	rep := reporter.NewTextReporter(reporter.Options{
		Writer:      &buf,
		Color:       "never",
		ShowSummary: true,
	})

	count, err := rep.Report(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Contains(t, buf.String(), "No files to check")
}

func TestTextReporter_Grouped(t *testing.T) {
	var buf bytes.Buffer
	rep := reporter.NewTextReporter(reporter.Options{
		Writer:      &buf,
		Color:       "never",
		ShowSummary: true,
		ShowContext: true,
		GroupByFile: true,
		WorkingDir:  filepath.FromSlash(workDir),
	})

	count, err := rep.Report(context.Background(), createTestResult())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	output := buf.String()
	rel := filepath.Join("src", "a.teth")
	assert.Contains(t, output, rel+" (2 issues)")
	assert.Contains(t, output, rel+":1:9  error  Unresolved identifier 'missing'")
	assert.Contains(t, output, rel+":2:1  error  Module 'nowhere' does not exist")
	assert.Contains(t, output, "        let a = missing\n                ^~~~~~~\n")
	assert.Contains(t, output, filepath.Join("src", "c.teth")+": error: file cannot be read")
	assert.NotContains(t, output, "b.teth")
	assert.Contains(t, output, "2 issues (2 errors) in 1 file, 1 file unreadable")
	assert.NotContains(t, output, "Analysis cache")
}

func TestTextReporter_FlatWithStats(t *testing.T) {
	var buf bytes.Buffer
	rep := reporter.NewTextReporter(reporter.Options{
		Writer:    &buf,
		Color:     "never",
		ShowStats: true,
	})

	count, err := rep.Report(context.Background(), createTestResult())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	output := buf.String()
	assert.NotContains(t, output, "(2 issues)", "flat output has no file headers")
	assert.NotContains(t, output, "^", "context is off")
	assert.Contains(t, output, filepath.FromSlash("/ws/src/a.teth")+":1:9")
	assert.Contains(t, output, "Analysis cache")
	assert.Contains(t, output, "Computations:")
}

func TestTableReporter(t *testing.T) {
	var buf bytes.Buffer
	rep := reporter.NewTableReporter(reporter.Options{
		Writer:      &buf,
		Color:       "never",
		ShowSummary: true,
		WorkingDir:  filepath.FromSlash(workDir),
	})

	count, err := rep.Report(context.Background(), createTestResult())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	output := buf.String()
	assert.Contains(t, output, "FILE")
	assert.Contains(t, output, "Unresolved identifier 'missing'")
	assert.Contains(t, output, "2:1")
	assert.Contains(t, output, "error: file cannot be read")
	assert.Contains(t, output, "Check failed")
}

func TestJSONReporter_NilResult(t *testing.T) {
	var buf bytes.Buffer
	rep := reporter.NewJSONReporter(reporter.Options{Writer: &buf})

	count, err := rep.Report(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Should still produce valid JSON
	var output reporter.JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
	assert.Equal(t, "1.0.0", output.Version)
	assert.Empty(t, output.Files)
	assert.Nil(t, output.Cache)
}

func TestJSONReporter_WithDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	rep := reporter.NewJSONReporter(reporter.Options{
		Writer:     &buf,
		ShowStats:  true,
		WorkingDir: filepath.FromSlash(workDir),
	})

	count, err := rep.Report(context.Background(), createTestResult())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var output reporter.JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))

	require.Len(t, output.Files, 3)
	first := output.Files[0]
	assert.Equal(t, filepath.Join("src", "a.teth"), first.Path)
	assert.Equal(t, "/ws/src/a.teth", first.Unit)
	require.Len(t, first.Diagnostics, 2)
	assert.Equal(t, reporter.JSONDiagnostic{
		Severity:    "error",
		Message:     "Unresolved identifier 'missing'",
		StartOffset: 8,
		EndOffset:   15,
		StartLine:   1,
		StartColumn: 9,
		EndLine:     1,
		EndColumn:   16,
	}, first.Diagnostics[0])

	assert.Empty(t, output.Files[1].Diagnostics)
	assert.Equal(t, "file cannot be read", output.Files[2].Error)

	assert.Equal(t, reporter.JSONSummary{
		FilesChecked:    3,
		FilesWithIssues: 1,
		FilesErrored:    1,
		TotalIssues:     2,
		BySeverity:      map[string]int{"error": 2},
	}, output.Summary)

	require.NotNil(t, output.Cache)
	assert.Equal(t, int64(2), output.Cache.Computations)
}

func TestJSONReporter_Compact(t *testing.T) {
	var buf bytes.Buffer
	rep := reporter.NewJSONReporter(reporter.Options{Writer: &buf, Compact: true})

	_, err := rep.Report(context.Background(), createTestResult())
	require.NoError(t, err)

	// Compact output should be a single line
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
}
