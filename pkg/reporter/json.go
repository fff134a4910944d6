package reporter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/yaklabco/tethls/pkg/analysis"
	"github.com/yaklabco/tethls/pkg/runner"
	"github.com/yaklabco/tethls/pkg/source"
)

// JSONOutput is the top-level JSON structure.
type JSONOutput struct {
	Version string           `json:"version"`
	Files   []JSONFileResult `json:"files"`
	Summary JSONSummary      `json:"summary"`
	Cache   *analysis.Stats  `json:"cache,omitempty"`
}

// JSONFileResult represents a single file's results.
type JSONFileResult struct {
	Path        string           `json:"path"`
	Unit        string           `json:"unit"`
	Diagnostics []JSONDiagnostic `json:"diagnostics"`
	Error       string           `json:"error,omitempty"`
}

// JSONDiagnostic represents a single diagnostic. Lines and columns are
// 1-based; offsets are byte offsets into the file.
type JSONDiagnostic struct {
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
}

// JSONSummary contains aggregate statistics.
type JSONSummary struct {
	FilesChecked    int            `json:"filesChecked"`
	FilesWithIssues int            `json:"filesWithIssues"`
	FilesErrored    int            `json:"filesErrored"`
	TotalIssues     int            `json:"totalIssues"`
	BySeverity      map[string]int `json:"bySeverity"`
}

// JSONReporter formats results as JSON.
type JSONReporter struct {
	opts Options
	bw   *bufio.Writer
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(opts Options) *JSONReporter {
	return &JSONReporter{
		opts: opts,
		bw:   bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *JSONReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	output := r.buildOutput(result)

	encoder := json.NewEncoder(r.bw)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(output); err != nil {
		return 0, fmt.Errorf("encode JSON: %w", err)
	}

	return output.Summary.TotalIssues, nil
}

func (r *JSONReporter) buildOutput(result *runner.Result) *JSONOutput {
	output := &JSONOutput{
		Version: "1.0.0",
		Files:   make([]JSONFileResult, 0),
		Summary: JSONSummary{
			BySeverity: make(map[string]int),
		},
	}

	if result == nil {
		return output
	}

	if len(result.Files) > 0 {
		output.Files = make([]JSONFileResult, 0, len(result.Files))
	}
	if r.opts.ShowStats {
		stats := result.Stats.Cache
		output.Cache = &stats
	}

	for _, file := range result.Files {
		fileResult := JSONFileResult{
			Path:        r.opts.displayPath(file.Path),
			Unit:        file.ID.String(),
			Diagnostics: make([]JSONDiagnostic, 0, len(file.Diagnostics)),
		}

		if file.Error != nil {
			fileResult.Error = file.Error.Error()
			output.Summary.FilesErrored++
		}

		for _, d := range file.Diagnostics {
			fileResult.Diagnostics = append(fileResult.Diagnostics, newJSONDiagnostic(file.Unit, d))
			output.Summary.TotalIssues++
			output.Summary.BySeverity[d.Severity.String()]++
		}

		if len(fileResult.Diagnostics) > 0 {
			output.Summary.FilesWithIssues++
		}

		output.Files = append(output.Files, fileResult)
		output.Summary.FilesChecked++
	}

	return output
}

func newJSONDiagnostic(unit *source.Unit, p source.Problem) JSONDiagnostic {
	d := JSONDiagnostic{
		Severity:    p.Severity.String(),
		Message:     p.Message,
		StartOffset: p.Span.Start,
		EndOffset:   p.Span.End,
	}
	if unit != nil {
		start, end := unit.Position(p.Span.Start), unit.Position(p.Span.End)
		d.StartLine, d.StartColumn = start.Line, start.Column
		d.EndLine, d.EndColumn = end.Line, end.Column
	}
	return d
}
