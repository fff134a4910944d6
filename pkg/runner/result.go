package runner

import (
	"github.com/yaklabco/tethls/pkg/analysis"
	"github.com/yaklabco/tethls/pkg/source"
)

// FileOutcome is the result of checking one file.
type FileOutcome struct {
	// Path is the host path of the file.
	Path string

	// ID is the unit identity the file was analyzed under.
	ID source.ID

	// Unit is the analyzed source. It is nil if the file could not be read.
	Unit *source.Unit

	// Diagnostics are the parse and analysis problems of the file.
	Diagnostics []source.Problem

	// Error is set if the file could not be processed.
	Error error
}

// Stats captures aggregate information about a run.
type Stats struct {
	FilesDiscovered  int
	FilesProcessed   int
	FilesErrored     int
	FilesWithIssues  int
	DiagnosticsTotal int

	// DiagnosticsBySeverity maps severity names to counts.
	DiagnosticsBySeverity map[string]int

	// Cache is a snapshot of the analysis cache counters after the run.
	Cache analysis.Stats
}

// Result is the overall runner result.
type Result struct {
	// Files holds one outcome per discovered file, ordered by path.
	Files []FileOutcome

	// Stats contains aggregate statistics for the run.
	Stats Stats
}

// HasFailures reports whether any error diagnostic was found or any file
// could not be processed.
func (r *Result) HasFailures() bool {
	if r == nil {
		return false
	}
	return r.Stats.DiagnosticsBySeverity[source.SeverityError.String()] > 0 || r.Stats.FilesErrored > 0
}

// HasIssues reports whether any diagnostics were found.
func (r *Result) HasIssues() bool {
	if r == nil {
		return false
	}
	return r.Stats.DiagnosticsTotal > 0
}

func newStats() Stats {
	return Stats{DiagnosticsBySeverity: make(map[string]int)}
}

func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	if outcome.Error != nil {
		r.Stats.FilesErrored++
		return
	}

	r.Stats.FilesProcessed++
	r.Stats.DiagnosticsTotal += len(outcome.Diagnostics)
	if len(outcome.Diagnostics) > 0 {
		r.Stats.FilesWithIssues++
	}
	for _, d := range outcome.Diagnostics {
		r.Stats.DiagnosticsBySeverity[d.Severity.String()]++
	}
}
