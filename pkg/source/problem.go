package source

import "sort"

// Severity is the importance of a problem.
type Severity int

const (
	// SeverityError marks problems that make the unit invalid.
	SeverityError Severity = iota

	// SeverityWarning marks advisory problems.
	SeverityWarning
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Problem is a diagnostic attached to a span.
// Problems are data, never errors: they describe the user's source text.
type Problem struct {
	Span     Span
	Message  string
	Severity Severity
}

// NewProblem returns an error-severity problem.
func NewProblem(span Span, message string) Problem {
	return Problem{Span: span, Message: message, Severity: SeverityError}
}

// SortProblems orders problems by unit, then start offset, then message.
func SortProblems(problems []Problem) {
	sort.SliceStable(problems, func(i, j int) bool {
		a, b := problems[i], problems[j]
		if a.Span.Unit != b.Span.Unit {
			return a.Span.Unit < b.Span.Unit
		}
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		return a.Message < b.Message
	})
}

// HasErrors reports whether any problem has error severity.
func HasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}
