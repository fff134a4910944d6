package cli

import (
	"errors"

	"github.com/yaklabco/tethls/internal/configloader"
	"github.com/yaklabco/tethls/pkg/runner"
)

// Exit codes for tethls.
const (
	// ExitSuccess indicates successful execution with no issues.
	ExitSuccess = 0

	// ExitCheckErrors indicates a check completed but found errors.
	ExitCheckErrors = 1

	// ExitCheckWarnings indicates a check found warnings in strict mode.
	ExitCheckWarnings = 2

	// ExitConfigError indicates configuration file errors.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70
)

// ExitCodeFromResult determines the exit code based on result and strict mode.
func ExitCodeFromResult(result *runner.Result, strict bool) int {
	if result == nil {
		return ExitSuccess
	}

	if result.HasFailures() {
		return ExitCheckErrors
	}

	if strict && result.Stats.DiagnosticsBySeverity["warning"] > 0 {
		return ExitCheckWarnings
	}

	return ExitSuccess
}

// ExitCodeFromError maps a command error to an exit code.
func ExitCodeFromError(err error) int {
	var validationErr *configloader.ValidationError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrIssuesFound):
		return ExitCheckErrors
	case errors.Is(err, ErrWarningsFound):
		return ExitCheckWarnings
	case errors.As(err, &validationErr):
		return ExitConfigError
	default:
		return ExitInternalError
	}
}
