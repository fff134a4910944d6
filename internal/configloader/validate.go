package configloader

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/yaklabco/tethls/pkg/config"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Field is the path to the invalid field (e.g., "cache.max_entries").
	Field string

	// Value is the invalid value.
	Value any

	// Message describes the validation error.
	Message string

	// FilePath is the config file containing the error (if known).
	FilePath string

	// Line is the line number in the config file (if known).
	Line int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if e.FilePath != "" {
		if e.Line > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", e.FilePath, e.Line))
		} else {
			parts = append(parts, e.FilePath)
		}
	}

	if e.Field != "" {
		parts = append(parts, e.Field)
	}

	parts = append(parts, e.Message)

	return strings.Join(parts, ": ")
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	// Errors are validation failures that prevent loading.
	Errors []ValidationError

	// Warnings are non-fatal issues.
	Warnings []ValidationError
}

// Valid returns true if there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// HasWarnings returns true if there are any warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// AllMessages returns all error and warning messages combined.
func (r *ValidationResult) AllMessages() []string {
	messages := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		messages = append(messages, "error: "+e.Error())
	}
	for _, w := range r.Warnings {
		messages = append(messages, "warning: "+w.Error())
	}
	return messages
}

// knownLogLevels lists valid log levels.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// knownColorModes lists valid --color values.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownColorModes = map[string]bool{
	"auto":   true,
	"always": true,
	"never":  true,
}

// minDebounce is the shortest useful watch debounce.
const minDebounce = 10 * time.Millisecond

// Validate checks a configuration for errors and warnings.
func Validate(cfg *config.Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	fail := func(field string, value any, format string, args ...any) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if cfg.LogLevel != "" && !knownLogLevels[strings.ToLower(cfg.LogLevel)] {
		fail("log_level", cfg.LogLevel, "invalid log level %q; must be one of: debug, info, warn, error", cfg.LogLevel)
	}

	if cfg.Format != "" && !cfg.Format.IsValid() {
		fail("format", cfg.Format, "invalid format %q; must be one of: text, table, json", cfg.Format)
	}

	if cfg.Extension != "" && !strings.HasPrefix(cfg.Extension, ".") {
		fail("extension", cfg.Extension, "extension %q must start with a dot", cfg.Extension)
	}

	if cfg.Color != "" && !knownColorModes[cfg.Color] {
		fail("color", cfg.Color, "invalid color mode %q; must be one of: auto, always, never", cfg.Color)
	}

	if cfg.Jobs < 0 {
		fail("jobs", cfg.Jobs, "jobs must be >= 0 (0 means auto)")
	}

	if cfg.Cache.MaxEntries < 0 {
		fail("cache.max_entries", cfg.Cache.MaxEntries, "max_entries must be >= 0 (0 means unbounded)")
	}

	switch {
	case cfg.Watch.Debounce < 0:
		fail("watch.debounce", cfg.Watch.Debounce, "debounce must not be negative")
	case cfg.Watch.Debounce > 0 && cfg.Watch.Debounce < minDebounce:
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "watch.debounce",
			Value:   cfg.Watch.Debounce,
			Message: fmt.Sprintf("debounce %s is very short; changes may be checked repeatedly", cfg.Watch.Debounce),
		})
	}

	for i, pattern := range cfg.Ignore {
		// filepath.Match returns an error only for malformed patterns
		if _, err := filepath.Match(pattern, ""); err != nil {
			fail(fmt.Sprintf("ignore[%d]", i), pattern, "invalid glob pattern: %v", err)
		}
	}

	return result
}

// ValidateWithFile validates configuration and includes file path in errors.
func ValidateWithFile(cfg *config.Config, filePath string) *ValidationResult {
	result := Validate(cfg)

	for i := range result.Errors {
		result.Errors[i].FilePath = filePath
	}
	for i := range result.Warnings {
		result.Warnings[i].FilePath = filePath
	}

	return result
}
