// Package reporter writes check results as text, tables, or JSON.
package reporter

import (
	"context"
	"errors"
	"fmt"

	"github.com/yaklabco/tethls/pkg/config"
	"github.com/yaklabco/tethls/pkg/runner"
)

// Reporter formats and writes check results.
type Reporter interface {
	// Report writes the result and returns the number of diagnostics it
	// reported.
	Report(ctx context.Context, result *runner.Result) (int, error)
}

// Format is an output format. It is the configuration's type, so a loaded
// config selects its reporter without conversion.
type Format = config.OutputFormat

// Output formats.
const (
	FormatText  = config.FormatText
	FormatTable = config.FormatTable
	FormatJSON  = config.FormatJSON
)

// ErrUnknownFormat is returned for a format no reporter implements.
var ErrUnknownFormat = errors.New("unknown format")

//nolint:gochecknoglobals // Read-only format registry.
var constructors = map[Format]func(Options) Reporter{
	FormatText:  func(opts Options) Reporter { return NewTextReporter(opts) },
	FormatTable: func(opts Options) Reporter { return NewTableReporter(opts) },
	FormatJSON:  func(opts Options) Reporter { return NewJSONReporter(opts) },
}

// ParseFormat parses a format name. The empty name means FormatText.
func ParseFormat(name string) (Format, error) {
	format := Format(name)
	if format == "" {
		return FormatText, nil
	}
	if _, ok := constructors[format]; !ok {
		return "", fmt.Errorf("%w %q; valid formats: text, table, json", ErrUnknownFormat, name)
	}
	return format, nil
}

// New creates the reporter of opts.Format.
func New(opts Options) (Reporter, error) {
	if opts.Writer == nil {
		opts.Writer = DefaultOptions().Writer
	}
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	return constructors[format](opts), nil
}
