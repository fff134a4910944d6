package reporter

import (
	"bufio"
	"context"
	"fmt"

	"github.com/yaklabco/tethls/internal/ui/pretty"
	"github.com/yaklabco/tethls/pkg/runner"
)

// TextReporter formats results as styled terminal output.
type TextReporter struct {
	opts   Options
	styles *pretty.Styles
	bw     *bufio.Writer
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(opts Options) *TextReporter {
	colorEnabled := pretty.IsColorEnabled(opts.Color, opts.Writer)
	return &TextReporter{
		opts:   opts,
		styles: pretty.NewStyles(colorEnabled),
		bw:     bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *TextReporter) Report(ctx context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	if result == nil || len(result.Files) == 0 {
		if r.opts.ShowSummary {
			fmt.Fprintln(r.bw, r.styles.Success.Render("No files to check."))
		}
		return 0, nil
	}

	var total int
	if r.opts.GroupByFile {
		total = r.reportGrouped(ctx, result)
	} else {
		total = r.reportFlat(ctx, result)
	}

	if r.opts.ShowSummary {
		fmt.Fprint(r.bw, r.styles.FormatSummaryOneLine(result.Stats))
	}
	if r.opts.ShowStats {
		fmt.Fprint(r.bw, r.styles.FormatCacheStats(result.Stats.Cache))
	}

	return total, nil
}

// reportGrouped writes diagnostics grouped by file.
func (r *TextReporter) reportGrouped(_ context.Context, result *runner.Result) int {
	var total int

	for _, file := range result.Files {
		path := r.opts.displayPath(file.Path)

		if file.Error != nil {
			r.writeFileError(path, file.Error)
			continue
		}
		if len(file.Diagnostics) == 0 {
			continue
		}

		fmt.Fprintln(r.bw, r.styles.FormatFileHeader(path, len(file.Diagnostics)))
		for _, d := range file.Diagnostics {
			fmt.Fprint(r.bw, r.styles.FormatDiagnostic(path, file.Unit, d, r.opts.ShowContext))
			total++
		}

		// Blank line between files
		fmt.Fprintln(r.bw)
	}

	return total
}

// reportFlat writes diagnostics without grouping.
func (r *TextReporter) reportFlat(_ context.Context, result *runner.Result) int {
	var total int

	for _, file := range result.Files {
		path := r.opts.displayPath(file.Path)

		if file.Error != nil {
			r.writeFileError(path, file.Error)
			continue
		}
		for _, d := range file.Diagnostics {
			fmt.Fprint(r.bw, r.styles.FormatDiagnostic(path, file.Unit, d, r.opts.ShowContext))
			total++
		}
	}

	return total
}

func (r *TextReporter) writeFileError(path string, err error) {
	fmt.Fprintf(r.bw, "%s: %s\n",
		r.styles.FilePath.Render(path),
		r.styles.Error.Render(fmt.Sprintf("error: %v", err)),
	)
}
