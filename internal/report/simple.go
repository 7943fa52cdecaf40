package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gifcrawl/gifcrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables per-page failure details in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with failure details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeResources(&sb, report)
	w.writeFailures(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         GIFCRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Start URL:      %s\n", report.StartURL))
	sb.WriteString(fmt.Sprintf("Origin:         %s\n", report.Origin))
	sb.WriteString(fmt.Sprintf("Crawl Date:     %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Depth:          %d\n", report.Depth))
	sb.WriteString(fmt.Sprintf("Pages Fetched:  %d (budget %d)\n", report.PagesFetched, report.MaxPages))
	sb.WriteString(fmt.Sprintf("Duration:       %s\n", report.Duration.Round(time.Millisecond)))

	if report.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Status:         INTERRUPTED - %s\n", report.ErrorMessage))
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeResources writes the discovered resource URLs.
func (w *SimpleWriter) writeResources(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Resources) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("RESOURCES (%d)\n", report.ResourceCount()))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Resources) == 0 {
		sb.WriteString("  No resources found\n")
	} else {
		for _, resource := range report.Resources {
			sb.WriteString(fmt.Sprintf("  [+] %s\n", resource))
		}
	}
	sb.WriteString("\n")

	if report.Downloaded > 0 {
		sb.WriteString(fmt.Sprintf("  Downloaded:   %d\n\n", report.Downloaded))
	}
}

// writeFailures writes pages that could not be fetched or parsed.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Failed) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("FAILED PAGES (%d)\n", report.FailureCount()))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Failed) == 0 {
		sb.WriteString("  No failures\n")
	} else {
		for _, failure := range report.Failed {
			sb.WriteString(fmt.Sprintf("  [-] %s\n", failure.URL))
			if w.verbose && failure.Message != "" {
				sb.WriteString(fmt.Sprintf("      Reason: %s\n", failure.Message))
			}
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by gifcrawl\n")
	sb.WriteString("https://github.com/gifcrawl/gifcrawl\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
