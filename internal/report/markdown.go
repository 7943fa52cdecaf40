package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/gifcrawl/gifcrawl/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeResources(md, report)
	w.writeFailures(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Gifcrawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + report.StartURL + "`"},
			{"Origin", "`" + report.Origin + "`"},
			{"Crawl Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Depth", strconv.Itoa(report.Depth)},
			{"Pages Fetched", strconv.Itoa(report.PagesFetched)},
			{"Resources Found", strconv.Itoa(report.ResourceCount())},
			{"Downloaded", strconv.Itoa(report.Downloaded)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	if report.ErrorMessage != "" {
		return "⚠️ Interrupted - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeResources writes the discovered resource URLs as a bullet list.
func (w *MarkdownWriter) writeResources(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Resources")
	md.PlainText("")

	if len(report.Resources) == 0 {
		md.PlainText("No resources found.")
		md.PlainText("")
		return
	}

	items := make([]string, 0, len(report.Resources))
	for _, resource := range report.Resources {
		items = append(items, "`"+resource+"`")
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeFailures writes pages that could not be fetched or parsed.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.Failed) == 0 {
		return
	}

	md.H2("Failed Pages")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Failed))
	for _, failure := range report.Failed {
		rows = append(rows, []string{"`" + failure.URL + "`", failure.Message})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}
