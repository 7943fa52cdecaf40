package report

import (
	"bytes"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/gifcrawl/gifcrawl/internal/model"
)

// ResourceRow is one CSV line per discovered resource. Crawl-level fields
// repeat on the first row only so the file stays readable in a spreadsheet.
type ResourceRow struct {
	StartURL  string `csv:"Start URL,omitempty"`
	CrawlDate string `csv:"Crawl Date,omitempty"`
	Resource  string `csv:"Resource URL"`
}

// CSVWriter outputs one row per resource URL in CSV format.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report's resources in CSV format. A report with no
// resources still produces the header line.
func (w *CSVWriter) Write(report *model.CrawlReport) (int, error) {
	rows := make([]ResourceRow, 0, len(report.Resources))
	for i, resource := range report.Resources {
		row := ResourceRow{Resource: resource}
		if i == 0 {
			row.StartURL = report.StartURL
			row.CrawlDate = report.StartedAt.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, row)
	}

	var buf bytes.Buffer
	if err := gocsv.Marshal(&rows, &buf); err != nil {
		return 0, err
	}

	return w.output.Write(buf.Bytes())
}
