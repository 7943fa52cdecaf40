// Package report renders crawl results in multiple output formats.
//
// Supported formats:
//   - Simple: human-readable text for terminal display
//   - JSON: machine-readable output for tool integration
//   - Markdown: documentation-friendly output
//   - CSV: one row per resource URL for spreadsheet import
package report
