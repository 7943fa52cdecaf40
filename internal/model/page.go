package model

import "strings"

// Page represents a single fetched web page.
// It holds the response metadata and the (possibly truncated) body,
// already decoded to UTF-8 by the fetcher.
//
// Design decision: We keep the body as raw bytes rather than a parsed
// document because:
// 1. The extractor decides how to parse (and tolerates broken HTML)
// 2. Non-HTML responses are detected and skipped cheaply
// 3. It keeps this package free of parser dependencies
type Page struct {
	// URL is the full URL the page was fetched from.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains all HTTP response headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// ContentType is the MIME type from the Content-Type header.
	ContentType string `json:"content_type"`

	// Title is the page title, filled in by the extractor for HTML pages.
	Title string `json:"title,omitempty"`

	// Body is the response body, capped at the configured maximum size.
	Body []byte `json:"-"` // Excluded from JSON to keep reports small
}

// GetHeader returns the first value of the named header.
// Returns empty string if the header is not present.
func (p *Page) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// IsHTML reports whether the content type indicates an HTML document.
// Content types may carry a charset suffix (e.g. "text/html; charset=utf-8").
func (p *Page) IsHTML() bool {
	return strings.HasPrefix(p.ContentType, "text/html") ||
		strings.HasPrefix(p.ContentType, "application/xhtml+xml")
}
