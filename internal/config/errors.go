package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and name exactly what is wrong.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no start URL is specified.
	ErrNoTarget = errors.New("no target specified: provide one or more start URLs")

	// ErrInvalidMaxPages is returned when the page budget is not positive.
	// A budget of zero would mean no pages could ever be fetched.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidDepth is returned when the depth budget is negative.
	// Depth 0 is valid and means "start page only".
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidConcurrency is returned when the download concurrency is
	// not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when more than one of
	// --json, --markdown, and --csv is specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json, --markdown, and --csv are mutually exclusive")
)
