package model

import "time"

// CrawlReport is the result of one crawl invocation.
// It echoes the effective crawl configuration, carries the deduplicated
// resource URL set, and records enough bookkeeping for reports and the
// history database.
//
// Design decision: We use a single flat struct rather than nested
// sub-reports because it keeps JSON output, database persistence, and the
// report writers simple. The resource list is the payload; everything else
// is context around it.
type CrawlReport struct {
	// StartURL is the URL the crawl was seeded from.
	StartURL string `json:"start_url"`

	// Origin is the crawl's origin (scheme://host[:port]) derived from StartURL.
	Origin string `json:"origin"`

	// Depth is the link-depth budget the crawl ran with.
	Depth int `json:"depth"`

	// IncludeSubdomains reports whether subdomain traversal was enabled.
	IncludeSubdomains bool `json:"include_subdomains"`

	// MaxPages is the page budget the crawl ran with.
	MaxPages int `json:"max_pages"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total wall-clock time of the crawl.
	Duration time.Duration `json:"duration"`

	// PagesFetched is the number of pages actually fetched, excluding the
	// start page. Always <= MaxPages.
	PagesFetched int `json:"pages_fetched"`

	// Resources is the sorted, deduplicated list of discovered resource URLs.
	Resources []string `json:"resources"`

	// Failed lists pages that could not be fetched or parsed.
	Failed []PageError `json:"failed,omitempty"`

	// Downloaded is the number of resources the sink accepted. For the
	// downloading sink this is the count of files stored successfully; for
	// the dry-run listing sink it is the count of URLs printed.
	Downloaded int `json:"downloaded"`

	// Steps lists the pipeline steps that ran, in execution order.
	Steps []string `json:"steps,omitempty"`

	// ErrorMessage is set when the crawl aborted early (e.g. cancellation).
	ErrorMessage string `json:"error,omitempty"`

	// Error is the underlying error, kept out of serialized output.
	Error error `json:"-"`
}

// NewCrawlReport creates a report for the given start URL with the
// timestamp set to now.
func NewCrawlReport(startURL string) *CrawlReport {
	return &CrawlReport{
		StartURL:  startURL,
		StartedAt: time.Now(),
		Resources: make([]string, 0),
	}
}

// ResourceCount returns the number of distinct resources found.
func (r *CrawlReport) ResourceCount() int {
	return len(r.Resources)
}

// FailureCount returns the number of pages that failed during the crawl.
func (r *CrawlReport) FailureCount() int {
	return len(r.Failed)
}
