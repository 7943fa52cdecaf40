package model

// PageTask is one unit of traversal work: a page URL and the link depth
// at which it was discovered. Tasks are created when an in-scope link is
// found, consumed when the frontier visits them, and never mutated.
type PageTask struct {
	// URL is the absolute page URL to fetch.
	URL string `json:"url"`

	// Depth is the link distance from the start page.
	// The start page itself is depth 0; its direct links are depth 1.
	Depth int `json:"depth"`
}

// PageError records a page that failed to fetch or parse during a crawl.
// These are informational: per-page failures never abort a crawl.
type PageError struct {
	// URL is the page that failed.
	URL string `json:"url"`

	// Message is the human-readable failure description.
	Message string `json:"message"`
}
