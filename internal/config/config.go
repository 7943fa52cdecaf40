package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values mirror the defaults of the original browser-based tool
// where applicable and are otherwise chosen for polite crawling.
const (
	// DefaultDepth of 0 means "extract from the start page only, follow
	// no links". Crawling deeper is opt-in because even depth 1 can fan
	// out to hundreds of pages on link-heavy sites.
	DefaultDepth = 0

	// DefaultMaxPages caps the number of pages fetched per crawl.
	// 200 is generous enough for most galleries while preventing runaway
	// crawling on large or infinitely-generating sites.
	DefaultMaxPages = 200

	// DefaultCrawlDelay is the pause between page fetches.
	// Pages are fetched one at a time, so this directly bounds the load
	// placed on the target site.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultTimeout is the per-request timeout. The crawl itself has no
	// deadline; a hung fetch would otherwise block the whole traversal.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB is sufficient for any reasonable HTML page while preventing
	// memory exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultConcurrency is the number of parallel resource downloads.
	// Page fetching stays strictly sequential; only the final download of
	// discovered resources is parallelized.
	DefaultConcurrency = 4

	// DefaultUserAgent identifies gifcrawl in HTTP requests.
	// A descriptive User-Agent lets site operators identify crawler
	// traffic in their logs.
	DefaultUserAgent = "gifcrawl/1.0 (+https://github.com/gifcrawl/gifcrawl)"

	// DefaultBatchSize is the number of concurrent crawls when multiple
	// start URLs are given. Each crawl still fetches one page at a time.
	DefaultBatchSize = 2

	// DefaultExtension is the resource file extension to collect.
	DefaultExtension = ".gif"

	// AppName is the application name used for XDG directory paths.
	AppName = "gifcrawl"
)

// Config holds all configuration options for gifcrawl.
// It is populated from CLI flags and the optional .gifcrawl file, then
// passed through the application by dependency injection rather than
// global state. Immutable for the duration of one crawl.
type Config struct {
	// Depth is the link-depth budget. Depth 0 extracts from the start
	// page only; depth 1 also fetches pages the start page links to, etc.
	Depth int

	// IncludeSubdomains widens the crawl scope from the exact start
	// origin to any host under the start URL's base registrable domain.
	// The base domain is approximated as the last two dot-separated
	// labels of the start host; this is wrong for multi-part public
	// suffixes such as .co.uk and is a documented limitation.
	IncludeSubdomains bool

	// MaxPages is the page budget: the maximum number of pages fetched
	// per crawl, not counting the start page. Must be positive.
	MaxPages int

	// Extension is the resource file extension to collect, matched
	// case-insensitively against the URL path with the query stripped.
	Extension string

	// CrawlDelay is the politeness pause between page fetches.
	CrawlDelay time.Duration

	// Timeout is the per-request timeout for page fetches and downloads.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	// Empty means direct connections.
	ProxyAddress string

	// DownloadDir is the directory resources are downloaded into.
	// Defaults to the current working directory.
	DownloadDir string

	// DryRun lists discovered resource URLs instead of downloading them.
	DryRun bool

	// Concurrency is the number of parallel resource downloads.
	Concurrency int

	// RatePerSecond throttles resource downloads. Zero means unlimited.
	RatePerSecond float64

	// BatchSize is the number of concurrent crawls when several start
	// URLs are given.
	BatchSize int

	// Verbose enables debug-level log output.
	Verbose bool

	// JSONReport, MarkdownReport, and CSVReport select the report format.
	// At most one may be set; the default is a human-readable summary.
	JSONReport     bool
	MarkdownReport bool
	CSVReport      bool

	// ReportFile is the output file path for the report.
	// When empty the report is written to stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file. If empty,
	// .gifcrawl is searched in the current directory and then the home
	// directory.
	ConfigFilePath string

	// SiteConfigs holds per-site settings loaded from the config file.
	SiteConfigs *File

	// DBDir is the directory holding the SQLite crawl history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB controls whether crawl results are recorded in the
	// history database.
	SaveToDB bool

	// Targets is the list of start URLs to crawl.
	Targets []string
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero values
// because most defaults are non-zero (budgets, delays, sizes). It also
// serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Depth:       DefaultDepth,
		MaxPages:    DefaultMaxPages,
		Extension:   DefaultExtension,
		CrawlDelay:  DefaultCrawlDelay,
		Timeout:     DefaultTimeout,
		MaxBodySize: DefaultMaxBodySize,
		UserAgent:   DefaultUserAgent,
		Concurrency: DefaultConcurrency,
		BatchSize:   DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for gifcrawl.
// On Linux: ~/.local/share/gifcrawl
// On macOS: ~/Library/Application Support/gifcrawl
// On Windows: %LOCALAPPDATA%\gifcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for gifcrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// Invalid configuration is the only hard failure a crawl can produce, so
// this is called once after CLI parsing, before any network activity.
//
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	// MaxPages must be positive; zero would mean no crawling at all
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	// Depth 0 is valid (start page only); negative is not
	if c.Depth < 0 {
		return ErrInvalidDepth
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// CrawlDelay of zero disables pacing; negative is invalid
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// Report formats are mutually exclusive
	formats := 0
	for _, set := range []bool{c.JSONReport, c.MarkdownReport, c.CSVReport} {
		if set {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	return nil
}
