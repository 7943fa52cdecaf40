package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/gifcrawl/gifcrawl/internal/model"
)

// Session option validation errors.
var (
	// ErrInvalidMaxPages is returned when the page budget is not positive.
	ErrInvalidMaxPages = errors.New("crawler: max pages must be positive")

	// ErrInvalidDepth is returned when the depth budget is negative.
	ErrInvalidDepth = errors.New("crawler: depth must be non-negative")

	// ErrInvalidDelay is returned when the crawl delay is negative.
	ErrInvalidDelay = errors.New("crawler: delay must be non-negative")
)

// Session is the top-level crawl orchestrator and the sole entry point of
// the engine. Each invocation of Crawl or CrawlDocument builds a fresh
// spider, ledger, and resource set, so one Session may run crawls
// back-to-back (or concurrent Sessions may coexist) without shared state.
type Session struct {
	// fetcher retrieves pages for the frontier and the start page.
	fetcher Fetcher

	// extension is the resource file extension to collect.
	extension string

	// depth is the link-depth budget; 0 means start page only.
	depth int

	// includeSubdomains widens scope to the base registrable domain.
	includeSubdomains bool

	// maxPages is the page budget, excluding the start page.
	maxPages int

	// delay is the politeness pause between fetches.
	delay time.Duration

	// logger receives crawl progress events.
	logger *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionDepth sets the link-depth budget.
func WithSessionDepth(depth int) SessionOption {
	return func(s *Session) {
		s.depth = depth
	}
}

// WithSessionMaxPages sets the page budget.
func WithSessionMaxPages(maxPages int) SessionOption {
	return func(s *Session) {
		s.maxPages = maxPages
	}
}

// WithIncludeSubdomains widens the crawl scope to sibling subdomains.
func WithIncludeSubdomains(include bool) SessionOption {
	return func(s *Session) {
		s.includeSubdomains = include
	}
}

// WithSessionDelay sets the politeness delay between fetches.
func WithSessionDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		s.delay = d
	}
}

// WithExtension sets the resource file extension to collect.
func WithExtension(ext string) SessionOption {
	return func(s *Session) {
		s.extension = ext
	}
}

// WithSessionLogger sets a custom logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a Session with the given fetcher.
// Invalid budgets are the one hard failure of the engine and are rejected
// here, before any network activity.
func NewSession(fetcher Fetcher, opts ...SessionOption) (*Session, error) {
	s := &Session{
		fetcher:   fetcher,
		extension: ".gif",
		depth:     0,
		maxPages:  200,
		delay:     time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	if s.maxPages <= 0 {
		return nil, ErrInvalidMaxPages
	}
	if s.depth < 0 {
		return nil, ErrInvalidDepth
	}
	if s.delay < 0 {
		return nil, ErrInvalidDelay
	}

	return s, nil
}

// Crawl fetches the start page and crawls from it. The start page fetch
// does not count against the page budget; it plays the role of the
// already-loaded document the engine is seeded from.
func (s *Session) Crawl(ctx context.Context, startURL string) (*model.CrawlReport, error) {
	if _, err := parseStartURL(startURL); err != nil {
		return nil, err
	}

	page, err := s.fetcher.Fetch(ctx, startURL)
	if err != nil {
		return nil, fmt.Errorf("start page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("start page: %w", err)
	}

	return s.CrawlDocument(ctx, doc, startURL)
}

// CrawlDocument crawls from an already-parsed start document. Resources
// are first extracted from the document itself at zero budget cost; when
// the depth budget allows, the document's in-scope links seed the
// frontier at depth 1 and the spider drains it.
//
// The returned report always carries everything accumulated so far, even
// when ctx was cancelled mid-crawl; in that case the report's error
// fields are set and ctx.Err() is returned alongside it.
func (s *Session) CrawlDocument(ctx context.Context, doc *goquery.Document, startURL string) (*model.CrawlReport, error) {
	start, err := parseStartURL(startURL)
	if err != nil {
		return nil, err
	}

	scope := NewScope(start, s.includeSubdomains)
	extractor := NewExtractor(s.extension)

	report := model.NewCrawlReport(startURL)
	report.Origin = scope.Origin()
	report.Depth = s.depth
	report.IncludeSubdomains = s.includeSubdomains
	report.MaxPages = s.maxPages

	// The start document is already in hand: extract, no fetch.
	resources := mapset.NewSet[string]()
	for _, resource := range extractor.Extract(doc, start) {
		resources.Add(resource)
	}

	var runErr error
	if s.depth > 0 {
		spider := NewSpider(s.fetcher, scope, extractor,
			WithDepth(s.depth),
			WithMaxPages(s.maxPages),
			WithDelay(s.delay),
			WithSpiderLogger(s.logger),
		)

		tasks := make([]model.PageTask, 0)
		for _, link := range extractor.Links(doc, start) {
			tasks = append(tasks, model.PageTask{URL: link, Depth: 1})
		}
		spider.Seed(tasks)

		runErr = spider.Run(ctx)

		resources = resources.Union(spider.Resources())
		report.PagesFetched = spider.PagesFetched()
		report.Failed = spider.FailedPages()
	}

	report.Resources = resources.ToSlice()
	sort.Strings(report.Resources)
	report.Duration = time.Since(report.StartedAt)

	if runErr != nil {
		report.Error = runErr
		report.ErrorMessage = runErr.Error()
		return report, runErr
	}

	s.logger.Info("crawl complete",
		"url", startURL,
		"pages", report.PagesFetched,
		"resources", report.ResourceCount(),
		"failed", report.FailureCount(),
		"duration", report.Duration,
	)

	return report, nil
}

// parseStartURL validates the crawl's start URL. Unlike discovered links,
// a bad start URL is a caller mistake and is reported as an error.
func parseStartURL(startURL string) (*url.URL, error) {
	u, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("invalid start URL %q: scheme must be http or https", startURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid start URL %q: missing host", startURL)
	}

	return u, nil
}
