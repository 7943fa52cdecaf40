package crawler

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/gifcrawl/gifcrawl/internal/model"
)

// State describes the spider's traversal lifecycle.
type State int

// Spider states. The spider starts Idle, moves to Draining while the
// queue is being processed, and ends Exhausted once the queue is empty or
// a budget is hit. Exhausted is terminal.
const (
	StateIdle State = iota
	StateDraining
	StateExhausted
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Spider is the breadth-first frontier scheduler: an explicit FIFO queue
// of page tasks drained under a page budget and a depth budget.
//
// Design decision: We use an explicit queue rather than recursion because
// it guarantees breadth-first order, bounds stack depth, and makes the
// budget check a plain counter comparison at each iteration.
//
// A Spider belongs to exactly one crawl. All of its state (queue, ledger,
// resource set, counter) is owned by the single goroutine driving Run;
// no locks are needed because there is no concurrent mutation.
type Spider struct {
	// fetcher retrieves pages. Injected for testability.
	fetcher Fetcher

	// scope decides which discovered links are followed.
	scope *Scope

	// extractor pulls resources and links out of fetched pages.
	extractor *Extractor

	// depth is the link-depth budget. Tasks at depth == depth are still
	// fetched, but never expanded further.
	depth int

	// maxPages is the page budget: the maximum number of fetches.
	maxPages int

	// delay is the politeness pause between consecutive fetches.
	delay time.Duration

	// logger receives per-page debug events.
	logger *slog.Logger

	// queue is the frontier: discovered but not yet fetched tasks.
	queue []model.PageTask

	// ledger deduplicates visited pages.
	ledger *Ledger

	// resources accumulates matching resource URLs across all pages.
	resources mapset.Set[string]

	// pageCount counts pages actually fetched, never exceeding maxPages.
	pageCount int

	// failed records pages that could not be fetched or parsed.
	failed []model.PageError

	// state tracks the traversal lifecycle.
	state State
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithDepth sets the link-depth budget.
// 0 means the seeded tasks themselves are never expanded.
func WithDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.depth = depth
	}
}

// WithMaxPages sets the page budget.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the politeness delay between fetches.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithSpiderLogger sets a custom logger.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider bound to the given fetcher, scope, and
// extractor.
func NewSpider(fetcher Fetcher, scope *Scope, extractor *Extractor, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:   fetcher,
		scope:     scope,
		extractor: extractor,
		depth:     1,
		maxPages:  200,
		delay:     time.Second,
		queue:     make([]model.PageTask, 0),
		ledger:    NewLedger(),
		resources: mapset.NewSet[string](),
		failed:    make([]model.PageError, 0),
		state:     StateIdle,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Seed enqueues the initial tasks, typically the depth-1 links gathered
// from the start page. Out-of-scope tasks are dropped here so the queue
// only ever holds eligible work.
func (s *Spider) Seed(tasks []model.PageTask) {
	for _, task := range tasks {
		if s.scope.InScope(task.URL) {
			s.queue = append(s.queue, task)
		}
	}
}

// Run drains the frontier until the queue is empty, the page budget is
// consumed, or ctx is cancelled. Per-page failures are absorbed; the only
// error Run returns is ctx.Err().
//
// Termination is guaranteed: each iteration either strictly shrinks the
// queue or ends the loop on budget exhaustion, and the ledger prevents
// any URL from being requeued after it has been fetched.
func (s *Spider) Run(ctx context.Context) error {
	s.state = StateDraining
	defer func() { s.state = StateExhausted }()

	for len(s.queue) > 0 && s.pageCount < s.maxPages {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		task := s.queue[0]
		s.queue = s.queue[1:]

		// The gate: a page already visited costs nothing.
		if !s.ledger.MarkIfNew(task.URL) {
			continue
		}

		s.pageCount++
		s.visit(ctx, task)

		// Politeness delay before the next fetch.
		if s.delay > 0 && len(s.queue) > 0 && s.pageCount < s.maxPages {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	return nil
}

// visit fetches one task, merges its resources, and expands its links
// when the task sits below the depth budget.
func (s *Spider) visit(ctx context.Context, task model.PageTask) {
	page, err := s.fetcher.Fetch(ctx, task.URL)
	if err != nil {
		s.fail(task.URL, err)
		return
	}

	if !page.IsHTML() {
		s.logger.Debug("skipping non-HTML page", "url", page.URL, "contentType", page.ContentType)
		return
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		s.fail(task.URL, err)
		return
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		s.fail(task.URL, err)
		return
	}

	page.Title = s.extractor.Title(doc)

	matched := s.extractor.Extract(doc, base)
	for _, resource := range matched {
		s.resources.Add(resource)
	}

	s.logger.Debug("visited page",
		"url", page.URL,
		"depth", task.Depth,
		"resources", len(matched),
	)

	// Expand only below the depth budget: pages at the budget are
	// fetched for their resources but their links go nowhere.
	if task.Depth >= s.depth {
		return
	}

	for _, link := range s.extractor.Links(doc, base) {
		if s.scope.InScope(link) && !s.ledger.Seen(link) {
			s.queue = append(s.queue, model.PageTask{URL: link, Depth: task.Depth + 1})
		}
	}
}

// fail records a per-page failure. These never abort the crawl.
func (s *Spider) fail(pageURL string, err error) {
	s.failed = append(s.failed, model.PageError{URL: pageURL, Message: err.Error()})
	s.logger.Debug("page failed", "url", pageURL, "error", err)
}

// Resources returns the accumulated resource URL set.
func (s *Spider) Resources() mapset.Set[string] {
	return s.resources
}

// PagesFetched returns the number of pages actually fetched.
func (s *Spider) PagesFetched() int {
	return s.pageCount
}

// DistinctPages returns the number of distinct pages marked visited.
// Equal to PagesFetched: only pages that are about to be fetched are
// ever marked.
func (s *Spider) DistinctPages() int {
	return s.ledger.Size()
}

// FailedPages returns the pages that failed during the crawl.
func (s *Spider) FailedPages() []model.PageError {
	return s.failed
}

// State returns the spider's current lifecycle state.
func (s *Spider) State() State {
	return s.state
}
