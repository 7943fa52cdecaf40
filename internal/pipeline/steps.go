package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gifcrawl/gifcrawl/internal/crawler"
	"github.com/gifcrawl/gifcrawl/internal/database"
	"github.com/gifcrawl/gifcrawl/internal/model"
	"github.com/gifcrawl/gifcrawl/internal/sink"
)

// CrawlStep runs the crawl engine against the report's start URL.
// It is always the first step: every later step consumes what it finds.
type CrawlStep struct {
	// session is the crawl engine, already configured with budgets.
	session *crawler.Session

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a crawl step around a configured session.
func NewCrawlStep(session *crawler.Session, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		session: session,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl and folds the result into the pipeline report.
// A cancelled crawl still delivers its partial findings before the error
// propagates.
func (s *CrawlStep) Do(ctx context.Context, report *model.CrawlReport) error {
	result, err := s.session.Crawl(ctx, report.StartURL)
	if result != nil {
		// Preserve pipeline bookkeeping across the overwrite.
		steps := report.Steps
		*report = *result
		report.Steps = steps
	}
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	s.logger.Debug("crawl step finished",
		"url", report.StartURL,
		"resources", report.ResourceCount(),
		"pages", report.PagesFetched,
	)

	return nil
}

// DownloadStep hands the discovered resources to a sink. With a dry-run
// ListSink this prints the URLs; with a Downloader it stores the files.
type DownloadStep struct {
	// destination receives the resource URLs.
	destination sink.Sink

	// logger for structured logging.
	logger *slog.Logger
}

// DownloadStepOption configures a DownloadStep.
type DownloadStepOption func(*DownloadStep)

// WithDownloadStepLogger sets a custom logger for the download step.
func WithDownloadStepLogger(logger *slog.Logger) DownloadStepOption {
	return func(s *DownloadStep) {
		s.logger = logger
	}
}

// NewDownloadStep creates a download step around a sink.
func NewDownloadStep(destination sink.Sink, opts ...DownloadStepOption) *DownloadStep {
	s := &DownloadStep{
		destination: destination,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *DownloadStep) Name() string {
	return "download"
}

// Do delivers the report's resources to the sink and records how many
// it acted on.
func (s *DownloadStep) Do(ctx context.Context, report *model.CrawlReport) error {
	n, err := s.destination.Deliver(ctx, report.Resources)
	report.Downloaded = n
	if err != nil {
		return fmt.Errorf("delivery failed: %w", err)
	}

	s.logger.Debug("download step finished",
		"url", report.StartURL,
		"delivered", n,
	)

	return nil
}

// PersistStep stores the finished report in the crawl history database.
type PersistStep struct {
	// db is the history database.
	db *database.CrawlDB

	// logger for structured logging.
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a persistence step around an open database.
func NewPersistStep(db *database.CrawlDB, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		db:     db,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do saves the report and its resources to the history database.
func (s *PersistStep) Do(ctx context.Context, report *model.CrawlReport) error {
	id, err := s.db.SaveReport(ctx, report)
	if err != nil {
		return fmt.Errorf("persist failed: %w", err)
	}

	s.logger.Debug("persist step finished",
		"url", report.StartURL,
		"crawl_id", id,
	)

	return nil
}
