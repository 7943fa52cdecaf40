package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gifcrawl/gifcrawl/internal/config"
	"github.com/gifcrawl/gifcrawl/internal/crawler"
	"github.com/gifcrawl/gifcrawl/internal/database"
	gclog "github.com/gifcrawl/gifcrawl/internal/log"
	"github.com/gifcrawl/gifcrawl/internal/model"
	"github.com/gifcrawl/gifcrawl/internal/pipeline"
	"github.com/gifcrawl/gifcrawl/internal/report"
	"github.com/gifcrawl/gifcrawl/internal/sink"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl a website and collect its GIF resources",
		Long: `Crawl fetches a start page, extracts .gif URLs from image tags, anchor
links, and inline background-image styles, and optionally follows
same-origin links up to a depth budget to collect more.

By default the discovered files are downloaded into the current
directory. Use --dry-run to list the URLs instead.

Examples:
  # Collect gifs from a single page
  gifcrawl crawl https://example.com/gallery

  # Follow links one level deep, at most 50 pages
  gifcrawl crawl --depth 1 --max-pages 50 https://example.com

  # Include sibling subdomains (static.example.com etc)
  gifcrawl crawl --depth 2 --include-subdomains https://www.example.com

  # List URLs without downloading
  gifcrawl crawl --dry-run https://example.com

  # JSON report written to a file
  gifcrawl crawl --json -o report.json https://example.com

Configuration file (.gifcrawl) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      depth: 2`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultDepth,
		"Link-depth budget (0 = start page only)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch per crawl")
	cmd.Flags().BoolP("include-subdomains", "s", false,
		"Follow links to sibling subdomains of the start host")
	cmd.Flags().String("extension", config.DefaultExtension,
		"Resource file extension to collect")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Politeness delay between page fetches")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes to read")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")

	// Download flags
	cmd.Flags().BoolP("dry-run", "n", false,
		"List resource URLs instead of downloading them")
	cmd.Flags().StringP("dir", "D", ".",
		"Directory to download resources into")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of parallel resource downloads")
	cmd.Flags().Float64("rate", 0,
		"Download rate limit in requests per second (0 = unlimited)")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls when multiple URLs are given")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .gifcrawl in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown and --csv)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json and --csv)")
	cmd.Flags().Bool("csv", false,
		"Output CSV report (mutually exclusive with --json and --markdown)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-db", false,
		"Skip recording this crawl in the history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := gclog.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Depth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.IncludeSubdomains, err = cmd.Flags().GetBool("include-subdomains")
	if err != nil {
		return nil, err
	}

	cfg.Extension, err = cmd.Flags().GetString("extension")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.DryRun, err = cmd.Flags().GetBool("dry-run")
	if err != nil {
		return nil, err
	}

	cfg.DownloadDir, err = cmd.Flags().GetString("dir")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.RatePerSecond, err = cmd.Flags().GetFloat64("rate")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.CSVReport, err = cmd.Flags().GetBool("csv")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	cfg.DBDir = config.XDGDataDir()

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments are the start URLs
	cfg.Targets = args

	return cfg, nil
}

// runCrawl executes the crawl for all targets.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"targets", cfg.Targets,
		"depth", cfg.Depth,
		"maxPages", cfg.MaxPages,
		"dryRun", cfg.DryRun,
	)

	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	client, err := crawler.NewProxyClient(cfg.ProxyAddress, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchCrawl(ctx, cfg, client, db, logger)
	}

	return runSequentialCrawl(ctx, cfg, client, db, logger)
}

// recentCrawlWindow is how far back noteRecentCrawl looks for an earlier
// crawl of the same start URL.
const recentCrawlWindow = 24 * time.Hour

// noteRecentCrawl prints a notice when the target already has a crawl in
// the history database within recentCrawlWindow. The crawl proceeds either
// way; the notice points at the stored result.
func noteRecentCrawl(ctx context.Context, db *database.CrawlDB, target string, out io.Writer, logger *slog.Logger) {
	if db == nil {
		return
	}

	recent, err := db.HasRecentCrawl(ctx, target, recentCrawlWindow)
	if err != nil {
		logger.Debug("recent-crawl lookup failed", "target", target, "error", err)
		return
	}
	if !recent {
		return
	}

	last, err := db.LatestCrawl(ctx, target)
	if err != nil || last == nil {
		return
	}
	fmt.Fprintf(out, "Note: %s was crawled at %s (%d resources); see 'gifcrawl history'\n",
		target, last.StartedAt.Local().Format(time.DateTime), last.ResourcesFound)
}

// runSequentialCrawl crawls targets one at a time, applying per-site
// configuration from the config file.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, client *http.Client, db *database.CrawlDB, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		noteRecentCrawl(ctx, db, target, os.Stdout, logger)

		siteConfig := getSiteConfig(cfg, target)

		p, err := createPipelineForTarget(cfg, siteConfig, client, db, logger)
		if err != nil {
			return err
		}

		crawlReport := model.NewCrawlReport(target)

		fmt.Printf("Crawling %s...\n", target)
		startTime := time.Now()

		if err := p.Execute(ctx, crawlReport); err != nil {
			logger.Error("crawl failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Crawl error for %s: %v\n", target, err)
			if errors.Is(err, context.Canceled) {
				return err
			}
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))

		if err := outputReport(cfg, crawlReport); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchCrawl crawls multiple targets concurrently using BatchProcessor.
func runBatchCrawl(ctx context.Context, cfg *config.Config, client *http.Client, db *database.CrawlDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch crawl of %d targets (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	if cfg.SiteConfigs != nil && len(cfg.SiteConfigs.Sites) > 0 {
		logger.Warn("batch processing uses default site config only; site-specific configs (cookies, headers, depth) are ignored",
			"siteCount", len(cfg.SiteConfigs.Sites))
		fmt.Fprintf(os.Stderr, "Warning: Site-specific configurations are ignored in batch mode. Use sequential mode (--batch 1) to apply per-site settings.\n\n")
	}

	var defaults config.SiteConfig
	if cfg.SiteConfigs != nil {
		defaults = cfg.SiteConfigs.Defaults
	}

	// Pipeline construction errors are deterministic for a given config,
	// so validate once before fanning out.
	if _, err := createPipelineForTarget(cfg, defaults, client, db, logger); err != nil {
		return err
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			p, err := createPipelineForTarget(cfg, defaults, client, db, logger)
			if err != nil {
				logger.Error("pipeline construction failed", "error", err)
				return pipeline.New(pipeline.WithLogger(logger))
			}
			return p
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	reports, err := bp.ProcessBatch(ctx, cfg.Targets)

	for i, crawlReport := range reports {
		fmt.Printf("[%d/%d] Crawl completed: %s\n", i+1, len(reports), crawlReport.StartURL)
		if reportErr := outputReport(cfg, crawlReport); reportErr != nil {
			logger.Error("report failed", "target", crawlReport.StartURL, "error", reportErr)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch crawl completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// getSiteConfig returns the merged site configuration for a target URL.
func getSiteConfig(cfg *config.Config, target string) config.SiteConfig {
	if cfg.SiteConfigs == nil {
		return config.SiteConfig{}
	}

	host := target
	if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	return cfg.SiteConfigs.GetSiteConfig(host)
}

// createPipelineForTarget assembles the crawl pipeline with the given
// site configuration: crawl, then download (or dry-run listing), then
// persist when the history database is enabled.
func createPipelineForTarget(cfg *config.Config, siteConfig config.SiteConfig, client *http.Client, db *database.CrawlDB, logger *slog.Logger) (*pipeline.Pipeline, error) {
	fetcherOpts := []crawler.HTTPFetcherOption{
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
	}
	if siteConfig.Cookie != "" {
		fetcherOpts = append(fetcherOpts, crawler.WithCookie(siteConfig.Cookie))
	}
	if len(siteConfig.Headers) > 0 {
		fetcherOpts = append(fetcherOpts, crawler.WithHeaders(siteConfig.Headers))
	}
	fetcher := crawler.NewHTTPFetcher(client, fetcherOpts...)

	// Site-specific overrides win over global flags.
	depth := cfg.Depth
	if siteConfig.Depth != nil {
		depth = *siteConfig.Depth
	}
	includeSubdomains := cfg.IncludeSubdomains
	if siteConfig.IncludeSubdomains != nil {
		includeSubdomains = *siteConfig.IncludeSubdomains
	}

	session, err := crawler.NewSession(fetcher,
		crawler.WithSessionDepth(depth),
		crawler.WithSessionMaxPages(cfg.MaxPages),
		crawler.WithSessionDelay(cfg.CrawlDelay),
		crawler.WithIncludeSubdomains(includeSubdomains),
		crawler.WithExtension(cfg.Extension),
		crawler.WithSessionLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create crawl session: %w", err)
	}

	var destination sink.Sink
	if cfg.DryRun {
		destination = sink.NewListSink(os.Stdout)
	} else {
		downloader, err := sink.NewDownloader(client, cfg.DownloadDir,
			sink.WithDownloadConcurrency(cfg.Concurrency),
			sink.WithDownloadRate(cfg.RatePerSecond),
			sink.WithDownloadUserAgent(cfg.UserAgent),
			sink.WithDownloadLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create downloader: %w", err)
		}
		destination = downloader
	}

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddStep(pipeline.NewCrawlStep(session, pipeline.WithCrawlLogger(logger)))
	p.AddStep(pipeline.NewDownloadStep(destination, pipeline.WithDownloadStepLogger(logger)))
	if db != nil {
		p.AddStep(pipeline.NewPersistStep(db, pipeline.WithPersistLogger(logger)))
	}

	return p, nil
}

// outputReport outputs the crawl report in the requested format.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// 0600: reports can embed cookies or internal URLs from the
		// config file.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	case cfg.CSVReport:
		writer = report.NewCSVWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(crawlReport)
	return err
}
