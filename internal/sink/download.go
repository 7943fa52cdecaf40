package sink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/vnykmshr/goflow/pkg/ratelimit/bucket"
	"golang.org/x/sync/errgroup"
)

// Downloader transfers resource files to a local directory. Transfers run
// concurrently up to a limit, paced by an optional token-bucket rate
// limiter so a burst of discovered resources does not hammer the origin.
//
// Design decision: We treat per-file failures the same way the crawl
// engine treats per-page failures because:
// 1. One broken resource should never abort the rest of the batch
// 2. The caller only needs the count of files that actually landed
// 3. Failures are already visible through the logger
type Downloader struct {
	// client performs the file transfers.
	client *http.Client

	// dir is the destination directory, created on demand.
	dir string

	// concurrency caps simultaneous transfers.
	concurrency int

	// maxBodySize caps the bytes read per file.
	maxBodySize int64

	// limiter paces transfer starts. Nil means unpaced.
	limiter bucket.Limiter

	// userAgent is sent with each request.
	userAgent string

	// logger receives per-file events.
	logger *slog.Logger

	// names tracks filenames already claimed in this delivery.
	names   map[string]bool
	namesMu sync.Mutex
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithDownloadConcurrency caps the number of simultaneous transfers.
func WithDownloadConcurrency(n int) DownloaderOption {
	return func(d *Downloader) {
		d.concurrency = n
	}
}

// WithDownloadRate paces transfer starts to roughly rate per second.
// A non-positive rate leaves transfers unpaced.
func WithDownloadRate(rate float64) DownloaderOption {
	return func(d *Downloader) {
		if rate <= 0 {
			return
		}
		burst := int(rate * 2)
		if burst < 1 {
			burst = 1
		}
		limiter, err := bucket.NewSafe(bucket.Limit(rate), burst)
		if err != nil {
			return
		}
		d.limiter = limiter
	}
}

// WithDownloadMaxBodySize caps the bytes read per file.
func WithDownloadMaxBodySize(n int64) DownloaderOption {
	return func(d *Downloader) {
		if n > 0 {
			d.maxBodySize = n
		}
	}
}

// WithDownloadUserAgent sets the User-Agent header for transfers.
func WithDownloadUserAgent(ua string) DownloaderOption {
	return func(d *Downloader) {
		d.userAgent = ua
	}
}

// WithDownloadLogger sets a custom logger.
func WithDownloadLogger(logger *slog.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// NewDownloader creates a Downloader writing into dir.
func NewDownloader(client *http.Client, dir string, opts ...DownloaderOption) (*Downloader, error) {
	if dir == "" {
		return nil, ErrNoDownloadDir
	}

	d := &Downloader{
		client:      client,
		dir:         dir,
		concurrency: 4,
		maxBodySize: 64 << 20,
		names:       make(map[string]bool),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.client == nil {
		d.client = http.DefaultClient
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.concurrency <= 0 {
		return nil, ErrInvalidConcurrency
	}

	return d, nil
}

// Deliver downloads each URL into the destination directory and returns
// the number of files written. Per-file failures are logged and skipped;
// the only fatal error is context cancellation or an unusable directory.
func (d *Downloader) Deliver(ctx context.Context, urls []string) (int, error) {
	if len(urls) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return 0, fmt.Errorf("sink: failed to create download directory: %w", err)
	}

	var downloaded atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, rawURL := range urls {
		g.Go(func() error {
			if d.limiter != nil {
				if err := d.limiter.Wait(ctx); err != nil {
					return err
				}
			} else {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}

			if err := d.fetchOne(ctx, rawURL); err != nil {
				d.logger.Warn("download failed", "url", rawURL, "error", err)
				return nil
			}

			downloaded.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(downloaded.Load()), err
	}

	return int(downloaded.Load()), nil
}

// fetchOne transfers a single resource to disk.
func (d *Downloader) fetchOne(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	name := d.claimName(rawURL)
	dest := filepath.Join(d.dir, name)

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	_, err = io.Copy(f, io.LimitReader(resp.Body, d.maxBodySize))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to write file: %w", err)
	}

	d.logger.Debug("downloaded resource", "url", rawURL, "file", dest)
	return nil
}

// claimName derives a collision-free filename for the URL.
func (d *Downloader) claimName(rawURL string) string {
	d.namesMu.Lock()
	defer d.namesMu.Unlock()
	return Uniquify(Filename(rawURL), d.names)
}
