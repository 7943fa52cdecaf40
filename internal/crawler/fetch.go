package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/net/proxy"

	"github.com/gifcrawl/gifcrawl/internal/model"
)

// Fetcher retrieves a single page by URL.
// Implementations return an error for any response that cannot contribute
// to the crawl; the frontier absorbs those errors per page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*model.Page, error)
}

// HTTPFetcher fetches pages over HTTP with size limits and charset
// normalization.
//
// Design decision: We require an external http.Client rather than
// creating one internally because:
//  1. Proxy configuration is handled by NewProxyClient
//  2. Connection pooling can be shared across fetches
//  3. Tests can inject httptest server clients
type HTTPFetcher struct {
	// client performs the requests.
	client *http.Client

	// userAgent is the User-Agent header to send.
	userAgent string

	// maxBodySize caps the response body read, in bytes.
	maxBodySize int64

	// cookie is an optional Cookie header from per-site configuration.
	cookie string

	// headers are optional extra request headers from per-site
	// configuration.
	headers map[string]string
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithCookie sets a Cookie header sent with every request.
func WithCookie(cookie string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.cookie = cookie
	}
}

// WithHeaders sets extra request headers sent with every request.
func WithHeaders(headers map[string]string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.headers = headers
	}
}

// NewHTTPFetcher creates an HTTPFetcher using the given client.
func NewHTTPFetcher(client *http.Client, opts ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      client,
		userAgent:   "gifcrawl/1.0 (+https://github.com/gifcrawl/gifcrawl)",
		maxBodySize: 5 * 1024 * 1024, // 5MB
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs a GET request for pageURL and returns the page.
// Non-2xx responses are errors: such pages contribute zero resources and
// zero further links.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")

	// Decode to UTF-8 so the extractor sees one consistent encoding.
	// On sniffing failure the raw bytes are used as-is; best-effort
	// parsing downstream copes with that.
	if reader, cerr := charset.NewReader(bytes.NewReader(body), contentType); cerr == nil {
		if decoded, derr := io.ReadAll(reader); derr == nil {
			body = decoded
		}
	}

	return &model.Page{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		ContentType: contentType,
		Body:        body,
	}, nil
}

// NewProxyClient creates an http.Client that dials through a SOCKS5 proxy
// at addr ("host:port"). An empty addr yields a direct client.
func NewProxyClient(addr string, timeout time.Duration) (*http.Client, error) {
	if addr == "" {
		return &http.Client{Timeout: timeout}, nil
	}

	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 proxy %s: %w", addr, err)
	}

	transport := &http.Transport{}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.Dial = dialer.Dial //nolint:staticcheck // fallback for dialers without context support
	}

	return &http.Client{Transport: transport, Timeout: timeout}, nil
}
