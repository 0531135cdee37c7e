// Package fetch downloads media content referenced by URL. It enforces size
// and time limits so that a single hostile or broken link cannot stall the
// store or fill its disk.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/AltairaLabs/MediaKit/logger"
	"github.com/AltairaLabs/MediaKit/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout      = 30 * time.Second // Default timeout for HTTP requests
	defaultMaxSizeBytes = 50 * 1024 * 1024 // 50MB default max size for downloaded content
)

// Fetcher retrieves media bytes from http(s) and file URLs.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	maxSize int64
	limiter *rate.Limiter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the HTTP request timeout. Ignored when WithHTTPClient is
// also given, since the supplied client owns its own timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxSize sets the maximum number of bytes a single fetch may return.
func WithMaxSize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxSize = n
		}
	}
}

// WithHTTPClient replaces the default client, e.g. to add custom transports
// or proxies.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithRateLimit caps outgoing requests at rps with the given burst. Fetches
// block until the limiter admits them or their context ends.
func WithRateLimit(rps float64, burst int) Option {
	return func(f *Fetcher) {
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a Fetcher. The default client traces requests through
// otelhttp so downloads show up in spans alongside store operations.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: defaultTimeout,
		maxSize: defaultMaxSizeBytes,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Timeout:   f.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return f
}

// MaxSize returns the configured per-fetch size cap in bytes.
func (f *Fetcher) MaxSize() int64 {
	return f.maxSize
}

// Fetch retrieves the content at rawURL. file URLs read the local
// filesystem; http and https URLs are downloaded subject to the configured
// limits. The whole payload is returned in memory, which the size cap keeps
// bounded.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", rawURL, err)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait for %s: %w", rawURL, err)
		}
	}

	logger.FetchStart(rawURL)

	switch parsed.Scheme {
	case "file":
		return f.fetchFile(rawURL, parsed.Path)
	case "http", "https":
		return f.fetchHTTP(ctx, rawURL)
	default:
		return nil, fmt.Errorf("unsupported URL scheme %q in %s", parsed.Scheme, rawURL)
	}
}

func (f *Fetcher) fetchFile(rawURL, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.FetchResult(rawURL, 0, 0, err)
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if int64(len(data)) > f.maxSize {
		err := fmt.Errorf("file size %d bytes exceeds maximum %d bytes", len(data), f.maxSize)
		logger.FetchResult(rawURL, 0, int64(len(data)), err)
		return nil, err
	}

	logger.FetchResult(rawURL, 0, int64(len(data)), nil)
	return data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}

	// Hosts that captured trace headers from an inbound webhook get them
	// forwarded onto the download.
	telemetry.InjectTraceHeaders(ctx, req)

	resp, err := f.client.Do(req)
	if err != nil {
		logger.FetchResult(rawURL, 0, 0, err)
		return nil, fmt.Errorf("failed to fetch URL %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP %d fetching URL %s", resp.StatusCode, rawURL)
		logger.FetchResult(rawURL, resp.StatusCode, 0, err)
		return nil, err
	}

	// Check content length before reading
	if resp.ContentLength > 0 && resp.ContentLength > f.maxSize {
		err := fmt.Errorf("content size %d bytes exceeds maximum %d bytes", resp.ContentLength, f.maxSize)
		logger.FetchResult(rawURL, resp.StatusCode, resp.ContentLength, err)
		return nil, err
	}

	// Read with size limit; the extra byte detects oversized bodies that
	// did not declare a Content-Length.
	limitReader := io.LimitReader(resp.Body, f.maxSize+1)
	data, err := io.ReadAll(limitReader)
	if err != nil {
		logger.FetchResult(rawURL, resp.StatusCode, 0, err)
		return nil, fmt.Errorf("failed to read URL response %s: %w", rawURL, err)
	}

	if int64(len(data)) > f.maxSize {
		err := fmt.Errorf("response size %d bytes exceeds maximum %d bytes", len(data), f.maxSize)
		logger.FetchResult(rawURL, resp.StatusCode, int64(len(data)), err)
		return nil, err
	}

	logger.FetchResult(rawURL, resp.StatusCode, int64(len(data)), nil)
	return data, nil
}
