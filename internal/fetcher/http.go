// Package fetcher retrieves and parses municipal open-data files: HTTP
// and FTP downloads, CSV and XLSX registries, XML feeds.
package fetcher

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	RateLimiters map[string]*rate.Limiter // per host
}

// HTTPFetcher downloads open-data files with per-host rate limiting and
// jittered retry. Municipal portals are slow and flaky; a handful of
// retries with backoff is usually enough.
type HTTPFetcher struct {
	client   *http.Client
	opts     HTTPOptions
	limiters map[string]*rate.Limiter
	fallback *rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "urbanaccess/1.0"
	}
	limiters := make(map[string]*rate.Limiter, len(opts.RateLimiters))
	for k, v := range opts.RateLimiters {
		limiters[k] = v
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: opts.Timeout},
		opts:     opts,
		limiters: limiters,
		fallback: rate.NewLimiter(10, 10),
	}
}

func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return f.fallback
	}
	if lim, ok := f.limiters[u.Host]; ok {
		return lim
	}
	return f.fallback
}

// Fetch GETs a URL and returns the response body. The caller must close
// the returned ReadCloser.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	var lastErr error
	for attempt := range f.opts.MaxRetries {
		if err := f.limiterFor(rawURL).Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: build request for %s", rawURL)
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			zap.L().Warn("fetcher: request failed, retrying",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			f.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("fetcher: %s returned %d", rawURL, resp.StatusCode)
			f.backoff(ctx, attempt)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, eris.Errorf("fetcher: %s returned %d", rawURL, resp.StatusCode)
		}

		return resp.Body, nil
	}
	return nil, eris.Wrapf(lastErr, "fetcher: %s failed after %d attempts", rawURL, f.opts.MaxRetries)
}

// Download fetches a URL into destPath, creating parent directories.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL, destPath string) error {
	body, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return eris.Wrapf(err, "fetcher: create dir for %s", destPath)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return eris.Wrapf(err, "fetcher: create %s", destPath)
	}
	defer func() { _ = out.Close() }()

	n, err := io.Copy(out, body)
	if err != nil {
		return eris.Wrapf(err, "fetcher: write %s", destPath)
	}

	zap.L().Info("fetcher: downloaded",
		zap.String("url", rawURL),
		zap.String("dest", destPath),
		zap.Int64("bytes", n),
	)
	return nil
}

// backoff sleeps exponentially with jitter, honoring context cancellation.
func (f *HTTPFetcher) backoff(ctx context.Context, attempt int) {
	base := time.Duration(math.Pow(2, float64(attempt))) * 500 * time.Millisecond
	jitter := time.Duration(rand.Int64N(int64(250 * time.Millisecond)))
	select {
	case <-time.After(base + jitter):
	case <-ctx.Done():
	}
}
