// Package fetch retrieves raw documents for the scrapers. Every fetcher
// returns the response body as bytes; parsing belongs to the ingest packages.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// UserAgent is sent with every request. The report server and ESPN both
// reject the default Go client string.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrTransient marks failures worth retrying later: timeouts, dropped
// connections, 429 and 5xx responses.
var ErrTransient = errors.New("transient fetch failure")

// Fetcher returns the body of the document at url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// StatusError is a non-200 response.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned %d: %s", e.URL, e.Code, e.Body)
}

// Unwrap lets errors.Is(err, ErrTransient) see throttling and server errors.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusTooManyRequests || e.Code >= 500 {
		return ErrTransient
	}
	return nil
}

// IsNotFound reports whether err is a 404 from the origin.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Options tune an HTTPFetcher.
type Options struct {
	RequestsPerSecond float64
	Timeout           time.Duration
	Retries           int
	BaseBackoff       time.Duration
}

// DefaultOptions matches the pacing the report server tolerates.
func DefaultOptions() Options {
	return Options{
		RequestsPerSecond: 4,
		Timeout:           30 * time.Second,
		Retries:           3,
		BaseBackoff:       500 * time.Millisecond,
	}
}

// HTTPFetcher is a rate-limited GET client with exponential backoff on
// transient failures.
type HTTPFetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	retries    int
	backoff    time.Duration
}

// NewHTTPFetcher creates a fetcher. Zero option fields take the defaults.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	def := DefaultOptions()
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = def.RequestsPerSecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = def.BaseBackoff
	}
	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		retries:    opts.Retries,
		backoff:    opts.BaseBackoff,
	}
}

// Fetch performs a rate-limited GET, retrying transient failures.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			wait := f.backoff << (attempt - 1)
			log.Printf("[fetch] ⚠️  retry %d/%d for %s in %v: %v", attempt, f.retries, url, wait, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		body, err := f.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !errors.Is(err, ErrTransient) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if isNetworkError(err) {
			return nil, fmt.Errorf("GET %s: %v: %w", url, err, ErrTransient)
		}
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", url, err, ErrTransient)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, Code: resp.StatusCode, Body: truncate(body, 200)}
	}
	return body, nil
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
