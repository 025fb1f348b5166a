package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gocolly/colly/v2"
	"github.com/pfrederiksen/hltv-stats/internal/logger"
)

const (
	BaseURL     = "https://www.hltv.org"
	UserAgent   = "hltv-stats/1.0 (github.com/pfrederiksen/hltv-stats)"
	Timeout     = 30 * time.Second
	MaxBodySize = 10 * 1024 * 1024
)

// Delay is the range of the randomized pause taken before every request.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

// DefaultDelay keeps consecutive requests between 350ms and 500ms apart.
var DefaultDelay = Delay{Min: 350 * time.Millisecond, Max: 500 * time.Millisecond}

// next draws a uniformly distributed duration in [Min, Max].
func (d Delay) next() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + time.Duration(rand.Int63n(int64(d.Max-d.Min)+1))
}

// Options configures a Fetcher. Zero values fall back to the package defaults,
// except Delay and MaxRetries where zero means "no pause" and "no retries".
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	Delay      Delay
	MaxRetries int
	Logger     *logger.Logger
	Metrics    *logger.Metrics
}

// TransportError reports a request that did not come back with 200 OK.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the request could succeed.
func (e *TransportError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Fetcher performs polite, sequential page fetches.
type Fetcher struct {
	opts  Options
	mu    sync.Mutex
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = Timeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = logger.DefaultMetrics()
	}
	opts.Logger = opts.Logger.WithFields(logger.Fields{"component": "fetcher"})

	return &Fetcher{
		opts:  opts,
		sleep: sleepContext,
	}
}

// Fetch pauses, GETs url and parses the response body. Only one request is in
// flight at a time; concurrent callers queue behind each other.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var page *Page
	attempt := func() error {
		if err := f.sleep(ctx, f.opts.Delay.next()); err != nil {
			return backoff.Permanent(err)
		}

		start := time.Now()
		p, err := f.get(ctx, url)
		f.opts.Metrics.RecordTiming("fetch", time.Since(start))
		if err != nil {
			f.opts.Metrics.IncrCounter("fetch.error")
			var te *TransportError
			if errors.As(err, &te) && te.Temporary() {
				return err
			}
			return backoff.Permanent(err)
		}

		f.opts.Metrics.IncrCounter("fetch.ok")
		page = p
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(max(f.opts.MaxRetries, 0))),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		f.opts.Logger.Warn("Retrying fetch", logger.Fields{"url": url, "wait": wait.String()})
	}
	if err := backoff.RetryNotify(attempt, policy, notify); err != nil {
		return nil, err
	}
	return page, nil
}

// get runs a single request on a fresh collector.
func (f *Fetcher) get(ctx context.Context, url string) (*Page, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.opts.UserAgent),
		colly.MaxBodySize(MaxBodySize),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(f.opts.Timeout)

	var (
		status int
		body   []byte
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	f.opts.Logger.Debug("Fetching page", logger.Fields{"url": url})
	if err := c.Visit(url); err != nil {
		return nil, &TransportError{URL: url, StatusCode: status, Err: err}
	}
	if status != http.StatusOK {
		return nil, &TransportError{URL: url, StatusCode: status}
	}

	page, err := NewPage(url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	return page, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
