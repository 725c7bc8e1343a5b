// Package fetcher is the bounded-concurrency HTTP client driving each fetch:
// it checks the Robots Cache, waits out the per-host delay, issues the
// request through a pluggable Backend, captures the redirect chain hop by
// hop, and retries transient failures with exponential backoff. The
// redirect policy records each hop instead of only enforcing a hop limit,
// and robots/pacing checks run here rather than being the caller's
// responsibility.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ridgeline-labs/seocrawl/internal/crawlerrors"
	"github.com/ridgeline-labs/seocrawl/internal/politeness"
	"github.com/ridgeline-labs/seocrawl/internal/robots"
)

// maxRetries and the backoff schedule retry a connection error or 5xx up to
// twice with exponential backoff (250ms, then 1s).
const maxRetries = 2

var backoffSchedule = []time.Duration{250 * time.Millisecond, 1 * time.Second}

// Hop is one redirect in a chain, in the order it was followed.
type Hop struct {
	URL        string
	StatusCode int
}

// Result is what a Backend returns for one logical fetch (following
// redirects transparently).
type Result struct {
	FinalURL      string
	StatusCode    int
	Headers       http.Header
	Body          []byte
	RedirectChain []Hop
}

// Backend is the pluggable fetch strategy: given a target URL and request
// headers, it returns the final URL, status, headers, body, and redirect
// chain of one logical fetch. The default backend uses net/http; a
// scripted-browser backend can satisfy the same interface.
type Backend interface {
	Fetch(ctx context.Context, targetURL string, headers http.Header) (*Result, error)
}

// Outcome is what Fetcher.Fetch reports to the Crawl Controller: either a
// completed Result, or a classified error to record against the URL.
type Outcome struct {
	Result            *Result
	RobotsDisallowed  bool
	RobotsUnavailable bool
	Err               error
	ErrKind           crawlerrors.Kind
}

// Config controls Fetcher construction.
type Config struct {
	Backend      Backend
	Robots       *robots.Cache
	Pacer        *politeness.Pacer
	UserAgent    string
	Timeout      time.Duration
	MaxRedirects int
	RespectRobots bool
}

// Fetcher performs single-URL fetches bounded by an external semaphore (the
// Crawl Controller owns the concurrency limit; Fetcher itself is stateless
// beyond its Backend, Robots, and Pacer dependencies).
type Fetcher struct {
	backend       Backend
	robots        *robots.Cache
	pacer         *politeness.Pacer
	userAgent     string
	respectRobots bool
}

func New(cfg Config) *Fetcher {
	backend := cfg.Backend
	if backend == nil {
		backend = NewHTTPBackend(HTTPBackendConfig{
			Timeout:      cfg.Timeout,
			MaxRedirects: cfg.MaxRedirects,
		})
	}
	return &Fetcher{
		backend:       backend,
		robots:        cfg.Robots,
		pacer:         cfg.Pacer,
		userAgent:     cfg.UserAgent,
		respectRobots: cfg.RespectRobots,
	}
}

// Fetch runs the full per-request pipeline: robots check, per-host delay,
// GET with retry, returning a classified Outcome rather than a bare error
// since most failures are recorded against the URL, not fatal.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) Outcome {
	u, err := url.Parse(targetURL)
	if err != nil {
		return Outcome{Err: err, ErrKind: crawlerrors.MalformedURL}
	}

	if f.robots != nil {
		verdict, err := f.robots.IsAllowed(ctx, targetURL)
		if err != nil {
			return Outcome{Err: err, ErrKind: crawlerrors.MalformedURL}
		}
		if !verdict.Allowed && f.respectRobots {
			return Outcome{RobotsDisallowed: true, RobotsUnavailable: verdict.Unavailable}
		}
	}

	if f.pacer != nil {
		if err := f.pacer.Wait(ctx, u.Host); err != nil {
			return Outcome{Err: err, ErrKind: crawlerrors.Timeout}
		}
	}

	headers := http.Header{}
	headers.Set("User-Agent", f.userAgent)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Encoding", "gzip, deflate")

	result, err := f.fetchWithRetry(ctx, targetURL, headers)
	if err != nil {
		return Outcome{Err: err, ErrKind: classify(err)}
	}
	return Outcome{Result: result}
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, targetURL string, headers http.Header) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoffSchedule[attempt-1]
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := f.backend.Fetch(ctx, targetURL, headers)
		if err == nil {
			if result.StatusCode >= 500 && attempt < maxRetries {
				lastErr = fmt.Errorf("fetcher: server error status %d", result.StatusCode)
				continue
			}
			return result, nil
		}

		lastErr = err
		if !isRetryable(err) || attempt == maxRetries {
			return nil, err
		}
	}
	return nil, lastErr
}

func isRetryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

func classify(err error) crawlerrors.Kind {
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return crawlerrors.Timeout
		}
		return crawlerrors.NetworkError
	}
	return crawlerrors.NetworkError
}
