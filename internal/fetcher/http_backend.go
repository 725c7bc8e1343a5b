package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ridgeline-labs/seocrawl/internal/fingerprint"
	"github.com/ridgeline-labs/seocrawl/internal/politeness"
)

const defaultMaxRedirects = 10

// HTTPBackendConfig controls the default net/http-based Backend.
type HTTPBackendConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	Fingerprint  fingerprint.Profile
	ProxyPool    *politeness.ProxyPool
}

// HTTPBackend is the default Backend: a plain net/http.Client whose
// CheckRedirect stops automatic redirect following so that Fetch can follow
// and record every hop itself, and whose Transport optionally carries a uTLS
// fingerprint.
type HTTPBackend struct {
	client       *http.Client
	maxRedirects int
}

func NewHTTPBackend(cfg HTTPBackendConfig) *HTTPBackend {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = defaultMaxRedirects
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileGo
	}

	b := &HTTPBackend{maxRedirects: cfg.MaxRedirects}

	proxyFunc := http.ProxyFromEnvironment
	if cfg.ProxyPool != nil {
		proxyFunc = func(req *http.Request) (*url.URL, error) {
			if p := cfg.ProxyPool.Next(); p != nil {
				return p, nil
			}
			return nil, nil
		}
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		// Fall back to an unfingerprinted transport rather than fail
		// construction over a cosmetic TLS ClientHello choice.
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	// Redirects are followed by hand in Fetch rather than by http.Client, so
	// that every hop's URL and status code can be recorded as a redirect row.
	// http.Client's CheckRedirect only sees requests, not the status code
	// that triggered each one.
	b.client = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return b
}

// Fetch issues a GET, following redirects itself up to maxRedirects and
// recording each hop.
func (b *HTTPBackend) Fetch(ctx context.Context, targetURL string, headers http.Header) (*Result, error) {
	var hops []Hop
	currentURL := targetURL

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, currentURL, nil)
		if err != nil {
			return nil, fmt.Errorf("fetcher: %w", err)
		}
		req.Header = headers.Clone()

		resp, err := b.client.Do(req)
		if err != nil {
			return nil, err
		}

		if isRedirectStatus(resp.StatusCode) {
			location := resp.Header.Get("Location")
			statusCode, respHeaders := resp.StatusCode, resp.Header
			resp.Body.Close()
			if location == "" || len(hops) >= b.maxRedirects {
				return &Result{FinalURL: currentURL, StatusCode: statusCode, Headers: respHeaders, RedirectChain: hops}, nil
			}
			next, err := req.URL.Parse(location)
			if err != nil {
				return nil, fmt.Errorf("fetcher: redirect Location: %w", err)
			}
			hops = append(hops, Hop{URL: next.String(), StatusCode: resp.StatusCode})
			currentURL = next.String()
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("fetcher: reading body: %w", err)
		}

		return &Result{
			FinalURL:      currentURL,
			StatusCode:    resp.StatusCode,
			Headers:       resp.Header,
			Body:          body,
			RedirectChain: hops,
		}, nil
	}
}

func isRedirectStatus(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
