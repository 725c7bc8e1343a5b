// Package robots is the Robots Cache: per-host robots.txt fetch, parse, and
// rule evaluation, cached for the lifetime of the process. A standalone
// component used by the Fetcher and by the Crawl Controller (for declared
// sitemaps).
package robots

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// hostEntry is the cached verdict state for one host.
type hostEntry struct {
	data      *robotstxt.RobotsData
	available bool // false if fetch/parse failed — host's robots.txt is treated as unknown
}

// Cache fetches, parses, and evaluates robots.txt, keyed by host, for the
// lifetime of the process.
type Cache struct {
	client       *http.Client
	userAgent    string
	ignoreRobots bool
	logger       *slog.Logger

	mu      sync.RWMutex
	entries map[string]*hostEntry
}

// Config controls Cache behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	IgnoreRobots bool
	Logger       *slog.Logger
}

func NewCache(cfg Config) *Cache {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		client:       &http.Client{Timeout: timeout},
		userAgent:    cfg.UserAgent,
		ignoreRobots: cfg.IgnoreRobots,
		logger:       logger,
		entries:      make(map[string]*hostEntry),
	}
}

// Verdict is the outcome of an IsAllowed check, including whether the
// underlying robots.txt was actually available (surfaced downstream as a
// robots_txt_unavailable indexability reason).
type Verdict struct {
	Allowed     bool
	Unavailable bool
}

// IsAllowed evaluates rawURL against the cached robots.txt for its host,
// picking the most specific matching user-agent group. A fetch failure marks
// the host unknown: permissive when IgnoreRobots is set, otherwise
// permissive-for-this-session but reported Unavailable.
func (c *Cache) IsAllowed(ctx context.Context, rawURL string) (Verdict, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Verdict{}, fmt.Errorf("robots.IsAllowed: %w", err)
	}

	entry := c.getOrFetch(ctx, u.Scheme, u.Host)
	if !entry.available {
		return Verdict{Allowed: true, Unavailable: !c.ignoreRobots}, nil
	}

	group := entry.data.FindGroup(c.userAgent)
	path := u.Path
	if path == "" {
		path = "/"
	}
	return Verdict{Allowed: group.Test(path)}, nil
}

// Sitemaps returns the `Sitemap:` directives declared in host's robots.txt,
// or nil if robots.txt was unavailable.
func (c *Cache) Sitemaps(ctx context.Context, scheme, host string) []string {
	entry := c.getOrFetch(ctx, scheme, host)
	if !entry.available {
		return nil
	}
	return entry.data.Sitemaps
}

func (c *Cache) getOrFetch(ctx context.Context, scheme, host string) *hostEntry {
	key := scheme + "://" + host

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return entry
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		return entry
	}

	entry = c.fetch(ctx, key)
	c.entries[key] = entry
	return entry
}

func (c *Cache) fetch(ctx context.Context, base string) *hostEntry {
	robotsURL := base + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		c.logger.Debug("robots.txt request build failed", "url", robotsURL, "err", err)
		return &hostEntry{available: false}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("robots.txt fetch failed, host marked unknown", "url", robotsURL, "err", err)
		return &hostEntry{available: false}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.logger.Debug("robots.txt returned error status, host marked unknown", "url", robotsURL, "status", resp.StatusCode)
		return &hostEntry{available: false}
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		c.logger.Debug("robots.txt parse failed, host marked unknown", "url", robotsURL, "err", err)
		return &hostEntry{available: false}
	}

	return &hostEntry{data: data, available: true}
}
