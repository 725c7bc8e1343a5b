package politeness

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// proxyEndpoint tracks one outbound proxy's health.
type proxyEndpoint struct {
	URL           *url.URL
	Failures      int
	Successes     int
	LastUsed      time.Time
	Disabled      bool
	DisabledUntil time.Time
}

// ProxyPool rotates outbound proxies and disables ones that fail
// repeatedly. Wired via SEOCRAWL_PROXY_FILE, off by default — it is an
// operational knob, not a CLI flag of its own.
type ProxyPool struct {
	mu           sync.Mutex
	proxies      []*proxyEndpoint
	currentIndex int
	maxFailures  int
	cooldown     time.Duration
}

// ProxyPoolConfig configures health-tracking thresholds.
type ProxyPoolConfig struct {
	MaxFailures int
	Cooldown    time.Duration
}

func NewProxyPool(cfg ProxyPoolConfig) *ProxyPool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &ProxyPool{maxFailures: cfg.MaxFailures, cooldown: cfg.Cooldown}
}

// LoadFile reads one proxy URL per line from path; blank lines and lines
// starting with '#' are skipped.
func (p *ProxyPool) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("politeness: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var urls []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("politeness: %w", err)
	}
	return p.Add(urls...)
}

// Add parses and appends raw proxy URL strings, defaulting to http:// when no
// scheme is given.
func (p *ProxyPool) Add(rawURLs ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, raw := range rawURLs {
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("politeness: %w", err)
		}
		p.proxies = append(p.proxies, &proxyEndpoint{URL: u})
	}
	return nil
}

// Next returns the next healthy proxy URL in round-robin order, or nil if
// the pool is empty or every proxy is cooling down.
func (p *ProxyPool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return nil
	}

	now := time.Now()
	startIndex := p.currentIndex
	for {
		prx := p.proxies[p.currentIndex]
		p.currentIndex = (p.currentIndex + 1) % len(p.proxies)

		if prx.Disabled && now.After(prx.DisabledUntil) {
			prx.Disabled = false
			prx.Failures = 0
		}
		if !prx.Disabled {
			prx.LastUsed = now
			return prx.URL
		}
		if p.currentIndex == startIndex {
			return nil
		}
	}
}

func (p *ProxyPool) MarkSuccess(proxyURL *url.URL) error {
	if proxyURL == nil {
		return errors.New("politeness: proxyURL cannot be nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	prx := p.find(proxyURL)
	if prx == nil {
		return errors.New("politeness: proxy not found in pool")
	}
	prx.Successes++
	if prx.Failures > 0 {
		prx.Failures--
	}
	return nil
}

func (p *ProxyPool) MarkFailure(proxyURL *url.URL) error {
	if proxyURL == nil {
		return errors.New("politeness: proxyURL cannot be nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	prx := p.find(proxyURL)
	if prx == nil {
		return errors.New("politeness: proxy not found in pool")
	}
	prx.Failures++
	if prx.Failures >= p.maxFailures {
		prx.Disabled = true
		prx.DisabledUntil = time.Now().Add(p.cooldown)
	}
	return nil
}

func (p *ProxyPool) find(u *url.URL) *proxyEndpoint {
	target := u.String()
	for _, prx := range p.proxies {
		if prx.URL.String() == target {
			return prx
		}
	}
	return nil
}
