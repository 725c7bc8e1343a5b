// Package sitemap discovers and parses sitemaps: it fetches sitemap and
// sitemap-index documents, recurses into child sitemaps up to a bounded
// depth, and emits URL entries (loc as written in the sitemap; callers
// normalize it) with their hreflang alternates. Uses
// the two-pass "try urlset, then index" control flow against encoding/xml,
// rather than a third-party sitemap parser, so that per-URL hreflang
// alternates survive parsing.
package sitemap

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// MaxRecursionDepth bounds sitemap-index recursion.
const MaxRecursionDepth = 3

// HreflangAlt is one <xhtml:link rel="alternate"> child of a sitemap <url>.
type HreflangAlt struct {
	Lang string
	Href string
}

// Entry is one discovered URL plus its sitemap-native metadata.
type Entry struct {
	Loc        string
	Lastmod    string
	Changefreq string
	Priority   string
	Hreflangs  []HreflangAlt
	SourceURL  string // the sitemap document this entry was discovered in
}

// Discoverer fetches and recursively parses sitemap documents.
type Discoverer struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

type Config struct {
	UserAgent string
	Timeout   time.Duration
	Logger    *slog.Logger
}

func NewDiscoverer(cfg Config) *Discoverer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{
		client:    &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// CommonLocations returns the well-known sitemap paths probed on the seed
// host alongside any sitemap locations declared in robots.txt.
func CommonLocations(baseURL string) []string {
	return []string{baseURL + "/sitemap.xml", baseURL + "/sitemap_index.xml"}
}

// Discover fetches sitemapURL and returns every URL entry found, recursing
// into nested sitemap-index children up to MaxRecursionDepth.
func (d *Discoverer) Discover(ctx context.Context, sitemapURL string) ([]Entry, error) {
	return d.discover(ctx, sitemapURL, 0)
}

func (d *Discoverer) discover(ctx context.Context, sitemapURL string, depth int) ([]Entry, error) {
	if depth > MaxRecursionDepth {
		d.logger.Warn("sitemap recursion depth exceeded, stopping", "url", sitemapURL, "depth", depth)
		return nil, nil
	}

	body, err := d.fetch(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("sitemap.Discover: %w", err)
	}

	var urlset xmlURLSet
	if err := xml.Unmarshal(body, &urlset); err == nil && len(urlset.URLs) > 0 {
		return entriesFromURLSet(urlset, sitemapURL), nil
	}

	var index xmlSitemapIndex
	if err := xml.Unmarshal(body, &index); err != nil || len(index.Sitemaps) == 0 {
		return nil, fmt.Errorf("sitemap.Discover: %s is neither a valid urlset nor a sitemap index", sitemapURL)
	}

	var all []Entry
	for _, child := range index.Sitemaps {
		if child.Loc == "" {
			continue
		}
		childEntries, err := d.discover(ctx, child.Loc, depth+1)
		if err != nil {
			d.logger.Warn("failed to fetch nested sitemap", "url", child.Loc, "err", err)
			continue
		}
		all = append(all, childEntries...)
	}
	return all, nil
}

// normalizeLangTag canonicalizes a sitemap hreflang value to its BCP 47
// form, matching the HTML hreflang normalization in internal/extractor so
// the same locale interns to one language_code row however a source
// document happens to case it. "x-default" is passed through unchanged.
func normalizeLangTag(tag string) string {
	if strings.EqualFold(tag, "x-default") {
		return "x-default"
	}
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return t.String()
}

func entriesFromURLSet(urlset xmlURLSet, sourceURL string) []Entry {
	entries := make([]Entry, 0, len(urlset.URLs))
	for _, node := range urlset.URLs {
		if node.Loc == "" {
			continue
		}
		e := Entry{
			Loc:        node.Loc,
			Lastmod:    node.Lastmod,
			Changefreq: node.Changefreq,
			Priority:   node.Priority,
			SourceURL:  sourceURL,
		}
		for _, link := range node.Links {
			if link.Rel != "alternate" || link.Hreflang == "" || link.Href == "" {
				continue
			}
			e.Hreflangs = append(e.Hreflangs, HreflangAlt{Lang: normalizeLangTag(link.Hreflang), Href: link.Href})
		}
		entries = append(entries, e)
	}
	return entries
}

func (d *Discoverer) fetch(ctx context.Context, sitemapURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// Transparently decompress gzip-encoded bodies, whether signalled by
	// Content-Encoding or gzip magic bytes.
	if looksGzipped(resp.Header.Get("Content-Encoding"), body) {
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer reader.Close()
		decoded, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		return decoded, nil
	}

	return body, nil
}

func looksGzipped(contentEncoding string, body []byte) bool {
	if contentEncoding == "gzip" {
		return true
	}
	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		return true
	}
	return false
}
