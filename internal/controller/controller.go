// Package controller is the Crawl Controller: it seeds the frontier, runs
// sitemap discovery, drives a bounded fetch-worker pool against the
// persistent frontier until it drains or a global limit is hit, and
// produces the exit summary. The worker pool is errgroup-bounded and
// polls a database-backed frontier rather than an in-memory BFS channel,
// so queued work survives a process restart.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ridgeline-labs/seocrawl/internal/bypass"
	"github.com/ridgeline-labs/seocrawl/internal/crawlerrors"
	"github.com/ridgeline-labs/seocrawl/internal/extractor"
	"github.com/ridgeline-labs/seocrawl/internal/fetcher"
	"github.com/ridgeline-labs/seocrawl/internal/frontier"
	"github.com/ridgeline-labs/seocrawl/internal/indexability"
	"github.com/ridgeline-labs/seocrawl/internal/metrics"
	"github.com/ridgeline-labs/seocrawl/internal/report"
	"github.com/ridgeline-labs/seocrawl/internal/robots"
	"github.com/ridgeline-labs/seocrawl/internal/sitemap"
	"github.com/ridgeline-labs/seocrawl/internal/storage"
	"github.com/ridgeline-labs/seocrawl/internal/storage/blob"
	"github.com/ridgeline-labs/seocrawl/internal/urlnorm"
	"golang.org/x/sync/errgroup"
)

// leaseBatchSize bounds how many frontier rows are leased per poll; kept
// small relative to Concurrency so leasing stays responsive to newly
// enqueued children rather than draining the whole queue into one batch.
const leaseBatchSize = 16

// pollInterval is how long the main loop waits before re-checking the
// frontier after an empty lease.
const pollInterval = 200 * time.Millisecond

// Options carries every knob the Controller needs that is not itself a
// constructed dependency (those live in Deps).
type Options struct {
	MaxPages           int
	Offsite            bool
	SameHostOnly       bool
	Concurrency        int
	SkipRobotsSitemaps bool
	SkipSitemaps       bool
	MetricsEnabled     bool
}

// Deps are the already-constructed components the Controller wires
// together. Every field is required; Prometheus metrics go through the
// metrics package's collectors, and only when Options.MetricsEnabled is set.
type Deps struct {
	Repo     storage.Repository
	Frontier *frontier.Frontier
	Robots   *robots.Cache
	Sitemaps *sitemap.Discoverer
	Fetcher  *fetcher.Fetcher
	Tracker  *report.Tracker
	Logger   *slog.Logger
}

// Controller runs one crawl from a single seed URL to completion.
type Controller struct {
	deps     Deps
	opts     Options
	normOpts urlnorm.Options
	runID    string

	pagesFetched atomic.Int64
}

// New constructs a Controller. normOpts.SeedHosts should already contain the
// seed's host; callers typically derive it by normalizing the seed URL
// before calling New.
func New(deps Deps, opts Options, normOpts urlnorm.Options) *Controller {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Controller{deps: deps, opts: opts, normOpts: normOpts, runID: uuid.New().String()}
}

// Run seeds the frontier from seedURL, discovers sitemaps unless disabled,
// then drives the worker pool until the frontier drains, the context is
// canceled, or MaxPages is reached. It always returns a Summary, even on
// error, reflecting whatever was completed before the failure.
func (c *Controller) Run(ctx context.Context, seedURL string) (report.Summary, error) {
	c.deps.Logger.Info("crawl starting", "run_id", c.runID, "seed", seedURL)

	seed, err := urlnorm.Normalize(seedURL, nil, c.normOpts)
	if err != nil {
		return c.snapshot(ctx), fmt.Errorf("controller: invalid seed: %w", err)
	}

	seedID, _, err := c.deps.Repo.InternURL(ctx, seed.Canonical, seed.Host, seed.Scheme, string(seed.Class))
	if err != nil {
		return c.snapshot(ctx), fmt.Errorf("controller: intern seed: %w", err)
	}
	if _, err := c.deps.Frontier.Enqueue(ctx, seedID, 0, nil); err != nil {
		return c.snapshot(ctx), fmt.Errorf("controller: enqueue seed: %w", err)
	}

	if !c.opts.SkipSitemaps {
		c.discoverSitemaps(ctx, seed)
	}

	if err := c.drain(ctx); err != nil {
		return c.snapshot(ctx), err
	}
	return c.snapshot(ctx), nil
}

func (c *Controller) snapshot(ctx context.Context) report.Summary {
	queued, _, err := c.deps.Frontier.Counts(ctx)
	if err != nil {
		queued = 0
	}
	summary := c.deps.Tracker.Snapshot(queued)
	summary.RunID = c.runID
	return summary
}

// discoverSitemaps probes robots.txt-declared sitemaps (unless
// SkipRobotsSitemaps) and the well-known locations, enqueuing every
// discovered URL at depth 0: sitemap-sourced URLs are treated as additional
// seeds, not as children of whatever linked to the sitemap.
func (c *Controller) discoverSitemaps(ctx context.Context, seed urlnorm.Normalized) {
	base := seed.Scheme + "://" + seed.Host
	var candidates []string

	if !c.opts.SkipRobotsSitemaps {
		candidates = append(candidates, c.deps.Robots.Sitemaps(ctx, seed.Scheme, seed.Host)...)
	}
	seen := make(map[string]bool, len(candidates))
	for _, u := range candidates {
		seen[u] = true
	}
	for _, u := range sitemap.CommonLocations(base) {
		if !seen[u] {
			candidates = append(candidates, u)
		}
	}

	for _, sitemapURL := range candidates {
		entries, err := c.deps.Sitemaps.Discover(ctx, sitemapURL)
		if err != nil {
			c.deps.Logger.Debug("sitemap discovery failed", "url", sitemapURL, "err", err)
			continue
		}

		sitemapNorm, err := urlnorm.Normalize(sitemapURL, nil, c.normOpts)
		if err != nil {
			continue
		}
		sitemapID, _, err := c.deps.Repo.InternURL(ctx, sitemapNorm.Canonical, sitemapNorm.Host, sitemapNorm.Scheme, string(sitemapNorm.Class))
		if err != nil {
			continue
		}

		for _, entry := range entries {
			c.enqueueDiscovered(ctx, entry.Loc, 0, nil)
			// record sitemap provenance regardless of whether the URL was
			// new or already known
			if norm, err := urlnorm.Normalize(entry.Loc, nil, c.normOpts); err == nil {
				if urlID, _, err := c.deps.Repo.InternURL(ctx, norm.Canonical, norm.Host, norm.Scheme, string(norm.Class)); err == nil {
					_ = c.deps.Repo.SaveSitemapListing(ctx, storage.SitemapListing{
						URLID:        urlID,
						SitemapURLID: sitemapID,
						DiscoveredAt: time.Now().UTC(),
					})
				}
			}
			for _, alt := range entry.Hreflangs {
				c.internHreflangSitemap(ctx, entry.Loc, alt)
			}
		}
	}
}

func (c *Controller) internHreflangSitemap(ctx context.Context, locURL string, alt sitemap.HreflangAlt) {
	norm, err := urlnorm.Normalize(locURL, nil, c.normOpts)
	if err != nil {
		return
	}
	urlID, _, err := c.deps.Repo.InternURL(ctx, norm.Canonical, norm.Host, norm.Scheme, string(norm.Class))
	if err != nil {
		return
	}
	altNorm, err := urlnorm.Normalize(alt.Href, nil, c.normOpts)
	if err != nil {
		return
	}
	hrefID, _, err := c.deps.Repo.InternURL(ctx, altNorm.Canonical, altNorm.Host, altNorm.Scheme, string(altNorm.Class))
	if err != nil {
		return
	}
	langID, err := c.deps.Repo.InternLanguageCode(ctx, alt.Lang)
	if err != nil {
		return
	}
	_ = c.deps.Repo.SaveHreflang(ctx, storage.HreflangSitemap, []storage.HreflangRecord{
		{URLID: urlID, LanguageCodeID: langID, HrefURLID: hrefID},
	})
}

// drain runs Concurrency fetch workers against the frontier until it is
// empty, MaxPages is hit, or ctx is canceled.
func (c *Controller) drain(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for {
		if gctx.Err() != nil {
			break
		}
		if c.opts.MaxPages > 0 && c.pagesFetched.Load() >= int64(c.opts.MaxPages) {
			break
		}

		entries, err := c.deps.Frontier.Lease(gctx, leaseBatchSize)
		if err != nil {
			return fmt.Errorf("controller: lease: %w", err)
		}
		if len(entries) == 0 {
			hasQueued, err := c.deps.Frontier.HasQueued(gctx)
			if err != nil {
				return fmt.Errorf("controller: check frontier: %w", err)
			}
			if !hasQueued {
				break
			}
			select {
			case <-time.After(pollInterval):
			case <-gctx.Done():
			}
			continue
		}

		for _, e := range entries {
			entry := e
			g.Go(func() error {
				c.processEntry(gctx, entry)
				return nil
			})
		}
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("controller: %w", err)
	}
	return nil
}

// processEntry fetches, extracts, evaluates, and persists everything
// derived from one frontier row, then marks it done. Per-URL failures are
// recorded against the URL rather than propagated — storage errors below
// are logged and swallowed the same way, since a single bad write must not
// abort the run.
func (c *Controller) processEntry(ctx context.Context, entry storage.FrontierEntry) {
	defer func() {
		if err := c.deps.Frontier.Complete(ctx, entry.URLID); err != nil {
			c.deps.Logger.Warn("frontier complete failed", "url_id", entry.URLID, "err", err)
		}
	}()

	rec, err := c.deps.Repo.GetURL(ctx, entry.URLID)
	if err != nil {
		c.deps.Logger.Warn("lookup url failed", "url_id", entry.URLID, "err", err)
		return
	}

	fetchStart := time.Now()
	outcome := c.deps.Fetcher.Fetch(ctx, rec.Canonical)
	c.pagesFetched.Add(1)

	if outcome.RobotsDisallowed {
		c.deps.Tracker.RecordFetch(0, 0)
		rec := indexability.Evaluate(indexability.Input{
			RobotsAllowed:     false,
			RobotsUnavailable: outcome.RobotsUnavailable,
		})
		rec.URLID = entry.URLID
		_ = c.deps.Repo.SaveIndexability(ctx, rec)
		return
	}

	if outcome.Err != nil {
		c.deps.Tracker.RecordError(string(outcome.ErrKind))
		c.deps.Tracker.RecordFetch(0, 0)
		rec := indexability.Evaluate(indexability.Input{
			StatusCode:    0,
			RobotsAllowed: true,
		})
		rec.URLID = entry.URLID
		_ = c.deps.Repo.SaveIndexability(ctx, rec)
		return
	}

	result := outcome.Result
	elapsed := time.Since(fetchStart).Seconds()
	c.deps.Tracker.RecordFetch(result.StatusCode, len(result.Body))

	detected, source := bypass.Detect(result.StatusCode, result.Headers, result.Body, bypass.DefaultDetectors())
	if detected {
		c.deps.Tracker.RecordChallenge(source)
	}
	if c.opts.MetricsEnabled {
		metrics.RecordFetch(rec.Host, result.StatusCode, elapsed, len(result.Body), source)
	}

	c.savePage(ctx, entry.URLID, result)
	c.saveRedirects(ctx, entry.URLID, result)

	if len(result.Body) == 0 || result.StatusCode < 200 || result.StatusCode >= 300 {
		badRec := indexability.Evaluate(indexability.Input{
			StatusCode:    result.StatusCode,
			Headers:       result.Headers,
			Body:          result.Body,
			RobotsAllowed: true,
		})
		badRec.URLID = entry.URLID
		_ = c.deps.Repo.SaveIndexability(ctx, badRec)
		return
	}

	extracted, err := extractor.Extract(result.Body, result.FinalURL, c.normOpts)
	if err != nil {
		c.deps.Tracker.RecordError(string(crawlerrors.ParseError))
		return
	}

	c.saveContent(ctx, entry.URLID, extracted)
	c.saveIndexability(ctx, entry.URLID, result, extracted)
	c.saveLinksAndEnqueue(ctx, entry, extracted)
}

func (c *Controller) savePage(ctx context.Context, urlID int64, result *fetcher.Result) {
	headerBytes, err := blob.Compress(serializeHeaders(result.Headers))
	if err != nil {
		c.deps.Logger.Warn("compress headers failed", "url_id", urlID, "err", err)
		return
	}
	bodyBytes, err := blob.Compress(result.Body)
	if err != nil {
		c.deps.Logger.Warn("compress body failed", "url_id", urlID, "err", err)
		return
	}
	err = c.deps.Repo.SavePage(ctx, storage.PageRecord{
		URLID:           urlID,
		FinalStatusCode: result.StatusCode,
		FetchedAt:       time.Now().UTC(),
		HeadersCompBlob: headerBytes,
		BodyCompBlob:    bodyBytes,
		ContentType:     result.Headers.Get("Content-Type"),
		Encoding:        result.Headers.Get("Content-Encoding"),
	})
	if err != nil {
		c.deps.Logger.Warn("save page failed", "url_id", urlID, "err", err)
	}
}

func (c *Controller) saveRedirects(ctx context.Context, sourceURLID int64, result *fetcher.Result) {
	if len(result.RedirectChain) == 0 {
		return
	}
	seen := map[string]bool{}
	loopDetected := false
	hops := make([]storage.RedirectHop, 0, len(result.RedirectChain))
	for i, hop := range result.RedirectChain {
		if seen[hop.URL] {
			loopDetected = true
		}
		seen[hop.URL] = true

		norm, err := urlnorm.Normalize(hop.URL, nil, c.normOpts)
		if err != nil {
			continue
		}
		targetID, _, err := c.deps.Repo.InternURL(ctx, norm.Canonical, norm.Host, norm.Scheme, string(norm.Class))
		if err != nil {
			continue
		}
		hops = append(hops, storage.RedirectHop{
			SourceURLID: sourceURLID,
			HopIndex:    i,
			TargetURLID: targetID,
			StatusCode:  hop.StatusCode,
		})
	}
	if err := c.deps.Repo.SaveRedirectChain(ctx, hops, loopDetected); err != nil {
		c.deps.Logger.Warn("save redirect chain failed", "url_id", sourceURLID, "err", err)
	}
}

func (c *Controller) saveContent(ctx context.Context, urlID int64, ext extractor.Result) {
	rec := storage.ContentRecord{
		URLID:             urlID,
		Title:             ext.Title,
		MetaDescription:   ext.MetaDescription,
		H1Count:           ext.H1Count,
		H2Count:           ext.H2Count,
		FirstH1:           ext.FirstH1,
		FirstH2:           ext.FirstH2,
		WordCount:         ext.WordCount,
		InternalLinkCount: ext.InternalLinkCount,
		ExternalLinkCount: ext.ExternalLinkCount,
	}

	if ext.CanonicalURL != nil {
		if id, _, err := c.deps.Repo.InternURL(ctx, ext.CanonicalURL.Canonical, ext.CanonicalURL.Host, ext.CanonicalURL.Scheme, string(ext.CanonicalURL.Class)); err == nil {
			rec.CanonicalURLID = &id
		}
	}
	if len(ext.MetaRobotsTokens) > 0 {
		if id, err := c.deps.Repo.InternMetaRobotsSet(ctx, strings.Join(ext.MetaRobotsTokens, ",")); err == nil {
			rec.MetaRobotsID = &id
		}
	}

	if err := c.deps.Repo.SaveContent(ctx, rec); err != nil {
		c.deps.Logger.Warn("save content failed", "url_id", urlID, "err", err)
	}

	for _, hreflang := range ext.HreflangHTML {
		c.saveHreflangHTML(ctx, urlID, hreflang)
	}
}

func (c *Controller) saveHreflangHTML(ctx context.Context, urlID int64, h extractor.HreflangHTML) {
	norm, err := urlnorm.Normalize(h.Href, nil, c.normOpts)
	if err != nil {
		return
	}
	hrefID, _, err := c.deps.Repo.InternURL(ctx, norm.Canonical, norm.Host, norm.Scheme, string(norm.Class))
	if err != nil {
		return
	}
	langID, err := c.deps.Repo.InternLanguageCode(ctx, h.Lang)
	if err != nil {
		return
	}
	_ = c.deps.Repo.SaveHreflang(ctx, storage.HreflangHTML, []storage.HreflangRecord{
		{URLID: urlID, LanguageCodeID: langID, HrefURLID: hrefID},
	})
}

func (c *Controller) saveIndexability(ctx context.Context, urlID int64, result *fetcher.Result, ext extractor.Result) {
	robotsVerdict, robotsErr := c.deps.Robots.IsAllowed(ctx, result.FinalURL)
	in := indexability.Input{
		StatusCode:        result.StatusCode,
		Headers:           result.Headers,
		Body:              result.Body,
		RobotsAllowed:     robotsErr == nil && robotsVerdict.Allowed,
		RobotsUnavailable: robotsVerdict.Unavailable,
		MetaRobotsTokens:  ext.MetaRobotsTokens,
	}
	rec := indexability.Evaluate(in)
	rec.URLID = urlID
	if err := c.deps.Repo.SaveIndexability(ctx, rec); err != nil {
		c.deps.Logger.Warn("save indexability failed", "url_id", urlID, "err", err)
	}
}

// saveLinksAndEnqueue interns every anchor target, writes the link
// inventory, and enqueues internal (or, with --offsite, any) http(s) targets
// as frontier children one depth below entry.
func (c *Controller) saveLinksAndEnqueue(ctx context.Context, entry storage.FrontierEntry, ext extractor.Result) {
	if len(ext.Anchors) == 0 {
		return
	}
	links := make([]storage.Link, 0, len(ext.Anchors))
	childDepth := entry.Depth + 1

	for _, a := range ext.Anchors {
		targetID, _, err := c.deps.Repo.InternURL(ctx, a.Target.Canonical, a.Target.Host, a.Target.Scheme, string(a.Target.Class))
		if err != nil {
			continue
		}

		anchorTextID, err := c.deps.Repo.InternAnchorText(ctx, a.AnchorText)
		if err != nil {
			continue
		}
		xpathID, err := c.deps.Repo.InternXPath(ctx, a.XPath)
		if err != nil {
			continue
		}
		hrefID, err := c.deps.Repo.InternHref(ctx, a.RawHref)
		if err != nil {
			continue
		}

		kind := storage.LinkExternal
		if a.Target.Class == urlnorm.ClassInternal {
			kind = storage.LinkInternal
		}
		links = append(links, storage.Link{
			SourceURLID:  entry.URLID,
			TargetURLID:  targetID,
			AnchorTextID: anchorTextID,
			XPathID:      xpathID,
			HrefID:       hrefID,
			RelFlags:     strings.Join(a.RelTokens, ","),
			Kind:         kind,
		})

		restrictToSeedHost := c.opts.SameHostOnly && !c.opts.Offsite
		fetchable := a.Target.Scheme == "http" || a.Target.Scheme == "https"
		if fetchable && (a.Target.Class == urlnorm.ClassInternal || !restrictToSeedHost) {
			if _, err := c.deps.Frontier.Enqueue(ctx, targetID, childDepth, &entry.URLID); err != nil {
				c.deps.Logger.Debug("enqueue child failed", "target_url_id", targetID, "err", err)
			}
		}
	}

	if err := c.deps.Repo.SaveLinks(ctx, links); err != nil {
		c.deps.Logger.Warn("save links failed", "url_id", entry.URLID, "err", err)
	}
}

// enqueueDiscovered normalizes, interns, and enqueues a raw URL discovered
// outside the anchor-extraction path (sitemap entries).
func (c *Controller) enqueueDiscovered(ctx context.Context, rawURL string, depth int, parentURLID *int64) {
	norm, err := urlnorm.Normalize(rawURL, nil, c.normOpts)
	if err != nil {
		return
	}
	if norm.Scheme != "http" && norm.Scheme != "https" {
		return
	}
	if norm.Class != urlnorm.ClassInternal && c.opts.SameHostOnly && !c.opts.Offsite {
		return
	}
	urlID, _, err := c.deps.Repo.InternURL(ctx, norm.Canonical, norm.Host, norm.Scheme, string(norm.Class))
	if err != nil {
		return
	}
	if _, err := c.deps.Frontier.Enqueue(ctx, urlID, depth, parentURLID); err != nil {
		c.deps.Logger.Debug("enqueue sitemap url failed", "url", rawURL, "err", err)
	}
}

// serializeHeaders renders an http.Header as plain "Key: v1, v2" lines, the
// simplest format blob.Compress can round-trip without pulling in a second
// encoding for what is, on disk, write-only audit data.
func serializeHeaders(h map[string][]string) []byte {
	var b strings.Builder
	for k, vs := range h {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strings.Join(vs, ", "))
		b.WriteString("\n")
	}
	return []byte(b.String())
}
