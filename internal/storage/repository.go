package storage

import "context"

// Repository is the small repository API every backend (sqlite, postgres)
// implements. No raw SQL leaks to callers above this package.
type Repository interface {
	// URL Registry
	InternURL(ctx context.Context, canonical, host, scheme, classification string) (id int64, isNew bool, err error)
	GetURL(ctx context.Context, id int64) (*URLRecord, error)

	// Frontier
	FrontierInsertIfAbsent(ctx context.Context, urlID int64, depth int, parentURLID *int64) (inserted bool, err error)
	FrontierListQueued(ctx context.Context, limit int) ([]FrontierEntry, error)
	FrontierMarkDone(ctx context.Context, urlID int64) error
	FrontierReset(ctx context.Context) error
	FrontierHasQueued(ctx context.Context) (bool, error)
	FrontierCounts(ctx context.Context) (queued int, done int, err error)

	// Pages (bulky raw artifacts)
	SavePage(ctx context.Context, rec PageRecord) error
	GetPage(ctx context.Context, urlID int64) (*PageRecord, error)

	// Content
	SaveContent(ctx context.Context, rec ContentRecord) error
	GetContent(ctx context.Context, urlID int64) (*ContentRecord, error)

	// Redirects
	SaveRedirectChain(ctx context.Context, hops []RedirectHop, loopDetected bool) error
	GetRedirectChain(ctx context.Context, sourceURLID int64) ([]RedirectHop, *RedirectSummary, error)

	// Lookup table interning, used by the Extractor to normalize repeated strings
	InternAnchorText(ctx context.Context, text string) (int64, error)
	InternXPath(ctx context.Context, xpath string) (int64, error)
	InternHref(ctx context.Context, href string) (int64, error)
	InternLanguageCode(ctx context.Context, code string) (int64, error)
	InternMetaRobotsSet(ctx context.Context, tokensCSV string) (int64, error)

	// Links and hreflang, written in bounded-size batches
	SaveLinks(ctx context.Context, links []Link) error
	SaveHreflang(ctx context.Context, source HreflangSource, records []HreflangRecord) error

	// Indexability
	SaveIndexability(ctx context.Context, rec IndexabilityRecord) error
	GetIndexability(ctx context.Context, urlID int64) (*IndexabilityRecord, error)

	// Sitemap provenance
	SaveSitemapListing(ctx context.Context, listing SitemapListing) error
	CountSitemapListings(ctx context.Context) (int, error)

	// Schema metadata
	GetMeta(ctx context.Context, key string) (string, bool, error)
	SetMeta(ctx context.Context, key, value string) error

	Close() error
}
