// Package storage defines the repository contract the crawl engine is built
// against, plus the write-serialization policy shared by every backend.
// Two physically separate schemas are modeled here as a single Go interface:
// "pages" methods (SavePage/GetPage) hold the bulky raw artifacts, every
// other method is "crawl" normalized metadata.
package storage

import "time"

// URLRecord is the immutable identity record assigned to a normalized URL
// on first sighting.
type URLRecord struct {
	ID             int64
	Canonical      string
	Host           string
	Scheme         string
	Classification string
}

// FrontierStatus is the lifecycle state of a frontier row.
type FrontierStatus string

const (
	FrontierQueued FrontierStatus = "queued"
	FrontierDone   FrontierStatus = "done"
)

// FrontierEntry is one row of the persistent crawl queue.
type FrontierEntry struct {
	URLID       int64
	Depth       int
	ParentURLID *int64
	Status      FrontierStatus
	EnqueuedAt  time.Time
	UpdatedAt   time.Time
}

// PageRecord holds the raw bytes captured for a single fetch. Headers and
// Body are the zlib-compressed wire bytes (see internal/storage/blob); they
// are never decompressed by the repository layer itself.
type PageRecord struct {
	URLID            int64
	FinalStatusCode  int
	FetchedAt        time.Time
	HeadersCompBlob  []byte
	BodyCompBlob     []byte
	ContentType      string
	Encoding         string
}

// ContentRecord is the structural SEO content derived by the Extractor.
type ContentRecord struct {
	URLID             int64
	Title             string
	MetaDescription   string
	H1Count           int
	H2Count           int
	FirstH1           string
	FirstH2           string
	WordCount         int
	CanonicalURLID    *int64
	MetaRobotsID      *int64
	InternalLinkCount int
	ExternalLinkCount int
}

// RedirectHop is a single 3xx hop in a redirect chain.
type RedirectHop struct {
	SourceURLID int64
	HopIndex    int
	TargetURLID int64
	StatusCode  int
}

// RedirectSummary is the materialized, O(1)-lookup view of a redirect chain.
type RedirectSummary struct {
	SourceURLID      int64
	ChainLength      int
	FinalStatusCode  int
	FinalTargetURLID int64
	LoopDetected     bool
}

// LinkKind distinguishes internal from external outbound links without
// re-deriving classification from the URL at query time.
type LinkKind string

const (
	LinkInternal LinkKind = "internal"
	LinkExternal LinkKind = "external"
)

// Link is one normalized anchor-inventory row.
type Link struct {
	SourceURLID  int64
	TargetURLID  int64
	AnchorTextID int64
	XPathID      int64
	HrefID       int64
	RelFlags     string
	Kind         LinkKind
}

// HreflangSource distinguishes the three provenances of hreflang data.
type HreflangSource string

const (
	HreflangSitemap HreflangSource = "sitemap"
	HreflangHeader  HreflangSource = "header"
	HreflangHTML    HreflangSource = "html"
)

// HreflangRecord links a URL to a language alternate.
type HreflangRecord struct {
	URLID          int64
	LanguageCodeID int64
	HrefURLID      int64
}

// IndexabilityRecord is the composite crawlability verdict for a URL.
type IndexabilityRecord struct {
	URLID            int64
	RobotsTxtAllows  bool
	HTMLMetaAllows   bool
	HTTPHeaderAllows bool
	OverallIndexable bool
	ReasonsBitmap    uint32
}

// Indexability reason bits, recorded in ReasonsBitmap so downstream queries
// can explain a verdict without re-deriving it.
const (
	ReasonRobotsDisallow     uint32 = 1 << 0
	ReasonRobotsUnavailable  uint32 = 1 << 1
	ReasonMetaNoindex        uint32 = 1 << 2
	ReasonHeaderNoindex      uint32 = 1 << 3
	ReasonBadStatus          uint32 = 1 << 4
	ReasonChallengePage      uint32 = 1 << 5
)

// SitemapListing is the provenance record of a URL discovered via a sitemap.
type SitemapListing struct {
	URLID        int64
	SitemapURLID int64
	DiscoveredAt time.Time
}

// SchemaVersion is written to the meta(key,value) table of both databases on
// first open and checked on every subsequent open.
const SchemaVersion = "1"
