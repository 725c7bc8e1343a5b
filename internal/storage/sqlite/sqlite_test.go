package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		PagesPath: filepath.Join(dir, "pages.db"),
		CrawlPath: filepath.Join(dir, "crawl.db"),
		Writers:   2,
		QueueSize: 64,
	}
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func internURL(t *testing.T, s *Store, canonical string) int64 {
	t.Helper()
	id, _, err := s.InternURL(context.Background(), canonical, "example.com", "https", "internal")
	if err != nil {
		t.Fatalf("InternURL(%s): %v", canonical, err)
	}
	return id
}

func TestInternURL_DedupesByCanonical(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, isNew1, err := s.InternURL(ctx, "https://example.com/", "example.com", "https", "internal")
	if err != nil {
		t.Fatalf("InternURL: %v", err)
	}
	if !isNew1 {
		t.Error("expected first intern to report isNew=true")
	}

	id2, isNew2, err := s.InternURL(ctx, "https://example.com/", "example.com", "https", "internal")
	if err != nil {
		t.Fatalf("InternURL (second): %v", err)
	}
	if isNew2 {
		t.Error("expected second intern of the same canonical to report isNew=false")
	}
	if id1 != id2 {
		t.Fatalf("expected same id for repeated intern, got %d and %d", id1, id2)
	}
}

func TestFrontier_QueuedOrdersByEnqueueTime(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ids := []int64{
		internURL(t, s, "https://example.com/a"),
		internURL(t, s, "https://example.com/b"),
		internURL(t, s, "https://example.com/c"),
	}

	for _, id := range ids {
		if _, err := s.FrontierInsertIfAbsent(ctx, id, 0, nil); err != nil {
			t.Fatalf("FrontierInsertIfAbsent: %v", err)
		}
	}

	queued, err := s.FrontierListQueued(ctx, 10)
	if err != nil {
		t.Fatalf("FrontierListQueued: %v", err)
	}
	if len(queued) != 3 {
		t.Fatalf("expected 3 queued entries, got %d", len(queued))
	}
	for i, entry := range queued {
		if entry.URLID != ids[i] {
			t.Errorf("entry %d: expected url_id %d, got %d", i, ids[i], entry.URLID)
		}
		if entry.Status != storage.FrontierQueued {
			t.Errorf("entry %d: expected status queued, got %s", i, entry.Status)
		}
	}
}

func TestFrontier_InsertIfAbsentIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := internURL(t, s, "https://example.com/")

	inserted1, err := s.FrontierInsertIfAbsent(ctx, id, 0, nil)
	if err != nil {
		t.Fatalf("FrontierInsertIfAbsent (first): %v", err)
	}
	if !inserted1 {
		t.Error("expected first insert to report inserted=true")
	}

	inserted2, err := s.FrontierInsertIfAbsent(ctx, id, 0, nil)
	if err != nil {
		t.Fatalf("FrontierInsertIfAbsent (second): %v", err)
	}
	if inserted2 {
		t.Error("expected duplicate insert to report inserted=false")
	}

	queued, err := s.FrontierListQueued(ctx, 10)
	if err != nil {
		t.Fatalf("FrontierListQueued: %v", err)
	}
	if len(queued) != 1 {
		t.Fatalf("expected 1 entry after duplicate insert, got %d", len(queued))
	}
}

func TestFrontier_MarkDoneRemovesFromQueued(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := internURL(t, s, "https://example.com/")
	if _, err := s.FrontierInsertIfAbsent(ctx, id, 0, nil); err != nil {
		t.Fatalf("FrontierInsertIfAbsent: %v", err)
	}
	if err := s.FrontierMarkDone(ctx, id); err != nil {
		t.Fatalf("FrontierMarkDone: %v", err)
	}

	queued, done, err := s.FrontierCounts(ctx)
	if err != nil {
		t.Fatalf("FrontierCounts: %v", err)
	}
	if queued != 0 || done != 1 {
		t.Errorf("expected (0 queued, 1 done), got (%d, %d)", queued, done)
	}

	hasQueued, err := s.FrontierHasQueued(ctx)
	if err != nil {
		t.Fatalf("FrontierHasQueued: %v", err)
	}
	if hasQueued {
		t.Error("expected no queued entries remaining")
	}
}

func TestSavePage_OverwritesOnConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := internURL(t, s, "https://example.com/")

	first := storage.PageRecord{URLID: id, FinalStatusCode: 200, FetchedAt: time.Now().UTC(), HeadersCompBlob: []byte("h1"), BodyCompBlob: []byte("b1")}
	if err := s.SavePage(ctx, first); err != nil {
		t.Fatalf("SavePage (first): %v", err)
	}

	second := first
	second.FinalStatusCode = 304
	second.HeadersCompBlob = []byte("h2")
	if err := s.SavePage(ctx, second); err != nil {
		t.Fatalf("SavePage (second): %v", err)
	}

	got, err := s.GetPage(ctx, id)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if got == nil {
		t.Fatal("expected page record, got nil")
	}
	if got.FinalStatusCode != 304 {
		t.Errorf("expected overwritten FinalStatusCode 304, got %d", got.FinalStatusCode)
	}
	if string(got.HeadersCompBlob) != "h2" {
		t.Errorf("expected overwritten HeadersCompBlob, got %q", got.HeadersCompBlob)
	}
}

func TestSaveRedirectChain_MaterializesSummary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	src := internURL(t, s, "https://example.com/old")
	mid := internURL(t, s, "https://example.com/mid")
	dst := internURL(t, s, "https://example.com/new")

	hops := []storage.RedirectHop{
		{SourceURLID: src, HopIndex: 0, TargetURLID: mid, StatusCode: 301},
		{SourceURLID: src, HopIndex: 1, TargetURLID: dst, StatusCode: 301},
	}
	if err := s.SaveRedirectChain(ctx, hops, false); err != nil {
		t.Fatalf("SaveRedirectChain: %v", err)
	}

	gotHops, summary, err := s.GetRedirectChain(ctx, src)
	if err != nil {
		t.Fatalf("GetRedirectChain: %v", err)
	}
	if len(gotHops) != 2 {
		t.Fatalf("expected 2 hops, got %d", len(gotHops))
	}
	if summary == nil {
		t.Fatal("expected redirect summary, got nil")
	}
	if summary.ChainLength != 2 {
		t.Errorf("expected chain length 2, got %d", summary.ChainLength)
	}
	if summary.FinalTargetURLID != dst {
		t.Errorf("expected final target %d, got %d", dst, summary.FinalTargetURLID)
	}
}

func TestSaveLinks_BatchesAcrossBoundary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	src := internURL(t, s, "https://example.com/")
	anchor, err := s.InternAnchorText(ctx, "read more")
	if err != nil {
		t.Fatalf("InternAnchorText: %v", err)
	}
	xpath, err := s.InternXPath(ctx, "/html/body/a[1]")
	if err != nil {
		t.Fatalf("InternXPath: %v", err)
	}
	href, err := s.InternHref(ctx, "/about")
	if err != nil {
		t.Fatalf("InternHref: %v", err)
	}

	links := make([]storage.Link, batchSize+10)
	for i := range links {
		tgt, _, err := s.InternURL(ctx, "https://example.com/p", "example.com", "https", "internal")
		if err != nil {
			t.Fatalf("InternURL: %v", err)
		}
		links[i] = storage.Link{SourceURLID: src, TargetURLID: tgt, AnchorTextID: anchor, XPathID: xpath, HrefID: href, Kind: storage.LinkInternal}
	}

	if err := s.SaveLinks(ctx, links); err != nil {
		t.Fatalf("SaveLinks: %v", err)
	}
}

func TestSaveIndexability_Upserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := internURL(t, s, "https://example.com/")

	rec := storage.IndexabilityRecord{URLID: id, RobotsTxtAllows: true, HTMLMetaAllows: true, HTTPHeaderAllows: true, OverallIndexable: true}
	if err := s.SaveIndexability(ctx, rec); err != nil {
		t.Fatalf("SaveIndexability: %v", err)
	}

	rec.OverallIndexable = false
	rec.ReasonsBitmap = storage.ReasonMetaNoindex
	if err := s.SaveIndexability(ctx, rec); err != nil {
		t.Fatalf("SaveIndexability (update): %v", err)
	}

	got, err := s.GetIndexability(ctx, id)
	if err != nil {
		t.Fatalf("GetIndexability: %v", err)
	}
	if got == nil {
		t.Fatal("expected indexability record, got nil")
	}
	if got.OverallIndexable {
		t.Error("expected OverallIndexable to be false after update")
	}
	if got.ReasonsBitmap&storage.ReasonMetaNoindex == 0 {
		t.Error("expected ReasonMetaNoindex bit set")
	}
}

func TestSaveSitemapListing_IsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sitemapID := internURL(t, s, "https://example.com/sitemap.xml")
	pageID := internURL(t, s, "https://example.com/page")

	listing := storage.SitemapListing{URLID: pageID, SitemapURLID: sitemapID, DiscoveredAt: time.Now().UTC()}
	if err := s.SaveSitemapListing(ctx, listing); err != nil {
		t.Fatalf("SaveSitemapListing (first): %v", err)
	}
	if err := s.SaveSitemapListing(ctx, listing); err != nil {
		t.Fatalf("SaveSitemapListing (second): %v", err)
	}

	count, err := s.CountSitemapListings(ctx)
	if err != nil {
		t.Fatalf("CountSitemapListings: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 listing after duplicate insert, got %d", count)
	}
}

func TestMeta_RoundTripsAndReportsAbsence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetMeta(ctx, "nonexistent_key")
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if ok {
		t.Error("expected ok=false for a key that was never set")
	}

	if err := s.SetMeta(ctx, "custom_key", "custom_value"); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	got, ok, err := s.GetMeta(ctx, "custom_key")
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if !ok || got != "custom_value" {
		t.Errorf("expected (custom_value, true), got (%q, %v)", got, ok)
	}

	version, ok, err := s.GetMeta(ctx, "schema_version")
	if err != nil {
		t.Fatalf("GetMeta(schema_version): %v", err)
	}
	if !ok || version != storage.SchemaVersion {
		t.Errorf("expected schema_version %q to be set on Open, got (%q, %v)", storage.SchemaVersion, version, ok)
	}
}
