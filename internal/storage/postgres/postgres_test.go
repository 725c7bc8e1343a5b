package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("SEOCRAWL_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres backend test: SEOCRAWL_TEST_PG_DSN not set")
	}
	s, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgres_InternURLDedupesByCanonical(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	canonical := "https://example-pg.com/"
	id1, isNew1, err := s.InternURL(ctx, canonical, "example-pg.com", "https", "internal")
	if err != nil {
		t.Fatalf("InternURL: %v", err)
	}
	if !isNew1 {
		t.Error("expected first intern to report isNew=true")
	}

	id2, isNew2, err := s.InternURL(ctx, canonical, "example-pg.com", "https", "internal")
	if err != nil {
		t.Fatalf("InternURL (second): %v", err)
	}
	if isNew2 {
		t.Error("expected second intern to report isNew=false")
	}
	if id1 != id2 {
		t.Fatalf("expected same id for repeated intern, got %d and %d", id1, id2)
	}
}

func TestPostgres_SavePageOverwritesOnConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, _, err := s.InternURL(ctx, "https://example-pg.com/page", "example-pg.com", "https", "internal")
	if err != nil {
		t.Fatalf("InternURL: %v", err)
	}

	first := storage.PageRecord{URLID: id, FinalStatusCode: 200, FetchedAt: time.Now().UTC(), HeadersCompBlob: []byte("h1"), BodyCompBlob: []byte("b1")}
	if err := s.SavePage(ctx, first); err != nil {
		t.Fatalf("SavePage (first): %v", err)
	}

	second := first
	second.FinalStatusCode = 304
	second.BodyCompBlob = []byte("b2")
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
	if string(got.BodyCompBlob) != "b2" {
		t.Errorf("expected overwritten BodyCompBlob, got %q", got.BodyCompBlob)
	}
}

func TestPostgres_FrontierRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, _, err := s.InternURL(ctx, "https://example-pg.com/frontier", "example-pg.com", "https", "internal")
	if err != nil {
		t.Fatalf("InternURL: %v", err)
	}

	inserted, err := s.FrontierInsertIfAbsent(ctx, id, 0, nil)
	if err != nil {
		t.Fatalf("FrontierInsertIfAbsent: %v", err)
	}
	if !inserted {
		t.Error("expected fresh insert to report inserted=true")
	}

	hasQueued, err := s.FrontierHasQueued(ctx)
	if err != nil {
		t.Fatalf("FrontierHasQueued: %v", err)
	}
	if !hasQueued {
		t.Error("expected at least one queued entry")
	}

	if err := s.FrontierMarkDone(ctx, id); err != nil {
		t.Fatalf("FrontierMarkDone: %v", err)
	}
}
