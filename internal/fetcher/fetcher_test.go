package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ridgeline-labs/seocrawl/internal/robots"
)

func TestFetcher_FollowsAndRecordsRedirectChain(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/mid", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/mid", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f := New(Config{UserAgent: "test-bot", Timeout: 2 * time.Second})
	outcome := f.Fetch(context.Background(), ts.URL+"/old")
	if outcome.Err != nil {
		t.Fatalf("Fetch: %v", outcome.Err)
	}
	if outcome.Result.StatusCode != http.StatusOK {
		t.Errorf("expected final status 200, got %d", outcome.Result.StatusCode)
	}
	if len(outcome.Result.RedirectChain) != 2 {
		t.Fatalf("expected 2 redirect hops, got %d", len(outcome.Result.RedirectChain))
	}
	if outcome.Result.RedirectChain[0].StatusCode != http.StatusMovedPermanently {
		t.Errorf("expected first hop 301, got %d", outcome.Result.RedirectChain[0].StatusCode)
	}
}

func TestFetcher_RobotsDisallowedSkipsFetch(t *testing.T) {
	var fetched bool
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	})
	mux.HandleFunc("/private", func(w http.ResponseWriter, r *http.Request) {
		fetched = true
		w.WriteHeader(http.StatusOK)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cache := robots.NewCache(robots.Config{UserAgent: "test-bot", Timeout: time.Second})
	f := New(Config{UserAgent: "test-bot", Timeout: 2 * time.Second, Robots: cache, RespectRobots: true})

	outcome := f.Fetch(context.Background(), ts.URL+"/private")
	if !outcome.RobotsDisallowed {
		t.Error("expected RobotsDisallowed to be true")
	}
	if fetched {
		t.Error("expected fetch to be skipped for a disallowed URL")
	}
}

func TestFetcher_RetriesOn5xxThenSucceeds(t *testing.T) {
	var attempts int
	mux := http.NewServeMux()
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f := New(Config{UserAgent: "test-bot", Timeout: 2 * time.Second})
	outcome := f.Fetch(context.Background(), ts.URL+"/flaky")
	if outcome.Err != nil {
		t.Fatalf("Fetch: %v", outcome.Err)
	}
	if outcome.Result.StatusCode != http.StatusOK {
		t.Errorf("expected eventual 200, got %d", outcome.Result.StatusCode)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestFetcher_4xxIsTerminalNoRetry(t *testing.T) {
	var attempts int
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f := New(Config{UserAgent: "test-bot", Timeout: 2 * time.Second})
	outcome := f.Fetch(context.Background(), ts.URL+"/missing")
	if outcome.Err != nil {
		t.Fatalf("Fetch: %v", outcome.Err)
	}
	if outcome.Result.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", outcome.Result.StatusCode)
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for a 4xx, got %d", attempts)
	}
}

func TestBrowserBackend_ReportsUnavailable(t *testing.T) {
	b := NewBrowserBackend()
	_, err := b.Fetch(context.Background(), "https://example.com", http.Header{})
	if err == nil {
		t.Error("expected the scripted-browser backend to report unavailability")
	}
}
