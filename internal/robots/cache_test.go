package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestCache_IsAllowed_MostSpecificGroupWins(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`
User-agent: *
Disallow: /admin/
Allow: /admin/public/

User-agent: BadBot
Disallow: /
		`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cache := NewCache(Config{UserAgent: "GoodBot", Timeout: 5 * time.Second})
	ctx := context.Background()

	v, err := cache.IsAllowed(ctx, ts.URL+"/public-page")
	if err != nil {
		t.Fatalf("IsAllowed: %v", err)
	}
	if !v.Allowed {
		t.Error("expected /public-page to be allowed for the wildcard group")
	}

	v, _ = cache.IsAllowed(ctx, ts.URL+"/admin/secret")
	if v.Allowed {
		t.Error("expected /admin/secret to be disallowed")
	}

	v, _ = cache.IsAllowed(ctx, ts.URL+"/admin/public/index.html")
	if !v.Allowed {
		t.Error("expected the longer Allow pattern to win over Disallow")
	}

	badBotCache := NewCache(Config{UserAgent: "BadBot", Timeout: 5 * time.Second})
	v, _ = badBotCache.IsAllowed(ctx, ts.URL+"/public-page")
	if v.Allowed {
		t.Error("expected /public-page to be disallowed for BadBot's specific group")
	}
}

func TestCache_IsAllowed_MissingRobotsIsPermissiveButFlagged(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cache := NewCache(Config{UserAgent: "Bot", Timeout: 5 * time.Second})
	v, err := cache.IsAllowed(context.Background(), ts.URL+"/anything")
	if err != nil {
		t.Fatalf("IsAllowed: %v", err)
	}
	if !v.Allowed {
		t.Error("expected missing robots.txt to default to allowed")
	}
	if !v.Unavailable {
		t.Error("expected missing robots.txt to be flagged Unavailable")
	}
}

func TestCache_IsAllowed_IgnoreRobotsSuppressesUnavailableFlag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cache := NewCache(Config{UserAgent: "Bot", Timeout: 5 * time.Second, IgnoreRobots: true})
	v, err := cache.IsAllowed(context.Background(), ts.URL+"/anything")
	if err != nil {
		t.Fatalf("IsAllowed: %v", err)
	}
	if !v.Allowed || v.Unavailable {
		t.Errorf("expected (Allowed=true, Unavailable=false) when IgnoreRobots is set, got %+v", v)
	}
}

func TestCache_Sitemaps(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`
User-agent: *
Sitemap: http://example.com/sitemap.xml
Sitemap: http://example.com/sitemap2.xml
		`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cache := NewCache(Config{UserAgent: "Bot", Timeout: 5 * time.Second})
	u, _ := url.Parse(ts.URL)

	sitemaps := cache.Sitemaps(context.Background(), u.Scheme, u.Host)
	if len(sitemaps) != 2 {
		t.Fatalf("expected 2 sitemaps, got %d", len(sitemaps))
	}
	if sitemaps[0] != "http://example.com/sitemap.xml" {
		t.Errorf("expected sitemap.xml first, got %s", sitemaps[0])
	}
}

func TestCache_CachesPerHost(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("User-agent: *\nDisallow:\n"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cache := NewCache(Config{UserAgent: "Bot", Timeout: 5 * time.Second})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := cache.IsAllowed(ctx, ts.URL+"/page"); err != nil {
			t.Fatalf("IsAllowed: %v", err)
		}
	}
	if hits != 1 {
		t.Errorf("expected robots.txt to be fetched once and cached, got %d fetches", hits)
	}
}
