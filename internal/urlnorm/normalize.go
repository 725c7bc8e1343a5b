// Package urlnorm canonicalizes and classifies URLs encountered during a
// crawl. Identity in the storage layer is built on top of the strings this
// package produces, so norm(norm(x)) == norm(x) is load-bearing.
package urlnorm

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ridgeline-labs/seocrawl/internal/crawlerrors"
)

// Class classifies a normalized URL relative to the crawl's seed hosts.
type Class string

const (
	ClassInternal Class = "internal"
	ClassExternal Class = "external"
	ClassSocial   Class = "social"
	ClassNetwork  Class = "network"
	ClassMail     Class = "mail"
	ClassOther    Class = "other"
)

// nonHTTPSchemes are never enqueued; Normalize reports them via Class rather
// than an error so callers can still record the URL for audit purposes.
var nonHTTPSchemes = map[string]bool{
	"mailto":     true,
	"tel":        true,
	"javascript": true,
	"data":       true,
	"ftp":        true,
}

// socialSuffixes is a static table of hosts classified as social networks.
var socialSuffixes = []string{
	"facebook.com",
	"twitter.com",
	"x.com",
	"linkedin.com",
	"instagram.com",
	"pinterest.com",
	"tiktok.com",
	"youtube.com",
	"reddit.com",
}

// networkSuffixes is a static table of common CDN/hosting hosts that are
// neither meaningfully internal nor external content.
var networkSuffixes = []string{
	"cloudflare.com",
	"akamaized.net",
	"fastly.net",
	"amazonaws.com",
	"googleusercontent.com",
	"gstatic.com",
	"googletagmanager.com",
	"google-analytics.com",
	"doubleclick.net",
}

// Options configures classification against the crawl's seed host set.
type Options struct {
	// SeedHosts are the lowercased hosts the crawl was started from.
	SeedHosts []string
	// IncludeSubdomains treats "sub.seed.com" as internal when "seed.com"
	// is a seed host (--offsite does the inverse: it allows enqueueing
	// external URLs, it does not change classification).
	IncludeSubdomains bool
}

// Normalized is the canonical form of a URL plus its classification.
type Normalized struct {
	Canonical string
	Host      string
	Scheme    string
	Class     Class
}

// Normalize resolves rawURL against base (if non-nil), canonicalizes it, and
// classifies it against opts. It fails with a *crawlerrors.Error of Kind
// MalformedURL when the input cannot be parsed after reasonable cleanup.
func Normalize(rawURL string, base *url.URL, opts Options) (Normalized, error) {
	cleaned := cleanInput(rawURL)
	if cleaned == "" {
		return Normalized{}, crawlerrors.New(crawlerrors.MalformedURL, "urlnorm.Normalize", fmt.Errorf("empty url"))
	}

	u, err := url.Parse(cleaned)
	if err != nil {
		return Normalized{}, crawlerrors.New(crawlerrors.MalformedURL, "urlnorm.Normalize", err)
	}

	if base != nil {
		u = base.ResolveReference(u)
	}

	scheme := strings.ToLower(u.Scheme)
	if nonHTTPSchemes[scheme] {
		return Normalized{
			Canonical: u.String(),
			Host:      strings.ToLower(u.Hostname()),
			Scheme:    scheme,
			Class:     classNonHTTP(scheme),
		}, nil
	}

	if u.Scheme == "" || u.Host == "" {
		return Normalized{}, crawlerrors.New(crawlerrors.MalformedURL, "urlnorm.Normalize", fmt.Errorf("missing scheme or host in %q", cleaned))
	}
	if scheme != "http" && scheme != "https" {
		return Normalized{}, crawlerrors.New(crawlerrors.MalformedURL, "urlnorm.Normalize", fmt.Errorf("unsupported scheme %q", scheme))
	}

	canon, host, err := canonicalize(u, scheme)
	if err != nil {
		return Normalized{}, crawlerrors.New(crawlerrors.MalformedURL, "urlnorm.Normalize", err)
	}

	return Normalized{
		Canonical: canon,
		Host:      host,
		Scheme:    scheme,
		Class:     classify(host, opts),
	}, nil
}

// cleanInput strips whitespace and common smart-quote artifacts that appear
// when URLs are copy-pasted out of rendered HTML or documents.
func cleanInput(raw string) string {
	raw = strings.TrimSpace(raw)
	replacer := strings.NewReplacer(
		"“", "", "”", "", // “ ”
		"‘", "", "’", "", // ‘ ’
		" ", "", // nbsp
	)
	return strings.TrimSpace(replacer.Replace(raw))
}

func classNonHTTP(scheme string) Class {
	if scheme == "mailto" {
		return ClassMail
	}
	return ClassOther
}

// canonicalize applies, in order: lowercase scheme+host, drop default
// ports, collapse "//" in path, resolve "." and "..", percent-encode via
// url.URL's EscapedPath (existing escapes are kept, not escaped again), sort
// query params by key, drop fragment.
func canonicalize(u *url.URL, scheme string) (string, string, error) {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	hostport := host
	if port != "" {
		hostport = host + ":" + port
	}

	path := collapseSlashes(u.EscapedPath())
	path = resolveDotSegments(path)
	if path == "" {
		path = "/"
	}

	query := sortedQuery(u.RawQuery)

	out := scheme + "://" + hostport + path
	if query != "" {
		out += "?" + query
	}
	return out, host, nil
}

func collapseSlashes(path string) string {
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return path
}

// resolveDotSegments implements RFC 3986 5.2.4 remove_dot_segments.
func resolveDotSegments(path string) string {
	if path == "" {
		return path
	}
	segments := strings.Split(path, "/")
	var out []string
	for _, seg := range segments {
		switch seg {
		case ".":
			// drop
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	result := strings.Join(out, "/")
	if strings.HasPrefix(path, "/") && !strings.HasPrefix(result, "/") {
		result = "/" + result
	}
	return result
}

func sortedQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil || len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		vals := values[k]
		sort.Strings(vals)
		for j, v := range vals {
			if i > 0 || j > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

func classify(host string, opts Options) Class {
	if matchesSuffix(host, socialSuffixes) {
		return ClassSocial
	}
	if matchesSuffix(host, networkSuffixes) {
		return ClassNetwork
	}
	for _, seed := range opts.SeedHosts {
		seed = strings.ToLower(seed)
		if host == seed {
			return ClassInternal
		}
		if opts.IncludeSubdomains && strings.HasSuffix(host, "."+seed) {
			return ClassInternal
		}
	}
	return ClassExternal
}

func matchesSuffix(host string, suffixes []string) bool {
	for _, s := range suffixes {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}
