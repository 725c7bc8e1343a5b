package extractor

import (
	"testing"

	"github.com/ridgeline-labs/seocrawl/internal/urlnorm"
)

const sampleHTML = `<!DOCTYPE html>
<html>
<head>
	<title>  Example   Page  </title>
	<meta name="description" content="An example page for testing.">
	<meta name="robots" content="noindex, follow">
	<link rel="canonical" href="https://a.example/canonical">
	<link rel="alternate" hreflang="es" href="https://a.example/es/">
</head>
<body>
	<h1>Main Heading</h1>
	<h2>Sub One</h2>
	<h2>Sub Two</h2>
	<div>
		<ul>
			<li><a href="/internal-page">Internal Link</a></li>
			<li><a href="https://external.example/page" rel="nofollow">External Link</a></li>
		</ul>
	</div>
	<script>var x = "ignored script text";</script>
</body>
</html>`

func testOpts() urlnorm.Options {
	return urlnorm.Options{SeedHosts: []string{"a.example"}}
}

func TestExtract_TitleAndMeta(t *testing.T) {
	r, err := Extract([]byte(sampleHTML), "https://a.example/", testOpts())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if r.Title != "Example Page" {
		t.Errorf("expected collapsed title, got %q", r.Title)
	}
	if r.MetaDescription != "An example page for testing." {
		t.Errorf("unexpected meta description: %q", r.MetaDescription)
	}
}

func TestExtract_Headings(t *testing.T) {
	r, err := Extract([]byte(sampleHTML), "https://a.example/", testOpts())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if r.H1Count != 1 || r.FirstH1 != "Main Heading" {
		t.Errorf("unexpected h1: count=%d first=%q", r.H1Count, r.FirstH1)
	}
	if r.H2Count != 2 || r.FirstH2 != "Sub One" {
		t.Errorf("unexpected h2: count=%d first=%q", r.H2Count, r.FirstH2)
	}
}

func TestExtract_CanonicalAndRobots(t *testing.T) {
	r, err := Extract([]byte(sampleHTML), "https://a.example/", testOpts())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if r.CanonicalURL == nil || r.CanonicalURL.Canonical != "https://a.example/canonical" {
		t.Errorf("unexpected canonical: %+v", r.CanonicalURL)
	}
	if len(r.MetaRobotsTokens) != 2 || r.MetaRobotsTokens[0] != "noindex" {
		t.Errorf("unexpected robots tokens: %v", r.MetaRobotsTokens)
	}
}

func TestExtract_HreflangHTML(t *testing.T) {
	r, err := Extract([]byte(sampleHTML), "https://a.example/", testOpts())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(r.HreflangHTML) != 1 || r.HreflangHTML[0].Lang != "es" {
		t.Errorf("unexpected hreflang: %v", r.HreflangHTML)
	}
}

func TestNormalizeLangTag(t *testing.T) {
	cases := map[string]string{
		"EN-us":      "en-US",
		"es":         "es",
		"x-default":  "x-default",
		"X-Default":  "x-default",
		"not a tag!": "not a tag!",
	}
	for in, want := range cases {
		if got := normalizeLangTag(in); got != want {
			t.Errorf("normalizeLangTag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtract_AnchorsClassifiedInternalExternal(t *testing.T) {
	r, err := Extract([]byte(sampleHTML), "https://a.example/", testOpts())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(r.Anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(r.Anchors))
	}
	if r.InternalLinkCount != 1 || r.ExternalLinkCount != 1 {
		t.Errorf("expected 1 internal + 1 external, got internal=%d external=%d", r.InternalLinkCount, r.ExternalLinkCount)
	}

	var external Anchor
	for _, a := range r.Anchors {
		if a.Kind == urlnorm.ClassExternal {
			external = a
		}
	}
	if len(external.RelTokens) != 1 || external.RelTokens[0] != "nofollow" {
		t.Errorf("unexpected rel tokens on external anchor: %v", external.RelTokens)
	}
	if external.AnchorText != "External Link" {
		t.Errorf("unexpected anchor text: %q", external.AnchorText)
	}
}

func TestExtract_AnchorXPathIsDeterministic(t *testing.T) {
	r1, err := Extract([]byte(sampleHTML), "https://a.example/", testOpts())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	r2, err := Extract([]byte(sampleHTML), "https://a.example/", testOpts())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if r1.Anchors[0].XPath != r2.Anchors[0].XPath {
		t.Errorf("expected deterministic xpath across runs, got %q vs %q", r1.Anchors[0].XPath, r2.Anchors[0].XPath)
	}
	if r1.Anchors[0].XPath == "" {
		t.Error("expected a non-empty xpath")
	}
}

func TestExtract_WordCountExcludesScript(t *testing.T) {
	r, err := Extract([]byte(sampleHTML), "https://a.example/", testOpts())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if r.WordCount == 0 {
		t.Fatal("expected a non-zero word count")
	}
	// Title (2) + h1 (2) + two h2 (4) + two anchors (4); the script's words
	// must not be counted.
	if r.WordCount != 12 {
		t.Errorf("expected 12 words with script text excluded, got %d", r.WordCount)
	}
}

func TestExtract_MalformedHTMLStillCommitsPartial(t *testing.T) {
	broken := `<html><body><h1>Broken<p><a href="/a">Link</a>`
	r, err := Extract([]byte(broken), "https://a.example/", testOpts())
	if err != nil {
		t.Fatalf("Extract should tolerate malformed HTML: %v", err)
	}
	if len(r.Anchors) != 1 {
		t.Errorf("expected 1 anchor recovered from malformed HTML, got %d", len(r.Anchors))
	}
}
