// Package extractor pulls structured SEO signal out of a fetched HTML
// document: title, meta description, heading counts, canonical link, meta
// robots tokens, hreflang-HTML alternates, and a full anchor inventory (text,
// XPath, rel tokens, internal/external split), using goquery selections.
package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ridgeline-labs/seocrawl/internal/urlnorm"
	"golang.org/x/net/html"
	"golang.org/x/text/language"
)

// normalizeLangTag canonicalizes an hreflang value to its BCP 47 form
// (e.g. "EN-us" -> "en-US") so the same locale interns to one language_code
// row regardless of the casing a page happens to use. "x-default" is not a
// real BCP 47 tag and is passed through unchanged; a tag language.Parse
// can't make sense of is also passed through as-is rather than dropped.
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

// Anchor is one <a href> found in document order.
type Anchor struct {
	Target     urlnorm.Normalized
	RawHref    string
	AnchorText string
	XPath      string
	RelTokens  []string
	Kind       urlnorm.Class
}

// HreflangHTML is one <link rel="alternate" hreflang="…" href="…">.
type HreflangHTML struct {
	Lang string
	Href string
}

// Result is everything the Extractor derives from one document.
type Result struct {
	Title             string
	MetaDescription   string
	H1Count           int
	H2Count           int
	FirstH1           string
	FirstH2           string
	WordCount         int
	CanonicalURL      *urlnorm.Normalized
	MetaRobotsTokens  []string
	HreflangHTML      []HreflangHTML
	Anchors           []Anchor
	InternalLinkCount int
	ExternalLinkCount int
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Extract parses body tolerantly (malformed HTML is routine — goquery's
// underlying x/net/html tokenizer recovers from broken markup the way any
// browser does) and returns whatever could be parsed; individual malformed
// attributes are skipped rather than aborting the whole extraction.
func Extract(body []byte, finalURL string, opts urlnorm.Options) (Result, error) {
	base, err := url.Parse(finalURL)
	if err != nil {
		return Result{}, fmt.Errorf("extractor.Extract: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("extractor.Extract: %w", err)
	}

	var r Result
	r.Title = collapseWhitespace(doc.Find("title").First().Text())

	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		r.MetaDescription = collapseWhitespace(desc)
	}

	r.H1Count = doc.Find("h1").Length()
	r.H2Count = doc.Find("h2").Length()
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		r.FirstH1 = collapseWhitespace(h1.Text())
	}
	if h2 := doc.Find("h2").First(); h2.Length() > 0 {
		r.FirstH2 = collapseWhitespace(h2.Text())
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok && href != "" {
		if n, err := urlnorm.Normalize(href, base, opts); err == nil {
			r.CanonicalURL = &n
		}
	}

	if content, ok := doc.Find(`meta[name="robots"]`).First().Attr("content"); ok {
		r.MetaRobotsTokens = splitTokens(content)
	}

	doc.Find(`link[rel="alternate"][hreflang]`).Each(func(_ int, s *goquery.Selection) {
		lang, _ := s.Attr("hreflang")
		href, ok := s.Attr("href")
		if lang == "" || !ok || href == "" {
			return
		}
		r.HreflangHTML = append(r.HreflangHTML, HreflangHTML{Lang: normalizeLangTag(lang), Href: href})
	})

	r.Anchors = extractAnchors(doc, base, opts)
	for _, a := range r.Anchors {
		if a.Kind == urlnorm.ClassInternal {
			r.InternalLinkCount++
		} else if a.Kind == urlnorm.ClassExternal {
			r.ExternalLinkCount++
		}
	}

	r.WordCount = countWords(doc)

	return r, nil
}

func extractAnchors(doc *goquery.Document, base *url.URL, opts urlnorm.Options) []Anchor {
	var anchors []Anchor
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		normalized, err := urlnorm.Normalize(href, base, opts)
		if err != nil {
			// Malformed individual hrefs are skipped, not fatal.
			return
		}

		var rel []string
		if relAttr, ok := s.Attr("rel"); ok {
			rel = splitTokens(relAttr)
		}

		anchors = append(anchors, Anchor{
			Target:     normalized,
			RawHref:    href,
			AnchorText: collapseWhitespace(s.Text()),
			XPath:      xpathOf(s),
			RelTokens:  rel,
			Kind:       normalized.Class,
		})
	})
	return anchors
}

// xpathOf computes a deterministic path of element indices from the
// document root, e.g. "/html[1]/body[1]/div[2]/ul[1]/li[4]/a[1]" — stable across
// runs of the same document, unlike a content-addressed or "readable" XPath.
func xpathOf(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	var segments []string
	for node := s.Get(0); node != nil && node.Type == html.ElementNode; node = node.Parent {
		segments = append([]string{fmt.Sprintf("%s[%d]", node.Data, elementSiblingIndex(node))}, segments...)
	}
	return "/" + strings.Join(segments, "/")
}

// elementSiblingIndex returns node's 1-based position among preceding
// element siblings sharing its tag name.
func elementSiblingIndex(node *html.Node) int {
	index := 1
	for sib := node.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && sib.Data == node.Data {
			index++
		}
	}
	return index
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func splitTokens(raw string) []string {
	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func countWords(doc *goquery.Document) int {
	clone := doc.Clone()
	clone.Find("script, style").Remove()
	text := clone.Text()
	fields := strings.Fields(text)
	return len(fields)
}
