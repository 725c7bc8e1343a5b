package indexability

import (
	"net/http"
	"testing"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

func TestEvaluate_FullyIndexable(t *testing.T) {
	rec := Evaluate(Input{
		StatusCode:    200,
		Headers:       http.Header{},
		RobotsAllowed: true,
	})
	if !rec.OverallIndexable {
		t.Errorf("expected indexable, got %+v", rec)
	}
	if rec.ReasonsBitmap != 0 {
		t.Errorf("expected no reason bits, got %b", rec.ReasonsBitmap)
	}
}

func TestEvaluate_RobotsDisallow(t *testing.T) {
	rec := Evaluate(Input{StatusCode: 200, Headers: http.Header{}, RobotsAllowed: false})
	if rec.OverallIndexable {
		t.Error("expected not indexable when robots disallows")
	}
	if rec.ReasonsBitmap&storage.ReasonRobotsDisallow == 0 {
		t.Error("expected ReasonRobotsDisallow bit set")
	}
}

func TestEvaluate_MetaNoindex(t *testing.T) {
	rec := Evaluate(Input{
		StatusCode:       200,
		Headers:          http.Header{},
		RobotsAllowed:    true,
		MetaRobotsTokens: []string{"noindex", "follow"},
	})
	if rec.OverallIndexable || rec.HTMLMetaAllows {
		t.Errorf("expected noindex meta tag to block indexability: %+v", rec)
	}
	if rec.ReasonsBitmap&storage.ReasonMetaNoindex == 0 {
		t.Error("expected ReasonMetaNoindex bit set")
	}
}

func TestEvaluate_HeaderNoindex(t *testing.T) {
	h := http.Header{}
	h.Set("X-Robots-Tag", "noindex")
	rec := Evaluate(Input{StatusCode: 200, Headers: h, RobotsAllowed: true})
	if rec.OverallIndexable || rec.HTTPHeaderAllows {
		t.Errorf("expected X-Robots-Tag noindex to block indexability: %+v", rec)
	}
}

func TestEvaluate_BadStatusBlocksIndexability(t *testing.T) {
	rec := Evaluate(Input{StatusCode: 404, Headers: http.Header{}, RobotsAllowed: true})
	if rec.OverallIndexable {
		t.Error("expected 404 to block indexability")
	}
	if rec.ReasonsBitmap&storage.ReasonBadStatus == 0 {
		t.Error("expected ReasonBadStatus bit set")
	}
}

func TestEvaluate_ChallengePageBlocksIndexability(t *testing.T) {
	h := http.Header{}
	h.Set("Server", "cloudflare")
	rec := Evaluate(Input{StatusCode: 403, Headers: h, Body: []byte("Access Denied"), RobotsAllowed: true})
	if rec.OverallIndexable {
		t.Error("expected challenge page to block indexability")
	}
	if rec.ReasonsBitmap&storage.ReasonChallengePage == 0 {
		t.Error("expected ReasonChallengePage bit set")
	}
}

func TestEvaluate_RobotsUnavailableSetsReasonButDoesNotBlock(t *testing.T) {
	rec := Evaluate(Input{StatusCode: 200, Headers: http.Header{}, RobotsAllowed: true, RobotsUnavailable: true})
	if !rec.OverallIndexable {
		t.Error("expected unavailable-but-permissive robots to remain indexable")
	}
	if rec.ReasonsBitmap&storage.ReasonRobotsUnavailable == 0 {
		t.Error("expected ReasonRobotsUnavailable bit set even though overall_indexable is true")
	}
}
