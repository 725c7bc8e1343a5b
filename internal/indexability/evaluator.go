// Package indexability combines the Robots Cache verdict, the extracted
// meta-robots/X-Robots-Tag signals, a detected bot-challenge page, and the
// final status code into one composite crawlability record, with a reasons
// bitmap so a downstream query can explain any verdict without re-deriving
// it.
package indexability

import (
	"net/http"
	"strings"

	"github.com/ridgeline-labs/seocrawl/internal/bypass"
	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

// Input is everything the evaluator needs about one fetched URL.
type Input struct {
	StatusCode        int
	Headers           http.Header
	Body              []byte
	RobotsAllowed     bool
	RobotsUnavailable bool
	MetaRobotsTokens  []string
}

// Evaluate produces the composite crawlability verdict.
func Evaluate(in Input) storage.IndexabilityRecord {
	var reasons uint32

	robotsAllows := in.RobotsAllowed
	if !robotsAllows {
		reasons |= storage.ReasonRobotsDisallow
	}
	if in.RobotsUnavailable {
		reasons |= storage.ReasonRobotsUnavailable
	}

	metaAllows := !containsToken(in.MetaRobotsTokens, "noindex")
	if !metaAllows {
		reasons |= storage.ReasonMetaNoindex
	}

	headerAllows := !strings.Contains(strings.ToLower(in.Headers.Get("X-Robots-Tag")), "noindex")
	if !headerAllows {
		reasons |= storage.ReasonHeaderNoindex
	}

	statusOK := in.StatusCode >= 200 && in.StatusCode <= 299
	if !statusOK {
		reasons |= storage.ReasonBadStatus
	}

	if detected, _ := bypass.Detect(in.StatusCode, in.Headers, in.Body, bypass.DefaultDetectors()); detected {
		reasons |= storage.ReasonChallengePage
	}

	overall := robotsAllows && metaAllows && headerAllows && statusOK && reasons&storage.ReasonChallengePage == 0

	return storage.IndexabilityRecord{
		RobotsTxtAllows:  robotsAllows,
		HTMLMetaAllows:   metaAllows,
		HTTPHeaderAllows: headerAllows,
		OverallIndexable: overall,
		ReasonsBitmap:    reasons,
	}
}

func containsToken(tokens []string, target string) bool {
	for _, t := range tokens {
		if t == target {
			return true
		}
	}
	return false
}
