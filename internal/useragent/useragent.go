// Package useragent resolves the --user-agent preset flag to a concrete
// User-Agent header string: one fixed identity for the run, not a rotating
// pool.
package useragent

import "fmt"

const (
	PresetScreamingFrog   = "screaming-frog"
	PresetParadiseCrawler = "paradise-crawler"
	PresetGooglebot       = "googlebot"
	PresetCustom          = "custom"
)

// presets maps each named preset to the header string it sends.
var presets = map[string]string{
	PresetScreamingFrog:   "Mozilla/5.0 (compatible; Screaming Frog SEO Spider/20.0; +https://www.screamingfrog.co.uk/seo-spider/)",
	PresetParadiseCrawler: "Mozilla/5.0 (compatible; ParadiseCrawler/1.0; +https://example.com/bot)",
	PresetGooglebot:       "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
}

// Resolve returns the User-Agent header string for preset. customUA is only
// consulted when preset is "custom"; it is returned verbatim since an
// operator-supplied UA is not validated or reshaped.
func Resolve(preset, customUA string) (string, error) {
	if preset == PresetCustom {
		if customUA == "" {
			return "", fmt.Errorf("useragent: --custom-ua is required when --user-agent custom")
		}
		return customUA, nil
	}
	if customUA != "" {
		return customUA, nil
	}
	ua, ok := presets[preset]
	if !ok {
		return "", fmt.Errorf("useragent: unknown preset %q", preset)
	}
	return ua, nil
}
