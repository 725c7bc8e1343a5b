package bypass

import (
	"net/http"
	"testing"
)

func headers(kv map[string]string) http.Header {
	h := http.Header{}
	for k, v := range kv {
		h.Set(k, v)
	}
	return h
}

func TestDetectCloudflare(t *testing.T) {
	if detected, _ := detectCloudflare(200, headers(map[string]string{"Server": "nginx"}), []byte("OK")); detected {
		t.Errorf("expected not detected")
	}

	if detected, src := detectCloudflare(403, headers(map[string]string{"Server": "cloudflare"}), []byte("Access Denied")); !detected || src != "Cloudflare" {
		t.Errorf("expected Cloudflare detection by header")
	}

	if detected, src := detectCloudflare(503, headers(nil), []byte("<html>... cf-turnstile ...</html>")); !detected || src != "Cloudflare" {
		t.Errorf("expected Cloudflare detection by body")
	}
}

func TestDetectAkamai(t *testing.T) {
	if detected, src := detectAkamai(403, headers(map[string]string{"Server": "AkamaiGHost"}), []byte("")); !detected || src != "Akamai" {
		t.Errorf("expected Akamai detection by header")
	}
	if detected, src := detectAkamai(403, headers(nil), []byte("Access Denied... Reference #123.456")); !detected || src != "Akamai" {
		t.Errorf("expected Akamai detection by body")
	}
}

func TestDetectDataDome(t *testing.T) {
	if detected, src := detectDataDome(403, headers(map[string]string{"X-DataDome": "1"}), []byte("")); !detected || src != "DataDome" {
		t.Errorf("expected DataDome detection by header")
	}
	if detected, src := detectDataDome(403, headers(nil), []byte("script src='https://geo.captcha-delivery.com/...'")); !detected || src != "DataDome" {
		t.Errorf("expected DataDome detection by body")
	}
}

func TestDetectPerimeterX(t *testing.T) {
	if detected, src := detectPerimeterX(403, headers(map[string]string{"X-Px-Captcha": "required"}), []byte("")); !detected || src != "PerimeterX" {
		t.Errorf("expected PerimeterX detection by header")
	}
	if detected, src := detectPerimeterX(403, headers(nil), []byte("window._pxBlock = true;")); !detected || src != "PerimeterX" {
		t.Errorf("expected PerimeterX detection by body")
	}
}

func TestDetect(t *testing.T) {
	detectors := DefaultDetectors()

	detected, src := Detect(403, headers(map[string]string{"X-DataDome": "1"}), []byte(""), detectors)
	if !detected || src != "DataDome" {
		t.Errorf("expected DataDome detection, got detected=%v src=%q", detected, src)
	}

	detectedSafe, srcSafe := Detect(200, headers(nil), []byte("hello"), detectors)
	if detectedSafe || srcSafe != "" {
		t.Errorf("expected no detection for a clean 200, got detected=%v src=%q", detectedSafe, srcSafe)
	}
}
