package urlnorm

import (
	"net/url"
	"testing"
)

func TestNormalize_QueryOrderAndDefaultPort(t *testing.T) {
	opts := Options{SeedHosts: []string{"a.example"}}

	a, err := Normalize("https://a.example:443/p?b=2&a=1", nil, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Normalize("https://a.example/p?a=1&b=2", nil, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Canonical != b.Canonical {
		t.Errorf("expected equal canonical forms, got %q and %q", a.Canonical, b.Canonical)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	opts := Options{SeedHosts: []string{"a.example"}}
	n1, err := Normalize("HTTPS://A.Example:443//foo/../bar//baz?z=1&a=2#frag", nil, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n2, err := Normalize(n1.Canonical, nil, opts)
	if err != nil {
		t.Fatalf("unexpected error on second pass: %v", err)
	}

	if n1.Canonical != n2.Canonical {
		t.Errorf("normalization not idempotent: %q != %q", n1.Canonical, n2.Canonical)
	}
}

func TestNormalize_Classification(t *testing.T) {
	opts := Options{SeedHosts: []string{"a.example"}, IncludeSubdomains: true}

	tests := []struct {
		name  string
		input string
		want  Class
	}{
		{"internal seed host", "https://a.example/x", ClassInternal},
		{"internal subdomain", "https://blog.a.example/x", ClassInternal},
		{"social", "https://facebook.com/a.example", ClassSocial},
		{"network cdn", "https://cdn.cloudflare.com/lib.js", ClassNetwork},
		{"external", "https://other.example/x", ClassExternal},
		{"mail scheme", "mailto:hello@a.example", ClassMail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input, nil, opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Class != tt.want {
				t.Errorf("Normalize(%q) class = %v, want %v", tt.input, got.Class, tt.want)
			}
		})
	}
}

func TestNormalize_RelativeResolution(t *testing.T) {
	base, err := Normalize("https://a.example/dir/page", nil, Options{SeedHosts: []string{"a.example"}})
	if err != nil {
		t.Fatalf("unexpected error normalizing base: %v", err)
	}
	_ = base

	baseURL, err := url.Parse("https://a.example/dir/page")
	if err != nil {
		t.Fatalf("failed to parse base url: %v", err)
	}
	got, err := Normalize("../other?x=1", baseURL, Options{SeedHosts: []string{"a.example"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://a.example/other?x=1"
	if got.Canonical != want {
		t.Errorf("Normalize relative = %q, want %q", got.Canonical, want)
	}
}

func TestNormalize_MalformedURL(t *testing.T) {
	_, err := Normalize("", nil, Options{})
	if err == nil {
		t.Fatal("expected error for empty url")
	}

	_, err = Normalize("javascript:void(0)", nil, Options{})
	if err != nil {
		t.Fatalf("javascript: scheme should classify, not error: %v", err)
	}
}
