package useragent

import "testing"

func TestResolve_Presets(t *testing.T) {
	ua, err := Resolve(PresetGooglebot, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ua != presets[PresetGooglebot] {
		t.Errorf("unexpected UA: %s", ua)
	}
}

func TestResolve_CustomRequiresValue(t *testing.T) {
	if _, err := Resolve(PresetCustom, ""); err == nil {
		t.Error("expected error for custom preset without --custom-ua")
	}
	ua, err := Resolve(PresetCustom, "my-bot/1.0")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ua != "my-bot/1.0" {
		t.Errorf("expected my-bot/1.0, got %s", ua)
	}
}

func TestResolve_CustomUAOverridesPreset(t *testing.T) {
	ua, err := Resolve(PresetScreamingFrog, "override/2.0")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ua != "override/2.0" {
		t.Errorf("expected override to win, got %s", ua)
	}
}

func TestResolve_UnknownPreset(t *testing.T) {
	if _, err := Resolve("not-a-preset", ""); err == nil {
		t.Error("expected error for unknown preset")
	}
}
