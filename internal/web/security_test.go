package web

import (
	"strings"
	"testing"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/config"
)

func TestResolveAPIKeyPriority(t *testing.T) {
	settings := config.Settings{GeminiAPIKey: "env-key"}

	key, err := ResolveAPIKey("header-key", "body-key", "gemini", settings)
	if err != nil || key != "header-key" {
		t.Errorf("header should win: %q %v", key, err)
	}

	key, err = ResolveAPIKey("", "body-key", "gemini", settings)
	if err != nil || key != "body-key" {
		t.Errorf("body should beat env: %q %v", key, err)
	}

	key, err = ResolveAPIKey("", "", "gemini", settings)
	if err != nil || key != "env-key" {
		t.Errorf("env fallback: %q %v", key, err)
	}
}

func TestResolveAPIKeyMissing(t *testing.T) {
	_, err := ResolveAPIKey("", "", "perplexity", config.Settings{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "PERPLEXITY_API_KEY") {
		t.Errorf("error should name the env var: %v", err)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := MaskAPIKey("sk-abcdef123456"); got != "sk-a...3456" {
		t.Errorf("mask = %q", got)
	}
	if got := MaskAPIKey("short"); got != "*****" {
		t.Errorf("short mask = %q", got)
	}
}

func TestValidateTargetURL(t *testing.T) {
	valid := []string{"https://example.com", "http://localhost:3000/path"}
	for _, u := range valid {
		if err := validateTargetURL(u); err != nil {
			t.Errorf("%s should be valid: %v", u, err)
		}
	}
	invalid := []string{"", "ftp://example.com", "example.com", "https://"}
	for _, u := range invalid {
		if err := validateTargetURL(u); err == nil {
			t.Errorf("%s should be invalid", u)
		}
	}
}
