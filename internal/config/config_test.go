package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Fatalf("APITimeout = %v, want 10s", cfg.APITimeout)
	}
	if cfg.APIProfile != "api" {
		t.Fatalf("APIProfile = %q, want api", cfg.APIProfile)
	}
	if cfg.APIBaseURL != "" {
		t.Fatalf("APIBaseURL = %q, want empty", cfg.APIBaseURL)
	}
	if cfg.TranscriptTTL != 7*24*time.Hour {
		t.Fatalf("TranscriptTTL = %v", cfg.TranscriptTTL)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", " http://kg.internal:5000 ")
	t.Setenv("API_PROFILE", "Blueprint")
	t.Setenv("API_TIMEOUT_MS", "2500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://kg.internal:5000" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.APIProfile != "blueprint" {
		t.Fatalf("APIProfile = %q", cfg.APIProfile)
	}
	if cfg.APITimeout != 2500*time.Millisecond {
		t.Fatalf("APITimeout = %v", cfg.APITimeout)
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("API_TIMEOUT_MS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
}

func TestLoadRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("TRANSCRIPT_TTL_SECONDS", "-1")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative ttl")
	}
}
