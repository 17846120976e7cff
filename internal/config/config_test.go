package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port: got %q, want 8080", cfg.Port)
	}
	if cfg.LLMBaseURL != "http://localhost:11434/v1" {
		t.Errorf("LLMBaseURL: got %q", cfg.LLMBaseURL)
	}
	if cfg.DefaultYear != 2025 {
		t.Errorf("DefaultYear: got %d, want 2025", cfg.DefaultYear)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL: got %s, want 24h", cfg.SessionTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("DEFAULT_YEAR", "2026")
	t.Setenv("USE_MEMORY_SESSIONS", "true")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.Port != "9001" {
		t.Errorf("Port: got %q, want 9001", cfg.Port)
	}
	if cfg.DefaultYear != 2026 {
		t.Errorf("DefaultYear: got %d, want 2026", cfg.DefaultYear)
	}
	if !cfg.UseMemorySessions {
		t.Error("UseMemorySessions: want true")
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL: got %s, want 30m", cfg.SessionTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins: got %v", cfg.CORSAllowedOrigins)
	}
}

func TestGetEnvAsIntFallsBack(t *testing.T) {
	t.Setenv("DEFAULT_YEAR", "not-a-number")
	if cfg := Load(); cfg.DefaultYear != 2025 {
		t.Errorf("DefaultYear: got %d, want fallback 2025", cfg.DefaultYear)
	}
}
