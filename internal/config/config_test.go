package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SlotMinutes != 30 {
		t.Errorf("expected default slot size 30, got %d", cfg.SlotMinutes)
	}
	if cfg.SlotHorizonDays != 30 {
		t.Errorf("expected default horizon 30 days, got %d", cfg.SlotHorizonDays)
	}
	if cfg.Currency != "INR" {
		t.Errorf("expected default currency INR, got %s", cfg.Currency)
	}
	if cfg.OrderAttemptWindow != time.Hour {
		t.Errorf("expected default order attempt window 1h, got %s", cfg.OrderAttemptWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SLOT_MINUTES", "60")
	t.Setenv("ALLOW_FAKE_GATEWAY", "true")
	t.Setenv("ORDER_ATTEMPT_WINDOW", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.SlotMinutes != 60 {
		t.Errorf("expected slot size 60, got %d", cfg.SlotMinutes)
	}
	if !cfg.AllowFakeGateway {
		t.Error("expected fake gateway enabled")
	}
	if cfg.OrderAttemptWindow != 30*time.Minute {
		t.Errorf("expected 30m window, got %s", cfg.OrderAttemptWindow)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SLOT_MINUTES", "sixty")
	t.Setenv("ORDER_ATTEMPT_WINDOW", "soon")

	cfg := Load()

	if cfg.SlotMinutes != 30 {
		t.Errorf("malformed int should fall back to default, got %d", cfg.SlotMinutes)
	}
	if cfg.OrderAttemptWindow != time.Hour {
		t.Errorf("malformed duration should fall back to default, got %s", cfg.OrderAttemptWindow)
	}
}
