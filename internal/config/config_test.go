package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL == "" || cfg.Port == "" {
		t.Fatal("defaults missing")
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("poll interval = %v, want 30s", cfg.PollInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PUNCHR_SERVER_URL", "http://attendance:9000")
	t.Setenv("PUNCHR_USER", "u42")
	t.Setenv("PUNCHR_ROLE", "manager")
	t.Setenv("PUNCHR_POLL_INTERVAL", "10s")
	t.Setenv("PUNCHR_REMINDER_EXEMPT_ROLES", "admin, contractor")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != "http://attendance:9000" || cfg.UserID != "u42" || cfg.UserRole != "manager" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("poll interval = %v", cfg.PollInterval)
	}
	if len(cfg.ExemptRoles) != 2 || cfg.ExemptRoles[1] != "contractor" {
		t.Fatalf("exempt roles = %v", cfg.ExemptRoles)
	}
}

func TestLoadBareSecondsInterval(t *testing.T) {
	t.Setenv("PUNCHR_POLL_INTERVAL", "15")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PollInterval != 15*time.Second {
		t.Fatalf("poll interval = %v, want 15s", cfg.PollInterval)
	}
}

func TestLoadRejectsTinyInterval(t *testing.T) {
	t.Setenv("PUNCHR_POLL_INTERVAL", "100ms")
	if _, err := Load(); err == nil {
		t.Fatal("sub-second poll interval should be rejected")
	}
}
