package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/reminders")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.CheckInterval != time.Hour {
		t.Errorf("CheckInterval = %v", cfg.CheckInterval)
	}
	if cfg.CheckPollInterval != 500*time.Millisecond {
		t.Errorf("CheckPollInterval = %v", cfg.CheckPollInterval)
	}
	if cfg.WebhookRateLimit != 5 || cfg.BreakerFailures != 5 {
		t.Errorf("unexpected limits: %+v", cfg)
	}
	if cfg.MigrationsDir != "migrations" {
		t.Errorf("MigrationsDir = %q", cfg.MigrationsDir)
	}
	if cfg.WebhookEnabled() || cfg.PushEnabled() {
		t.Error("relays should be disabled by default")
	}
	if cfg.Location == nil {
		t.Error("Location should default to Local")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CHECK_INTERVAL", "15m")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("WEBHOOK_URL", "http://localhost:9000/reminders/success")
	t.Setenv("WEBHOOK_SECRET", "s3cret")
	t.Setenv("WEBHOOK_RATE_LIMIT", "2")
	t.Setenv("PUSH_SERVER_URL", "https://ntfy.sh")
	t.Setenv("PUSH_TOPIC", "subs")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" || cfg.CheckInterval != 15*time.Minute {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v", cfg.Location)
	}
	if !cfg.WebhookEnabled() || !cfg.PushEnabled() || cfg.WebhookRateLimit != 2 {
		t.Errorf("relay config not applied: %+v", cfg)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("CHECK_INTERVAL", "soon")
	t.Setenv("WEBHOOK_RATE_LIMIT", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CheckInterval != time.Hour || cfg.WebhookRateLimit != 5 {
		t.Errorf("expected defaults for unparseable values: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{"DATABASE_URL": "", "REDIS_URL": "redis://x"}},
		{"missing redis", map[string]string{"DATABASE_URL": "postgres://x", "REDIS_URL": ""}},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}},
		{"webhook without secret", map[string]string{"WEBHOOK_URL": "http://x"}},
		{"push without topic", map[string]string{"PUSH_SERVER_URL": "https://ntfy.sh"}},
		{"negative interval", map[string]string{"CHECK_INTERVAL": "-1m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
