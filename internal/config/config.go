package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	MigrationsDir string

	CheckInterval     time.Duration
	CheckPollInterval time.Duration
	CheckLockTTL      time.Duration
	Location          *time.Location

	WebhookURL       string
	WebhookSecret    string
	WebhookRateLimit int

	PushServerURL string
	PushTopic     string
	PushToken     string

	ChannelTimeout  time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),

		CheckInterval:     getEnvDuration("CHECK_INTERVAL", time.Hour),
		CheckPollInterval: getEnvDuration("CHECK_POLL_INTERVAL", 500*time.Millisecond),
		CheckLockTTL:      getEnvDuration("CHECK_LOCK_TTL", 2*time.Minute),

		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		WebhookSecret:    getEnv("WEBHOOK_SECRET", ""),
		WebhookRateLimit: getEnvInt("WEBHOOK_RATE_LIMIT", 5),

		PushServerURL: getEnv("PUSH_SERVER_URL", ""),
		PushTopic:     getEnv("PUSH_TOPIC", ""),
		PushToken:     getEnv("PUSH_TOKEN", ""),

		ChannelTimeout:  getEnvDuration("CHANNEL_TIMEOUT", 10*time.Second),
		BreakerFailures: getEnvInt("BREAKER_FAILURES", 5),
		BreakerCooldown: getEnvDuration("BREAKER_COOLDOWN", 30*time.Second),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.WebhookURL != "" && cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("WEBHOOK_SECRET is required when WEBHOOK_URL is set")
	}
	if (cfg.PushServerURL == "") != (cfg.PushTopic == "") {
		return nil, fmt.Errorf("PUSH_SERVER_URL and PUSH_TOPIC must be set together")
	}
	if cfg.CheckInterval <= 0 || cfg.CheckPollInterval <= 0 {
		return nil, fmt.Errorf("CHECK_INTERVAL and CHECK_POLL_INTERVAL must be positive")
	}
	if cfg.BreakerFailures <= 0 {
		return nil, fmt.Errorf("BREAKER_FAILURES must be positive")
	}

	return cfg, nil
}

// WebhookEnabled reports whether the web push relay is configured.
func (c *Config) WebhookEnabled() bool { return c.WebhookURL != "" }

// PushEnabled reports whether the native push relay is configured.
func (c *Config) PushEnabled() bool { return c.PushServerURL != "" }

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
