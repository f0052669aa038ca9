// Package config loads daemon configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrMissingPepper is returned when VISITLY_PEPPER is unset. The pepper has
// no default: identifiers derived from a guessable secret would be
// reversible by anyone who knows it.
var ErrMissingPepper = errors.New("config: VISITLY_PEPPER is required")

// Config holds daemon configuration.
type Config struct {
	HTTPPort string
	DBPath   string
	LogLevel string

	// Pepper keys the identity hasher. Required, never defaulted.
	Pepper string

	// MinPingInterval overrides the throttle spacing. Zero means the
	// tracker default applies.
	MinPingInterval time.Duration
}

// Load reads configuration from the environment, applying defaults for
// everything except the pepper.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort: envOr("VISITLY_HTTP_PORT", "8080"),
		DBPath:   envOr("VISITLY_DB_PATH", "./data/visitly.db"),
		LogLevel: envOr("VISITLY_LOG_LEVEL", "INFO"),
		Pepper:   os.Getenv("VISITLY_PEPPER"),
	}
	if cfg.Pepper == "" {
		return nil, ErrMissingPepper
	}

	if raw := os.Getenv("VISITLY_MIN_PING_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("config: invalid VISITLY_MIN_PING_INTERVAL %q", raw)
		}
		cfg.MinPingInterval = d
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
