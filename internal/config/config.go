// Package config defines service configuration and its defaults.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath points at the SQLite database holding the CRM snapshot tables.
	// Empty selects the in-memory store.
	DBPath string `koanf:"db_path"`

	// SeedDemo loads the demo snapshot into the in-memory store.
	SeedDemo bool `koanf:"seed_demo"`

	// Tier1Threshold is the fiscal-year total an account must exceed to be Tier1.
	Tier1Threshold int64 `koanf:"tier1_threshold"`

	// FetchTimeoutMS bounds the snapshot fetch of a single query.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// ShutdownTimeoutMS bounds graceful HTTP shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		SeedDemo:          true,
		Tier1Threshold:    10_000_000,
		FetchTimeoutMS:    5000,
		ShutdownTimeoutMS: 10_000,
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}
