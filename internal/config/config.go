// Package config loads the demo cache's runtime configuration from
// environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the tunables for the segcached-demo binary.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// CacheCapacity is the segment unit U: the entry count of each segment.
	// The cache as a whole has no fixed maximum; it grows one segment of
	// this size at a time.
	CacheCapacity int `envconfig:"CACHE_CAPACITY" default:"1024"`

	// CacheTTL is the per-entry time-to-live. Zero disables expiry: entries
	// are then never expired by Get, Put or the janitor.
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	// JanitorInterval schedules the background expiry sweep. Zero disables
	// it, leaving the cache to expire entries lazily on Get/Put only.
	JanitorInterval time.Duration `envconfig:"JANITOR_INTERVAL" default:"30s"`

	// EagerGetExpiry recovers the original tempuscache behavior of
	// deleting an expired entry on the Get call that discovers it.
	EagerGetExpiry bool `envconfig:"EAGER_GET_EXPIRY" default:"false"`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}
