// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the projection queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of projection workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the delivery_id dedupe window.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the innings store.
	ShardCount int `koanf:"shard_count"`

	// MaxBoardLimit caps GET /live?limit.
	MaxBoardLimit int `koanf:"max_board_limit"`

	// StrictBallOrder rejects deliveries positioned before the last one.
	StrictBallOrder bool `koanf:"strict_ball_order"`

	// DataFile is where innings are persisted. Empty disables persistence.
	DataFile string `koanf:"data_file"`

	// SnapshotIntervalMS is how often the data file is rewritten while
	// running. Zero saves only on shutdown.
	SnapshotIntervalMS int `koanf:"snapshot_interval_ms"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		QueueSize:          10_000,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         100_000,
		ShardCount:         16,
		MaxBoardLimit:      100,
		StrictBallOrder:    false,
		DataFile:           "",
		SnapshotIntervalMS: 30_000,
	}
}

// SnapshotInterval returns SnapshotIntervalMS as a duration.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotIntervalMS) * time.Millisecond
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ShardCount < 1:
		return fmt.Errorf("%w: shard_count must be at least 1", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be at least 1", ErrInvalidConfig)
	case c.MaxBoardLimit < 1:
		return fmt.Errorf("%w: max_board_limit must be at least 1", ErrInvalidConfig)
	case c.SnapshotIntervalMS < 0:
		return fmt.Errorf("%w: snapshot_interval_ms must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
