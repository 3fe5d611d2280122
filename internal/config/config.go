// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Build a Config via New(ctx) for defaults; Load(ctx) layers file and env.
// - The loaded Config is passed to components at startup and never mutated.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file path (":memory:" for ephemeral runs).
	DBPath string `koanf:"db_path"`

	// JWTSecret verifies HS256 bearer tokens. Required.
	JWTSecret string `koanf:"jwt_secret"`

	// WindowDays is the trailing interaction window used by refresh runs.
	WindowDays int `koanf:"window_days"`

	// QueueSize bounds the in-memory refresh job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of refresh workers.
	WorkerCount int `koanf:"worker_count"`

	// DefaultFeedLimit applies when GET explore omits ?limit.
	DefaultFeedLimit int `koanf:"default_feed_limit"`

	// MaxFeedLimit caps GET explore ?limit.
	MaxFeedLimit int `koanf:"max_feed_limit"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		DBPath:           "den.db",
		WindowDays:       7,
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU() * 2,
		DefaultFeedLimit: 20,
		MaxFeedLimit:     100,
	}
}
