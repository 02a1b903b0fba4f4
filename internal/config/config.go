// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and LINEUP_ environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: json or text.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of search workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the request fingerprint cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Store selects the job store backend: memory or redis.
	Store string `koanf:"store"`

	RedisAddr   string `koanf:"redis_addr"`
	RedisDB     int    `koanf:"redis_db"`
	RedisPrefix string `koanf:"redis_prefix"`

	// ResultTTLSeconds bounds how long finished jobs are kept. Zero keeps them forever.
	ResultTTLSeconds int `koanf:"result_ttl_seconds"`

	// ExhaustiveMaxFree rejects exhaustive jobs with more free positions.
	ExhaustiveMaxFree int `koanf:"exhaustive_max_free"`

	// WarnThreshold is the permutation count above which a job needs confirmation.
	WarnThreshold uint64 `koanf:"warn_threshold"`

	// MaxTies caps the tied optima kept per exhaustive job. Zero is unlimited.
	MaxTies int `koanf:"max_ties"`

	// Annealing defaults applied when a request leaves them unset.
	AnnealMaxIterations      int     `koanf:"anneal_max_iterations"`
	AnnealInitialTemperature float64 `koanf:"anneal_initial_temperature"`
	AnnealCoolingRate        float64 `koanf:"anneal_cooling_rate"`

	// ProgressEvery logs search progress every N candidates. Zero disables it.
	ProgressEvery int `koanf:"progress_every"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		LogFormat:                "json",
		Addr:                     ":9080",
		QueueSize:                1024,
		WorkerCount:              runtime.NumCPU(),
		DedupeSize:               50_000,
		Store:                    StoreMemory,
		RedisAddr:                "localhost:6379",
		RedisDB:                  0,
		RedisPrefix:              "lineup",
		ResultTTLSeconds:         3600,
		ExhaustiveMaxFree:        11,
		WarnThreshold:            1_000_000,
		MaxTies:                  1000,
		AnnealMaxIterations:      10_000,
		AnnealInitialTemperature: 1000,
		AnnealCoolingRate:        0.003,
		ProgressEvery:            0,
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Store) {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if c.Store == StoreRedis && c.RedisAddr == "" {
		return fmt.Errorf("%w: redis_addr must be set for the redis store", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.QueueSize <= 0 || c.WorkerCount <= 0 {
		return fmt.Errorf("%w: queue_size and worker_count must be positive", ErrInvalidConfig)
	}
	if c.DedupeSize < 0 || c.MaxTies < 0 || c.ProgressEvery < 0 || c.ResultTTLSeconds < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidConfig)
	}
	if c.ExhaustiveMaxFree <= 0 {
		return fmt.Errorf("%w: exhaustive_max_free must be positive", ErrInvalidConfig)
	}
	if c.AnnealMaxIterations < 0 {
		return fmt.Errorf("%w: anneal_max_iterations must not be negative", ErrInvalidConfig)
	}
	if c.AnnealCoolingRate < 0 || c.AnnealCoolingRate > 1 {
		return fmt.Errorf("%w: anneal_cooling_rate must be within [0,1]", ErrInvalidConfig)
	}
	return nil
}
