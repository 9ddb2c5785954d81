// Package config defines service configuration and its loading.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Loading failures wrap ErrLoadConfig, validation failures ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/taskflow/internal/domain/eligibility"
	"github.com/okian/taskflow/internal/domain/ranking"
	"github.com/okian/taskflow/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// QueueSize bounds the assignment request queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of assignment workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many assignment request IDs are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// RosterFile is a YAML or JSON fixture loaded at startup.
	RosterFile string `koanf:"roster_file"`

	// WatchRoster reloads RosterFile when it changes.
	WatchRoster bool `koanf:"watch_roster"`

	// WatchDebounce is how long the watcher waits for writes to settle.
	WatchDebounce time.Duration `koanf:"watch_debounce"`

	SkillWeight       float64 `koanf:"skill_weight"`
	CapacityWeight    float64 `koanf:"capacity_weight"`
	CapacityThreshold float64 `koanf:"capacity_threshold"`

	// DefaultTopN is used when a request does not name a size; MaxTopN caps it.
	DefaultTopN int `koanf:"default_top_n"`
	MaxTopN     int `koanf:"max_top_n"`

	// SnapshotSchedule is a cron spec for the capacity snapshot job.
	// Empty disables the job.
	SnapshotSchedule string `koanf:"snapshot_schedule"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		RequestTimeout:    15 * time.Second,
		QueueSize:         1024,
		WorkerCount:       runtime.NumCPU(),
		DedupeSize:        10_000,
		WatchDebounce:     500 * time.Millisecond,
		SkillWeight:       scoring.DefaultSkillWeight,
		CapacityWeight:    scoring.DefaultCapacityWeight,
		CapacityThreshold: eligibility.DefaultCapacityThreshold,
		DefaultTopN:       ranking.DefaultTopN,
		MaxTopN:           50,
		SnapshotSchedule:  "@every 1m",
	}
}

// Weights returns the scoring weights.
func (c *Config) Weights() scoring.Weights {
	return scoring.Weights{Skill: c.SkillWeight, Capacity: c.CapacityWeight}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	}
	if c.WorkerCount < 0 {
		return fmt.Errorf("%w: worker_count must not be negative, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if err := c.Weights().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.CapacityThreshold <= 0 || c.CapacityThreshold > 1 {
		return fmt.Errorf("%w: capacity_threshold must be in (0,1], got %g", ErrInvalidConfig, c.CapacityThreshold)
	}
	if c.DefaultTopN < 1 {
		return fmt.Errorf("%w: default_top_n must be at least 1, got %d", ErrInvalidConfig, c.DefaultTopN)
	}
	if c.MaxTopN < c.DefaultTopN {
		return fmt.Errorf("%w: max_top_n (%d) below default_top_n (%d)", ErrInvalidConfig, c.MaxTopN, c.DefaultTopN)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.WatchRoster && c.RosterFile == "" {
		return fmt.Errorf("%w: watch_roster requires roster_file", ErrInvalidConfig)
	}
	if c.SnapshotSchedule != "" {
		if _, err := cron.ParseStandard(c.SnapshotSchedule); err != nil {
			return fmt.Errorf("%w: snapshot_schedule: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
