// Package loadtest drives a running taskflow service over HTTP: it queues
// auto-assignment requests for every unassigned item, replays them to
// exercise deduplication, waits for the workers and checks the results.
package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/taskflow/pkg/logger"
)

// Run executes one load test.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("loadtest")

	log.Info(ctx, "starting taskflow load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	c := NewClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := c.getJSON(ctx, "/healthz", nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Plan requests from the unassigned items
	reqs, err := plan(ctx, cfg, c, stats)
	if err != nil {
		return stats, err
	}

	// Step 3: Submit concurrently
	if err := submitAll(ctx, cfg, c, reqs, stats); err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}

	// Step 4: Wait for the workers
	states, err := await(ctx, cfg, c, reqs)
	if err != nil {
		return stats, err
	}

	// Step 5: Verify
	verr := verifyResults(ctx, c, states, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	if cfg.ReportFile != "" {
		if err := saveReport(cfg.ReportFile, stats); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}
	displayFinalStats(ctx, stats)
	return stats, verr
}

// saveReport writes stats as JSON.
func saveReport(path string, stats *Stats) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), reportFilePermission)
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, requestsPerSecond float64
	if stats.Submitted > 0 {
		acceptRate = float64(stats.Accepted) / float64(stats.Submitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Named("loadtest").Info(ctx, "final statistics",
		logger.Int("items", stats.Items),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("backpressured", stats.Backpressured),
		logger.Int("failed", stats.Failed),
		logger.Int("applied", stats.Applied),
		logger.Int("rejected", stats.Rejected),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
