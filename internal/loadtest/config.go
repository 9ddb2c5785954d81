package loadtest

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ErrInvalidConfig reports unusable run parameters.
var ErrInvalidConfig = errors.New("invalid load test config")

// Config holds the parameters of one load test run.
type Config struct {
	BaseURL string
	// Rounds repeats the unassigned item set; every round after the first
	// replays the first round's event ids and must come back as duplicates.
	Rounds         int
	Workers        int
	Timeout        time.Duration
	PollInterval   time.Duration
	SettleTimeout  time.Duration
	ReportFile     string
	Verbose        bool
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base url %q", ErrInvalidConfig, c.BaseURL)
	}
	if c.Rounds < 1 {
		return fmt.Errorf("%w: rounds must be at least 1, got %d", ErrInvalidConfig, c.Rounds)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Timeout <= 0 || c.PollInterval <= 0 || c.SettleTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	return nil
}

// Request is an assignment request as sent over the wire.
type Request struct {
	EventID  string `json:"event_id"`
	ItemKey  string `json:"item_key"`
	MemberID string `json:"member_id,omitempty"`
}

// Status mirrors the service's assignment status document.
type Status struct {
	EventID  string `json:"eventId"`
	ItemKey  string `json:"itemKey"`
	MemberID string `json:"memberId"`
	State    string `json:"state"`
	Error    string `json:"error"`
}

// Ack is the response to an assignment submission.
type Ack struct {
	Status     string `json:"status"`
	Duplicate  bool   `json:"duplicate"`
	Assignment Status `json:"assignment"`
}

// Stats holds run statistics.
type Stats struct {
	Items          int           `json:"items"`
	Submitted      int           `json:"submitted"`
	Accepted       int           `json:"accepted"`
	Duplicates     int           `json:"duplicates"`
	Backpressured  int           `json:"backpressured"`
	Failed         int           `json:"failed"`
	Applied        int           `json:"applied"`
	Rejected       int           `json:"rejected"`
	Unsettled      int           `json:"unsettled"`
	Recommendation time.Duration `json:"recommendationLatency"`
	StartTime      time.Time     `json:"startTime"`
	EndTime        time.Time     `json:"endTime"`
	Duration       time.Duration `json:"duration"`
}
