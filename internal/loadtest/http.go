package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/taskflow/pkg/logger"
)

// submission outcomes
const (
	outcomeAccepted  = "accepted"
	outcomeDuplicate = "duplicate"
	outcomeBusy      = "backpressure"
	outcomeFailed    = "failed"
)

// Client is a JSON client for the taskflow HTTP API.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{base: base, http: &http.Client{Timeout: timeout}}
}

// getJSON decodes the response of GET path into v. Non-200 responses are
// errors.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// submit posts one assignment request and classifies the response.
func (c *Client) submit(ctx context.Context, r Request) (string, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return outcomeFailed, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/assignments", bytes.NewReader(body))
	if err != nil {
		return outcomeFailed, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return outcomeFailed, err
	}
	defer resp.Body.Close()

	var ack Ack
	_ = json.NewDecoder(resp.Body).Decode(&ack)

	switch resp.StatusCode {
	case http.StatusAccepted:
		return outcomeAccepted, nil
	case http.StatusOK:
		if ack.Duplicate {
			return outcomeDuplicate, nil
		}
		return outcomeFailed, fmt.Errorf("unexpected 200 for %s", r.EventID)
	case http.StatusTooManyRequests:
		return outcomeBusy, nil
	default:
		return outcomeFailed, fmt.Errorf("submit %s: status %d", r.EventID, resp.StatusCode)
	}
}

// status fetches the state of an assignment request.
func (c *Client) status(ctx context.Context, eventID string) (Status, error) {
	var st Status
	err := c.getJSON(ctx, "/assignments/"+url.PathEscape(eventID), &st)
	return st, err
}

// submitAll sends the requests with at most cfg.Workers in flight.
func submitAll(ctx context.Context, cfg *Config, c *Client, reqs []Request, stats *Stats) error {
	log := logger.Named("loadtest")
	log.Info(ctx, "submitting assignment requests",
		logger.Int("requests", len(reqs)), logger.Int("workers", cfg.Workers))

	var accepted, duplicate, busy, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, r := range reqs {
		g.Go(func() error {
			outcome, err := c.submit(gctx, r)
			switch outcome {
			case outcomeAccepted:
				accepted.Add(1)
			case outcomeDuplicate:
				duplicate.Add(1)
			case outcomeBusy:
				busy.Add(1)
			default:
				failed.Add(1)
				if cfg.Verbose {
					log.Warn(gctx, "submission failed", logger.String("eventId", r.EventID), logger.Error(err))
				}
			}
			return gctx.Err()
		})
	}
	err := g.Wait()

	stats.Submitted = len(reqs)
	stats.Accepted = int(accepted.Load())
	stats.Duplicates = int(duplicate.Load())
	stats.Backpressured = int(busy.Load())
	stats.Failed = int(failed.Load())

	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("backpressured", stats.Backpressured),
		logger.Int("failed", stats.Failed))
	return err
}
