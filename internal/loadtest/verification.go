package loadtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/okian/taskflow/pkg/logger"
)

// ErrVerification reports state that disagrees with the applied assignments.
var ErrVerification = errors.New("verification failed")

// await polls every event until it leaves the queued state or the settle
// timeout passes.
func await(ctx context.Context, cfg *Config, c *Client, reqs []Request) (map[string]Status, error) {
	pending := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		pending[r.EventID] = struct{}{}
	}
	states := make(map[string]Status, len(pending))

	ctx, cancel := context.WithTimeout(ctx, cfg.SettleTimeout)
	defer cancel()
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		for id := range pending {
			st, err := c.status(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return states, nil
				}
				return states, fmt.Errorf("poll %s: %w", id, err)
			}
			states[id] = st
			if st.State != "queued" {
				delete(pending, id)
			}
		}
		if len(pending) == 0 {
			return states, nil
		}
		select {
		case <-ctx.Done():
			return states, nil
		case <-ticker.C:
		}
	}
}

type capacityOverview struct {
	Members []struct {
		MemberID string `json:"memberId"`
		Workload struct {
			TotalPoints float64 `json:"totalStoryPoints"`
		} `json:"workload"`
	} `json:"members"`
	Totals struct {
		TotalAssigned float64 `json:"totalAssigned"`
	} `json:"teamTotals"`
}

// verifyResults checks that every applied request is visible on its item
// and that the team totals agree with the member workloads.
func verifyResults(ctx context.Context, c *Client, states map[string]Status, stats *Stats) error {
	log := logger.Named("loadtest")
	var errs []error

	for _, st := range states {
		switch st.State {
		case "applied":
			stats.Applied++
			var item struct {
				Assignee string `json:"assignee"`
			}
			if err := c.getJSON(ctx, "/items/"+url.PathEscape(st.ItemKey), &item); err != nil {
				errs = append(errs, err)
				continue
			}
			if item.Assignee != st.MemberID {
				errs = append(errs, fmt.Errorf("%s assigned to %q, request applied %q", st.ItemKey, item.Assignee, st.MemberID))
			}
		case "failed":
			stats.Rejected++
			log.Debug(ctx, "assignment rejected", logger.String("item", st.ItemKey), logger.String("reason", st.Error))
		default:
			stats.Unsettled++
		}
	}
	if stats.Unsettled > 0 {
		errs = append(errs, fmt.Errorf("%d requests still queued", stats.Unsettled))
	}

	var o capacityOverview
	if err := c.getJSON(ctx, "/capacity", &o); err != nil {
		errs = append(errs, err)
	} else {
		var sum float64
		for _, m := range o.Members {
			sum += m.Workload.TotalPoints
		}
		if math.Abs(sum-o.Totals.TotalAssigned) > 1e-9 {
			errs = append(errs, fmt.Errorf("team assigned %g, members sum to %g", o.Totals.TotalAssigned, sum))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrVerification, errors.Join(errs...))
	}
	log.Info(ctx, "results verified",
		logger.Int("applied", stats.Applied),
		logger.Int("rejected", stats.Rejected))
	return nil
}
