package loadtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/taskflow/pkg/logger"
)

type itemList struct {
	Items []struct {
		Key string `json:"key"`
	} `json:"items"`
	Count int `json:"count"`
}

type recommendationList struct {
	Count int `json:"count"`
}

// plan reads the unassigned items, times one ranking of all of them and
// builds cfg.Rounds auto-assignment requests per item. Rounds after the
// first reuse the event ids of the first.
func plan(ctx context.Context, cfg *Config, c *Client, stats *Stats) ([]Request, error) {
	log := logger.Named("loadtest")

	var items itemList
	if err := c.getJSON(ctx, "/items/unassigned", &items); err != nil {
		return nil, fmt.Errorf("list unassigned items: %w", err)
	}
	stats.Items = len(items.Items)

	start := time.Now()
	var recs recommendationList
	if err := c.getJSON(ctx, "/recommendations", &recs); err != nil {
		return nil, fmt.Errorf("rank unassigned items: %w", err)
	}
	stats.Recommendation = time.Since(start)
	if recs.Count != stats.Items {
		return nil, fmt.Errorf("ranked %d items, expected %d", recs.Count, stats.Items)
	}

	first := make([]Request, 0, len(items.Items))
	for _, it := range items.Items {
		first = append(first, Request{EventID: uuid.NewString(), ItemKey: it.Key})
	}
	reqs := make([]Request, 0, len(first)*cfg.Rounds)
	for range cfg.Rounds {
		reqs = append(reqs, first...)
	}

	log.Info(ctx, "planned assignment requests",
		logger.Int("items", stats.Items),
		logger.Int("requests", len(reqs)),
		logger.Duration("rankingLatency", stats.Recommendation))
	return reqs, nil
}
