package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/taskflow/internal/adapters/repository"
	"github.com/okian/taskflow/internal/domain/ledger"
	"github.com/okian/taskflow/internal/domain/model"
	"github.com/okian/taskflow/internal/domain/ranking"
	"github.com/okian/taskflow/internal/domain/skill"
	"github.com/okian/taskflow/pkg/metrics"
)

// Recommendation sources, used as metric labels.
const (
	sourceItem       = "item"
	sourceUnassigned = "unassigned"
	sourceAdHoc      = "adhoc"
	sourceAuto       = "auto"
)

// Recommendation is the ranked candidate list for one work item.
type Recommendation struct {
	RequestID   string              `json:"requestId"`
	Item        model.WorkItem      `json:"item"`
	Candidates  []ranking.Candidate `json:"candidates"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// AdHocRequest ranks members for an item without touching the store.
// When Assignments is non-nil the member loads are derived from it;
// otherwise the supplied currentLoad values are used.
type AdHocRequest struct {
	Members     []model.Member   `json:"members"`
	Item        model.WorkItem   `json:"item"`
	Assignments []model.WorkItem `json:"assignments,omitempty"`
	Top         int              `json:"top,omitempty"`
}

// TopN validates a requested result size. Zero selects the default.
func (s *Service) TopN(top int) (int, error) {
	switch {
	case top == 0:
		return s.defaultTopN, nil
	case top < 0 || top > s.maxTopN:
		return 0, fmt.Errorf("%w: %d, must be between 1 and %d", ErrInvalidTopN, top, s.maxTopN)
	}
	return top, nil
}

// Recommend ranks the roster for the stored item itemKey.
func (s *Service) Recommend(ctx context.Context, itemKey string, top int) (Recommendation, error) {
	if err := s.ready(); err != nil {
		return Recommendation{}, err
	}
	n, err := s.TopN(top)
	if err != nil {
		return Recommendation{}, err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return Recommendation{}, err
	}
	item, ok := findItem(snap.Items, itemKey)
	if !ok {
		return Recommendation{}, fmt.Errorf("%w: %s", repository.ErrItemNotFound, itemKey)
	}
	return s.rank(snap.Members, item, n, sourceItem), nil
}

// RecommendUnassigned ranks the roster for every unassigned item in one
// snapshot. Items are ranked in parallel; the result keeps store order.
func (s *Service) RecommendUnassigned(ctx context.Context, top int) ([]Recommendation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	n, err := s.TopN(top)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var items []model.WorkItem
	for _, item := range snap.Items {
		if !item.IsAssigned() {
			items = append(items, item)
		}
	}

	out := make([]Recommendation, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = s.rank(snap.Members, item, n, sourceUnassigned)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RecommendAdHoc ranks the supplied roster for the supplied item.
func (s *Service) RecommendAdHoc(_ context.Context, req AdHocRequest) (Recommendation, error) {
	n, err := s.TopN(req.Top)
	if err != nil {
		return Recommendation{}, err
	}
	if req.Item.Key == "" {
		return Recommendation{}, fmt.Errorf("%w: item key is required", ErrInvalidRequest)
	}

	members := make([]model.Member, len(req.Members))
	for i, m := range req.Members {
		c := m.Clone()
		c.Skills = skill.Normalize(c.Skills)
		members[i] = c
	}
	if req.Assignments != nil {
		members = ledger.Derive(members, req.Assignments)
	}
	item := req.Item.Clone()
	item.RequiredSkills = skill.NormalizeRequirements(item.RequiredSkills)

	return s.rank(members, item, n, sourceAdHoc), nil
}

// Pick returns the top non-excluded candidate for itemKey from a fresh
// snapshot. It serves automatic assignment requests. An item that is
// already assigned is ranked without its own points on the current
// assignee's load.
func (s *Service) Pick(ctx context.Context, itemKey string) (string, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	item, ok := findItem(snap.Items, itemKey)
	if !ok {
		return "", fmt.Errorf("%w: %s", repository.ErrItemNotFound, itemKey)
	}
	members := snap.Members
	if item.IsAssigned() {
		others := slices.DeleteFunc(slices.Clone(snap.Items), func(it model.WorkItem) bool {
			return it.Key == itemKey
		})
		members = ledger.Derive(snap.Members, others)
	}
	rec := s.rank(members, item, max(len(members), 1), sourceAuto)
	for _, c := range rec.Candidates {
		if !c.Excluded {
			return c.Member.ID, nil
		}
	}
	return "", fmt.Errorf("%w for %s", ErrNoEligibleCandidate, itemKey)
}

func (s *Service) rank(members []model.Member, item model.WorkItem, n int, source string) Recommendation {
	start := time.Now()
	candidates := s.ranker.Recommend(members, item, n)
	for _, c := range candidates {
		metrics.RecordCandidateEvaluated()
		if c.Excluded {
			metrics.RecordCandidateExcluded(string(c.Outcome))
		}
	}
	metrics.RecordRecommendation(source, float64(time.Since(start).Microseconds())/1000)

	return Recommendation{
		RequestID:   uuid.NewString(),
		Item:        item,
		Candidates:  candidates,
		GeneratedAt: time.Now().UTC(),
	}
}

func findItem(items []model.WorkItem, key string) (model.WorkItem, bool) {
	for _, item := range items {
		if item.Key == key {
			return item, true
		}
	}
	return model.WorkItem{}, false
}
