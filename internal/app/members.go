package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/okian/taskflow/internal/adapters/repository"
	"github.com/okian/taskflow/internal/domain/ledger"
	"github.com/okian/taskflow/internal/domain/model"
)

// Members returns the roster with derived loads.
func (s *Service) Members(ctx context.Context) ([]model.Member, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.Members(ctx)
}

// Member returns the member with the given id or username.
func (s *Service) Member(ctx context.Context, ref string) (model.Member, error) {
	if err := s.ready(); err != nil {
		return model.Member{}, err
	}
	return s.store.Member(ctx, ref)
}

// SearchMembers fuzzy-matches query against id, username and display
// name, best match first. An empty query returns the whole roster.
func (s *Service) SearchMembers(ctx context.Context, query string) ([]model.Member, error) {
	members, err := s.Members(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return members, nil
	}

	matches := fuzzy.FindFrom(query, memberSource(members))
	out := make([]model.Member, 0, len(matches))
	for _, m := range matches {
		out = append(out, members[m.Index])
	}
	return out, nil
}

// memberSource adapts a roster to fuzzy.Source.
type memberSource []model.Member

func (m memberSource) String(i int) string {
	return m[i].ID + " " + m[i].Username + " " + m[i].DisplayName
}

func (m memberSource) Len() int { return len(m) }

// Items returns the stored items matching f.
func (s *Service) Items(ctx context.Context, f repository.Filter) ([]model.WorkItem, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.Items(ctx, f)
}

// Item returns the stored item with key.
func (s *Service) Item(ctx context.Context, key string) (model.WorkItem, error) {
	if err := s.ready(); err != nil {
		return model.WorkItem{}, err
	}
	return s.store.Item(ctx, key)
}

// Workload returns a member's committed load. ref may be an id or a
// username.
func (s *Service) Workload(ctx context.Context, ref string) (ledger.MemberWorkload, error) {
	if err := s.ready(); err != nil {
		return ledger.MemberWorkload{}, err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return ledger.MemberWorkload{}, err
	}
	for _, m := range snap.Members {
		if m.ID == ref || (m.Username != "" && m.Username == ref) {
			return ledger.MemberWorkload{
				MemberID:    m.ID,
				DisplayName: m.DisplayName,
				TimeZone:    m.TimeZone,
				Workload:    ledger.Compute(m, snap.Items),
			}, nil
		}
	}
	return ledger.MemberWorkload{}, fmt.Errorf("%w: %s", repository.ErrMemberNotFound, ref)
}

// Capacity returns the team capacity overview.
func (s *Service) Capacity(ctx context.Context) (ledger.Overview, error) {
	if err := s.ready(); err != nil {
		return ledger.Overview{}, err
	}
	return s.overview(ctx)
}

func (s *Service) overview(ctx context.Context) (ledger.Overview, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return ledger.Overview{}, err
	}
	return ledger.TeamOverview(snap.Members, snap.Items), nil
}
