package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/taskflow/internal/domain/ledger"
	"github.com/okian/taskflow/internal/domain/model"
	"github.com/okian/taskflow/internal/domain/skill"
	"github.com/okian/taskflow/pkg/metrics"
)

// InMemoryStore is a Store guarded by a single RW mutex. Every read
// returns copies; callers never share slices with the store.
type InMemoryStore struct {
	mu        sync.RWMutex
	members   []model.Member
	items     []model.WorkItem
	memberIdx map[string]int
	usernames map[string]int
	itemIdx   map[string]int

	now  func() time.Time
	seed *Fixture
}

// NewInMemoryStore creates a store. A fixture given with WithFixture that
// fails validation returns an error.
func NewInMemoryStore(opts ...Option) (*InMemoryStore, error) {
	s := &InMemoryStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	members, items := []model.Member{}, []model.WorkItem{}
	if s.seed != nil {
		members, items = s.seed.Members, s.seed.Items
		s.seed = nil
	}
	if err := s.Replace(context.Background(), members, items); err != nil {
		return nil, err
	}
	return s, nil
}

// Members returns the roster with loads derived from the assigned items.
func (s *InMemoryStore) Members(context.Context) ([]model.Member, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledger.Derive(s.members, s.items), nil
}

// Member looks a member up by id, then by username.
func (s *InMemoryStore) Member(_ context.Context, ref string) (model.Member, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.memberIdx[ref]
	if !ok {
		i, ok = s.usernames[ref]
	}
	if !ok {
		return model.Member{}, fmt.Errorf("%w: %s", ErrMemberNotFound, ref)
	}
	m := s.members[i].Clone()
	m.Capacity.CurrentLoad = ledger.Loads(s.items)[m.ID]
	return m, nil
}

// Items returns the items matching f.
func (s *InMemoryStore) Items(_ context.Context, f Filter) ([]model.WorkItem, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.WorkItem, 0, len(s.items))
	for _, item := range s.items {
		if f.Match(item) {
			out = append(out, item.Clone())
		}
	}
	return out, nil
}

// Item returns the item with key.
func (s *InMemoryStore) Item(_ context.Context, key string) (model.WorkItem, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.itemIdx[key]
	if !ok {
		return model.WorkItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, key)
	}
	return s.items[i].Clone(), nil
}

// Snapshot returns roster and items under one read lock.
func (s *InMemoryStore) Snapshot(context.Context) (Snapshot, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.WorkItem, len(s.items))
	for i, item := range s.items {
		items[i] = item.Clone()
	}
	return Snapshot{Members: ledger.Derive(s.members, s.items), Items: items}, nil
}

// Assign sets the assignee of key to memberID, moves it to In Progress and
// stamps Updated. memberID may be an id or a username.
func (s *InMemoryStore) Assign(_ context.Context, key, memberID string) (model.WorkItem, error) {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.itemIdx[key]
	if !ok {
		return model.WorkItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, key)
	}
	m, ok := s.memberIdx[memberID]
	if !ok {
		m, ok = s.usernames[memberID]
	}
	if !ok {
		return model.WorkItem{}, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}

	item := &s.items[i]
	item.Assignee = s.members[m].ID
	item.Status = model.StatusInProgress
	item.Updated = s.now().UTC()
	s.publish()
	return item.Clone(), nil
}

// Replace validates and installs a new roster and item set. Skills and
// requirements are normalized. On error the previous contents are kept.
func (s *InMemoryStore) Replace(_ context.Context, members []model.Member, items []model.WorkItem) error {
	defer observeUpdate(time.Now())

	nm := make([]model.Member, len(members))
	memberIdx := make(map[string]int, len(members))
	usernames := make(map[string]int, len(members))
	for i, m := range members {
		if m.ID == "" {
			return fmt.Errorf("%w: member %d has no id", ErrInvalidRoster, i)
		}
		if _, dup := memberIdx[m.ID]; dup {
			return fmt.Errorf("%w: duplicate member id %s", ErrInvalidRoster, m.ID)
		}
		c := m.Clone()
		c.Skills = skill.Normalize(c.Skills)
		nm[i] = c
		memberIdx[m.ID] = i
		if m.Username != "" {
			if _, dup := usernames[m.Username]; dup {
				return fmt.Errorf("%w: duplicate username %s", ErrInvalidRoster, m.Username)
			}
			usernames[m.Username] = i
		}
	}

	ni := make([]model.WorkItem, len(items))
	itemIdx := make(map[string]int, len(items))
	for i, item := range items {
		if item.Key == "" {
			return fmt.Errorf("%w: item %d has no key", ErrInvalidRoster, i)
		}
		if _, dup := itemIdx[item.Key]; dup {
			return fmt.Errorf("%w: duplicate item key %s", ErrInvalidRoster, item.Key)
		}
		c := item.Clone()
		c.RequiredSkills = skill.NormalizeRequirements(c.RequiredSkills)
		if c.Assignee != "" {
			if u, ok := usernames[c.Assignee]; ok {
				c.Assignee = nm[u].ID
			}
		}
		if c.Status == "" {
			c.Status = model.StatusToDo
		}
		ni[i] = c
		itemIdx[item.Key] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.members, s.items = nm, ni
	s.memberIdx, s.usernames, s.itemIdx = memberIdx, usernames, itemIdx
	s.publish()
	return nil
}

// Count summarises the store.
func (s *InMemoryStore) Count(context.Context) Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts()
}

func (s *InMemoryStore) counts() Counts {
	c := Counts{Members: len(s.members), Items: len(s.items)}
	for _, item := range s.items {
		if item.IsAssigned() {
			c.Assigned++
		}
	}
	c.Unassigned = c.Items - c.Assigned
	return c
}

// publish updates gauges. Must be called with s.mu held.
func (s *InMemoryStore) publish() {
	c := s.counts()
	metrics.UpdateRosterMembers(c.Members)
	metrics.UpdateWorkItems(c.Assigned, c.Unassigned)
}

func observeQuery(start time.Time) {
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func observeUpdate(start time.Time) {
	metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
}
