// Package repository holds the ticket store: the roster, the work items and
// the assignment write-back the ranking core never performs itself.
package repository

import (
	"context"

	"github.com/okian/taskflow/internal/domain/model"
)

// Filter narrows Items. Zero fields match everything.
type Filter struct {
	Project        string
	Assignee       string
	Status         model.Status
	UnassignedOnly bool
}

// Match reports whether item passes the filter.
func (f Filter) Match(item model.WorkItem) bool {
	if f.Project != "" && item.Project != f.Project {
		return false
	}
	if f.Assignee != "" && item.Assignee != f.Assignee {
		return false
	}
	if f.Status != "" && item.Status != f.Status {
		return false
	}
	if f.UnassignedOnly && item.IsAssigned() {
		return false
	}
	return true
}

// Snapshot is a consistent copy of the roster and the items. Member loads
// are derived from Items.
type Snapshot struct {
	Members []model.Member
	Items   []model.WorkItem
}

// Counts summarises the store contents.
type Counts struct {
	Members    int `json:"members"`
	Items      int `json:"items"`
	Assigned   int `json:"assigned"`
	Unassigned int `json:"unassigned"`
}

// Store provides read/write access to the roster and work items.
type Store interface {
	// Members returns the roster in roster order with derived loads.
	Members(ctx context.Context) ([]model.Member, error)
	// Member looks a member up by id or username.
	Member(ctx context.Context, ref string) (model.Member, error)
	// Items returns the items matching f in store order.
	Items(ctx context.Context, f Filter) ([]model.WorkItem, error)
	// Item returns the item with key.
	Item(ctx context.Context, key string) (model.WorkItem, error)
	// Snapshot returns roster and items taken atomically.
	Snapshot(ctx context.Context) (Snapshot, error)
	// Assign points the item at memberID and marks it in progress.
	Assign(ctx context.Context, key, memberID string) (model.WorkItem, error)
	// Replace swaps the whole store contents.
	Replace(ctx context.Context, members []model.Member, items []model.WorkItem) error
	Count(ctx context.Context) Counts
}
