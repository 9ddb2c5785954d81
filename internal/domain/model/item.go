package model

import (
	"time"

	"github.com/okian/taskflow/internal/domain/skill"
)

// Status is the workflow state of a work item in the ticket store.
type Status string

// Known work item states.
const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// WorkItem is a ticket that can be assigned to at most one member.
// An empty Assignee means the item is unassigned.
type WorkItem struct {
	Key            string             `json:"key" yaml:"key"`
	Summary        string             `json:"summary,omitempty" yaml:"summary,omitempty"`
	Project        string             `json:"project,omitempty" yaml:"project,omitempty"`
	IssueType      string             `json:"issueType,omitempty" yaml:"issueType,omitempty"`
	Priority       string             `json:"priority,omitempty" yaml:"priority,omitempty"`
	Status         Status             `json:"status,omitempty" yaml:"status,omitempty"`
	StoryPoints    float64            `json:"storyPoints" yaml:"storyPoints"`
	RequiredSkills skill.Requirements `json:"requiredSkills" yaml:"requiredSkills"`
	Assignee       string             `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	Labels         []string           `json:"labels,omitempty" yaml:"labels,omitempty"`
	DueDate        string             `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	Updated        time.Time          `json:"updated,omitzero" yaml:"updated,omitempty"`
}

// IsAssigned reports whether the item has an assignee.
func (w WorkItem) IsAssigned() bool { return w.Assignee != "" }

// AssignedTo reports whether the item points at memberID.
func (w WorkItem) AssignedTo(memberID string) bool {
	return memberID != "" && w.Assignee == memberID
}

// Clone returns a copy that shares no slices with w.
func (w WorkItem) Clone() WorkItem {
	out := w
	if w.RequiredSkills != nil {
		out.RequiredSkills = append(skill.Requirements(nil), w.RequiredSkills...)
	}
	if w.Labels != nil {
		out.Labels = append([]string(nil), w.Labels...)
	}
	return out
}
