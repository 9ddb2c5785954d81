// Package model contains domain records passed between layers.
package model

import "github.com/okian/taskflow/internal/domain/skill"

// Capacity is a member's per-iteration budget and committed points.
// CurrentLoad is derived from the assignment set; see ledger.Derive.
type Capacity struct {
	PointsPerSprint float64 `json:"pointsPerSprint" yaml:"pointsPerSprint"`
	CurrentLoad     float64 `json:"currentLoad" yaml:"currentLoad"`
}

// Utilization returns CurrentLoad/PointsPerSprint, or 0 without a budget.
func (c Capacity) Utilization() float64 {
	if c.PointsPerSprint <= 0 {
		return 0
	}
	return c.CurrentLoad / c.PointsPerSprint
}

// Member is a team member eligible to receive work items.
type Member struct {
	ID          string    `json:"id" yaml:"id"`
	Username    string    `json:"username,omitempty" yaml:"username,omitempty"`
	DisplayName string    `json:"displayName" yaml:"displayName"`
	TimeZone    string    `json:"timeZone,omitempty" yaml:"timeZone,omitempty"`
	Skills      skill.Set `json:"skills" yaml:"skills"`
	Capacity    Capacity  `json:"capacity" yaml:"capacity"`
}

// Clone returns a copy that shares no slices with m.
func (m Member) Clone() Member {
	out := m
	if m.Skills != nil {
		out.Skills = append(skill.Set(nil), m.Skills...)
	}
	return out
}
