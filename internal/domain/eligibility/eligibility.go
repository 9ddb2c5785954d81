// Package eligibility implements the hard gate deciding whether a member
// may receive a work item at all.
package eligibility

import (
	"fmt"
	"math"

	"github.com/okian/taskflow/internal/domain/model"
)

// DefaultCapacityThreshold is the inclusive utilization ceiling.
const DefaultCapacityThreshold = 0.9

// Outcome classifies a decision.
type Outcome string

// Decision outcomes.
const (
	OutcomeEligible Outcome = "eligible"
	OutcomeSkillGap Outcome = "skill_gap"
	OutcomeCapacity Outcome = "capacity"
)

// reasonEligible is reported when every rule passes.
const reasonEligible = "All constraints met"

// Decision is the result of checking a member against a work item.
type Decision struct {
	Eligible bool
	Outcome  Outcome
	Reason   string
}

// Checker decides eligibility.
type Checker interface {
	Check(member model.Member, item model.WorkItem) Decision
}

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithCapacityThreshold sets the utilization ceiling. Values outside (0,1]
// are ignored.
func WithCapacityThreshold(threshold float64) Option {
	return func(f *Filter) {
		if threshold > 0 && threshold <= 1 {
			f.threshold = threshold
		}
	}
}

// Filter evaluates the rules in order: skill floor, then capacity ceiling.
// The first failing rule decides.
type Filter struct {
	threshold float64
}

// New creates a Filter with the default threshold.
func New(opts ...Option) *Filter {
	f := &Filter{threshold: DefaultCapacityThreshold}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Threshold returns the configured capacity ceiling.
func (f *Filter) Threshold() float64 { return f.threshold }

// Check applies the rules to member and item.
func (f *Filter) Check(member model.Member, item model.WorkItem) Decision {
	for _, req := range item.RequiredSkills {
		level, ok := member.Skills.Level(req.Name)
		if !ok {
			return Decision{
				Outcome: OutcomeSkillGap,
				Reason:  fmt.Sprintf("Missing required skill: %s (level %d+)", req.Name, req.MinLevel),
			}
		}
		if level < req.MinLevel {
			return Decision{
				Outcome: OutcomeSkillGap,
				Reason:  fmt.Sprintf("Insufficient skill level: %s at %d, requires level %d+", req.Name, level, req.MinLevel),
			}
		}
	}

	if f.atCapacity(member.Capacity) {
		return Decision{
			Outcome: OutcomeCapacity,
			Reason:  fmt.Sprintf("Member at capacity limit (%s%%+)", formatPercent(f.threshold)),
		}
	}

	return Decision{Eligible: true, Outcome: OutcomeEligible, Reason: reasonEligible}
}

// atCapacity treats a missing or non-positive budget as no room at all.
func (f *Filter) atCapacity(c model.Capacity) bool {
	if c.PointsPerSprint <= 0 {
		return true
	}
	return c.CurrentLoad/c.PointsPerSprint >= f.threshold
}

func formatPercent(fraction float64) string {
	return fmt.Sprintf("%g", math.Round(fraction*1000)/10)
}
