// Package scoring ranks candidates softly by combining skill-fit and
// capacity-headroom into a single score in [0,1].
package scoring

import (
	"math"

	"github.com/okian/taskflow/internal/domain/model"
	"github.com/okian/taskflow/internal/domain/skill"
)

// Option applies a configuration option to the WeightedScorer.
type Option func(*WeightedScorer)

// WithWeights sets the policy weights. Invalid weights are ignored; check
// them with Weights.Validate at configuration time.
func WithWeights(w Weights) Option {
	return func(s *WeightedScorer) {
		if w.Validate() == nil {
			s.weights = w
		}
	}
}

// Breakdown holds the components of a score.
type Breakdown struct {
	SkillFit         float64
	CapacityHeadroom float64
	Score            float64
}

// Scorer computes a score for a member against a work item.
type Scorer interface {
	Score(member model.Member, item model.WorkItem) Breakdown
}

// WeightedScorer implements Scorer as a weighted sum of its components.
type WeightedScorer struct {
	weights Weights
}

// NewWeightedScorer creates a scorer with the default weights.
func NewWeightedScorer(opts ...Option) *WeightedScorer {
	s := &WeightedScorer{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the weights in effect.
func (s *WeightedScorer) Weights() Weights { return s.weights }

// Score computes the score of member for item.
func (s *WeightedScorer) Score(member model.Member, item model.WorkItem) Breakdown {
	fit := SkillFit(member.Skills, item.RequiredSkills)
	headroom := CapacityHeadroom(member.Capacity)
	return Breakdown{
		SkillFit:         fit,
		CapacityHeadroom: headroom,
		Score:            clamp01(s.weights.Skill*fit + s.weights.Capacity*headroom),
	}
}

// SkillFit is the mean over requirements of min(level/minLevel, 1). A
// missing skill contributes 0; no requirements yields 1.
func SkillFit(have skill.Set, need skill.Requirements) float64 {
	if len(need) == 0 {
		return 1.0
	}
	var sum float64
	for _, req := range need {
		sum += have.Ratio(req)
	}
	return clamp01(sum / float64(len(need)))
}

// CapacityHeadroom is the uncommitted fraction of capacity, clamped to
// [0,1]. It is 0 without a positive budget.
func CapacityHeadroom(c model.Capacity) float64 {
	if c.PointsPerSprint <= 0 {
		return 0
	}
	return clamp01(1 - c.CurrentLoad/c.PointsPerSprint)
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}
