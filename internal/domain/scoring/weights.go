package scoring

import (
	"fmt"
	"math"
)

// Default policy weights.
const (
	DefaultSkillWeight    = 0.7
	DefaultCapacityWeight = 0.3

	weightTolerance = 0.001
)

// Weights sets the relative importance of skill-fit and capacity-headroom.
// The pair must sum to 1.
type Weights struct {
	Skill    float64 `json:"skill"`
	Capacity float64 `json:"capacity"`
}

// DefaultWeights returns the 0.7/0.3 split.
func DefaultWeights() Weights {
	return Weights{Skill: DefaultSkillWeight, Capacity: DefaultCapacityWeight}
}

// Sum returns the total of both weights.
func (w Weights) Sum() float64 { return w.Skill + w.Capacity }

// Validate checks that the weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	if w.Skill < 0 || w.Capacity < 0 {
		return fmt.Errorf("%w: negative weight (skill=%g, capacity=%g)", ErrInvalidWeights, w.Skill, w.Capacity)
	}
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, must sum to 1.0", ErrInvalidWeights, w.Sum())
	}
	return nil
}
