// Package ranking orders roster members for a work item. Eligibility gates
// first; scores order what passes.
package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/taskflow/internal/domain/eligibility"
	"github.com/okian/taskflow/internal/domain/model"
	"github.com/okian/taskflow/internal/domain/scoring"
)

// DefaultTopN is the result size when none is requested.
const DefaultTopN = 3

// Candidate is one ranked member for a work item.
type Candidate struct {
	Rank        int                 `json:"rank"`
	Member      model.Member        `json:"member"`
	Score       float64             `json:"score"`
	SkillFit    float64             `json:"skillFit"`
	Headroom    float64             `json:"capacityHeadroom"`
	Eligible    bool                `json:"eligible"`
	Excluded    bool                `json:"excluded"`
	Outcome     eligibility.Outcome `json:"outcome"`
	Reason      string              `json:"reason"`
	Explanation Explanation         `json:"explanation"`
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithChecker sets the eligibility gate.
func WithChecker(c eligibility.Checker) Option {
	return func(r *Ranker) {
		if c != nil {
			r.checker = c
		}
	}
}

// WithScorer sets the scoring function.
func WithScorer(s scoring.Scorer) Option {
	return func(r *Ranker) {
		if s != nil {
			r.scorer = s
		}
	}
}

// WithDefaultTopN sets the size used when Recommend is called with topN <= 0.
func WithDefaultTopN(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.defaultTopN = n
		}
	}
}

// Ranker combines a Checker and a Scorer. It holds no per-call state and is
// safe for concurrent use.
type Ranker struct {
	checker     eligibility.Checker
	scorer      scoring.Scorer
	defaultTopN int
}

// New creates a Ranker with the default filter and scorer.
func New(opts ...Option) *Ranker {
	r := &Ranker{
		checker:     eligibility.New(),
		scorer:      scoring.NewWeightedScorer(),
		defaultTopN: DefaultTopN,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultTopN returns the size used for non-positive requests.
func (r *Ranker) DefaultTopN() int { return r.defaultTopN }

// Recommend returns at most topN candidates for item ordered by score
// descending. Equal scores keep roster order. Ineligible members are kept
// with a zero score and Excluded set. The inputs are not modified.
func (r *Ranker) Recommend(members []model.Member, item model.WorkItem, topN int) []Candidate {
	if topN <= 0 {
		topN = r.defaultTopN
	}
	candidates := make([]Candidate, 0, len(members))
	for _, m := range members {
		candidates = append(candidates, r.evaluate(m.Clone(), item))
	}

	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates
}

func (r *Ranker) evaluate(member model.Member, item model.WorkItem) Candidate {
	decision := r.checker.Check(member, item)
	breakdown := r.scorer.Score(member, item)

	c := Candidate{
		Member:   member,
		SkillFit: breakdown.SkillFit,
		Headroom: breakdown.CapacityHeadroom,
		Eligible: decision.Eligible,
		Excluded: !decision.Eligible,
		Outcome:  decision.Outcome,
		Reason:   decision.Reason,
	}
	if decision.Eligible {
		c.Score = breakdown.Score
	}
	c.Explanation = explain(member, item, c.Score)
	return c
}
