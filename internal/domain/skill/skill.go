// Package skill models member proficiencies and work item requirements.
package skill

import (
	"fmt"
	"strings"
)

// Proficiency bounds for a skill level.
const (
	MinLevel = 1
	MaxLevel = 5
)

// Skill is a named proficiency held by a member.
type Skill struct {
	Name  string `json:"name" yaml:"name"`
	Level int    `json:"level" yaml:"level"`
}

// Requirement is a named skill floor demanded by a work item.
type Requirement struct {
	Name     string `json:"name" yaml:"name"`
	MinLevel int    `json:"minLevel" yaml:"minLevel"`
}

// Set is a member's proficiency set. Order carries no meaning.
type Set []Skill

// Requirements is a work item's requirement set, evaluated in slice order.
type Requirements []Requirement

// Normalize returns a set with at most one entry per name, keeping the
// highest level seen. Blank names and non-positive levels are dropped and
// levels above MaxLevel are capped.
func Normalize(skills []Skill) Set {
	if len(skills) == 0 {
		return Set{}
	}
	out := make(Set, 0, len(skills))
	index := make(map[string]int, len(skills))
	for _, s := range skills {
		name := strings.TrimSpace(s.Name)
		if name == "" || s.Level < MinLevel {
			continue
		}
		level := min(s.Level, MaxLevel)
		if i, ok := index[name]; ok {
			out[i].Level = max(out[i].Level, level)
			continue
		}
		index[name] = len(out)
		out = append(out, Skill{Name: name, Level: level})
	}
	return out
}

// NormalizeRequirements returns requirements with at most one entry per
// name, keeping first-seen order and the strictest floor. A floor below
// MinLevel is raised to MinLevel so any holder of the skill satisfies it.
func NormalizeRequirements(reqs []Requirement) Requirements {
	if len(reqs) == 0 {
		return Requirements{}
	}
	out := make(Requirements, 0, len(reqs))
	index := make(map[string]int, len(reqs))
	for _, r := range reqs {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		floor := min(max(r.MinLevel, MinLevel), MaxLevel)
		if i, ok := index[name]; ok {
			out[i].MinLevel = max(out[i].MinLevel, floor)
			continue
		}
		index[name] = len(out)
		out = append(out, Requirement{Name: name, MinLevel: floor})
	}
	return out
}

// Level reports the level held for name.
func (s Set) Level(name string) (int, bool) {
	for _, sk := range s {
		if sk.Name == name {
			return sk.Level, true
		}
	}
	return 0, false
}

// Meets reports whether the set satisfies r.
func (s Set) Meets(r Requirement) bool {
	level, ok := s.Level(r.Name)
	return ok && level >= r.MinLevel
}

// Ratio returns min(level/minLevel, 1) for r, or 0 when the skill is absent.
func (s Set) Ratio(r Requirement) float64 {
	level, ok := s.Level(r.Name)
	if !ok || level <= 0 {
		return 0
	}
	floor := max(r.MinLevel, MinLevel)
	return min(float64(level)/float64(floor), 1.0)
}

// String renders the set as "React(4), CSS(3)".
func (s Set) String() string {
	parts := make([]string, len(s))
	for i, sk := range s {
		parts[i] = fmt.Sprintf("%s(%d)", sk.Name, sk.Level)
	}
	return strings.Join(parts, ", ")
}

// String renders the requirements as "React(3+), CSS(2+)".
func (r Requirements) String() string {
	parts := make([]string, len(r))
	for i, req := range r {
		parts[i] = fmt.Sprintf("%s(%d+)", req.Name, req.MinLevel)
	}
	return strings.Join(parts, ", ")
}
