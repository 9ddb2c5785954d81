package ranking

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/taskflow/internal/domain/model"
)

// Explanation is a human-readable account of a candidate's numbers.
type Explanation struct {
	SkillMatch   string `json:"skillMatch"`
	CurrentLoad  string `json:"currentLoad"`
	Availability string `json:"availability"`
	Score        string `json:"score"`
}

func explain(member model.Member, item model.WorkItem, score float64) Explanation {
	var skills strings.Builder
	skills.WriteString("Skills:")
	if len(item.RequiredSkills) == 0 {
		skills.WriteString(" none required")
	}
	for _, req := range item.RequiredSkills {
		level, _ := member.Skills.Level(req.Name)
		fmt.Fprintf(&skills, " %s(%d/%d)", req.Name, level, req.MinLevel)
	}

	c := member.Capacity
	return Explanation{
		SkillMatch: skills.String(),
		CurrentLoad: fmt.Sprintf("Current load: %s/%s points (%d%%)",
			formatPoints(c.CurrentLoad), formatPoints(c.PointsPerSprint), int(math.Round(c.Utilization()*100))),
		Availability: fmt.Sprintf("Available capacity: %s points", formatPoints(c.PointsPerSprint-c.CurrentLoad)),
		Score:        fmt.Sprintf("Overall score: %.2f", score),
	}
}

func formatPoints(p float64) string {
	return fmt.Sprintf("%g", math.Round(p*10)/10)
}
