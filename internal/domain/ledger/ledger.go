// Package ledger derives member workload and team utilization from an
// assignment snapshot. Every function is a pure derivation over its inputs.
package ledger

import (
	"math"
	"strconv"

	"github.com/okian/taskflow/internal/domain/model"
)

const percent = 100

// Workload is a member's committed load against their sprint capacity.
type Workload struct {
	MemberID           string  `json:"memberId"`
	AssignedCount      int     `json:"assignedTasks"`
	TotalPoints        float64 `json:"totalStoryPoints"`
	MaxCapacity        float64 `json:"maxCapacity"`
	UtilizationPercent float64 `json:"utilizationPercent"`
	AvailableCapacity  float64 `json:"availableCapacity"`
}

// MemberWorkload pairs a roster entry with its workload.
type MemberWorkload struct {
	MemberID    string   `json:"memberId"`
	DisplayName string   `json:"displayName"`
	TimeZone    string   `json:"timeZone,omitempty"`
	Workload    Workload `json:"workload"`
}

// Totals aggregates the team. AverageUtilization is the unweighted mean of
// the per-member utilization percentages.
type Totals struct {
	TotalCapacity      float64 `json:"totalCapacity"`
	TotalAssigned      float64 `json:"totalAssigned"`
	AverageUtilization float64 `json:"averageUtilization"`
}

// Overview is the team capacity view.
type Overview struct {
	Members []MemberWorkload `json:"members"`
	Totals  Totals           `json:"teamTotals"`
}

// Compute returns the workload of member over the items pointing at it.
// Items assigned to anyone else are ignored.
func Compute(member model.Member, items []model.WorkItem) Workload {
	w := Workload{
		MemberID:    member.ID,
		MaxCapacity: member.Capacity.PointsPerSprint,
	}
	for _, item := range items {
		if !item.AssignedTo(member.ID) {
			continue
		}
		w.AssignedCount++
		w.TotalPoints += points(item)
	}
	w.UtilizationPercent = utilizationPercent(w.TotalPoints, w.MaxCapacity)
	w.AvailableCapacity = w.MaxCapacity - w.TotalPoints
	return w
}

// Loads returns the committed story points per assignee id.
func Loads(items []model.WorkItem) map[string]float64 {
	loads := make(map[string]float64)
	for _, item := range items {
		if !item.IsAssigned() {
			continue
		}
		loads[item.Assignee] += points(item)
	}
	return loads
}

// Derive returns copies of members whose CurrentLoad is recomputed from
// items. The inputs are not modified.
func Derive(members []model.Member, items []model.WorkItem) []model.Member {
	loads := Loads(items)
	out := make([]model.Member, len(members))
	for i, m := range members {
		c := m.Clone()
		c.Capacity.CurrentLoad = loads[m.ID]
		out[i] = c
	}
	return out
}

// TeamOverview aggregates the workload of every member. An empty roster
// yields zero totals.
func TeamOverview(members []model.Member, items []model.WorkItem) Overview {
	o := Overview{Members: make([]MemberWorkload, 0, len(members))}
	var utilizationSum float64
	for _, m := range members {
		w := Compute(m, items)
		o.Members = append(o.Members, MemberWorkload{
			MemberID:    m.ID,
			DisplayName: m.DisplayName,
			TimeZone:    m.TimeZone,
			Workload:    w,
		})
		o.Totals.TotalCapacity += w.MaxCapacity
		o.Totals.TotalAssigned += w.TotalPoints
		utilizationSum += w.UtilizationPercent
	}
	if len(members) > 0 {
		o.Totals.AverageUtilization = roundTenth(utilizationSum / float64(len(members)))
	}
	return o
}

func utilizationPercent(total, maxCapacity float64) float64 {
	if maxCapacity <= 0 {
		return 0
	}
	return roundTenth(total / maxCapacity * percent)
}

// points treats negative or NaN story points as zero.
func points(item model.WorkItem) float64 {
	if math.IsNaN(item.StoryPoints) || item.StoryPoints < 0 {
		return 0
	}
	return item.StoryPoints
}

// roundTenth rounds the exact binary value of x to one decimal place,
// sending ties to even.
func roundTenth(x float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	if err != nil {
		return x
	}
	return r
}
