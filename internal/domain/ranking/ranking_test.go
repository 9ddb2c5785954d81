package ranking_test

import (
	"testing"

	"github.com/okian/taskflow/internal/domain/eligibility"
	"github.com/okian/taskflow/internal/domain/model"
	"github.com/okian/taskflow/internal/domain/ranking"
	"github.com/okian/taskflow/internal/domain/skill"
	. "github.com/smartystreets/goconvey/convey"
)

func team() []model.Member {
	return []model.Member{
		{
			ID: "user_001", DisplayName: "Stacey Johnson",
			Skills:   skill.Set{{Name: "React", Level: 4}, {Name: "JavaScript", Level: 5}},
			Capacity: model.Capacity{PointsPerSprint: 40, CurrentLoad: 24},
		},
		{
			ID: "user_002", DisplayName: "Maya Patel",
			Skills:   skill.Set{{Name: "Python", Level: 5}, {Name: "API Design", Level: 5}},
			Capacity: model.Capacity{PointsPerSprint: 45, CurrentLoad: 36},
		},
		{
			ID: "user_003", DisplayName: "Supraja Reddy",
			Skills:   skill.Set{{Name: "Testing", Level: 5}, {Name: "Java", Level: 4}},
			Capacity: model.Capacity{PointsPerSprint: 42, CurrentLoad: 30},
		},
	}
}

func TestRanker_Recommend(t *testing.T) {
	Convey("Given a ranker and a three-member team", t, func() {
		r := ranking.New()
		members := team()

		Convey("When only one member has the required skill", func() {
			item := model.WorkItem{Key: "TASK-103", RequiredSkills: skill.Requirements{{Name: "Testing", MinLevel: 4}}}
			got := r.Recommend(members, item, 3)

			Convey("Then that member ranks first and the others are excluded with zero scores", func() {
				So(got, ShouldHaveLength, 3)
				So(got[0].Member.ID, ShouldEqual, "user_003")
				So(got[0].Rank, ShouldEqual, 1)
				So(got[0].Excluded, ShouldBeFalse)
				So(got[0].Score, ShouldBeGreaterThan, 0)
				for _, c := range got[1:] {
					So(c.Excluded, ShouldBeTrue)
					So(c.Eligible, ShouldBeFalse)
					So(c.Score, ShouldEqual, 0.0)
					So(c.Reason, ShouldContainSubstring, "Testing")
				}
			})

			Convey("And excluded members keep roster order", func() {
				So(got[1].Member.ID, ShouldEqual, "user_001")
				So(got[2].Member.ID, ShouldEqual, "user_002")
			})

			Convey("And excluded members still carry their computed components", func() {
				So(got[1].Headroom, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the item has no requirements", func() {
			got := r.Recommend(members, model.WorkItem{Key: "TASK-200"}, 3)

			Convey("Then headroom alone orders the eligible members", func() {
				// Headroom: 0.4, 0.2 and 0.2857.
				So(got[0].Member.ID, ShouldEqual, "user_001")
				So(got[1].Member.ID, ShouldEqual, "user_003")
				So(got[2].Member.ID, ShouldEqual, "user_002")
				So(got[2].Score, ShouldAlmostEqual, 0.76, 1e-9)
			})
		})

		Convey("When two members score the same", func() {
			twins := []model.Member{
				{ID: "b", Capacity: model.Capacity{PointsPerSprint: 10}},
				{ID: "a", Capacity: model.Capacity{PointsPerSprint: 10}},
				{ID: "c", Capacity: model.Capacity{PointsPerSprint: 10}},
			}
			got := r.Recommend(twins, model.WorkItem{}, 3)

			Convey("Then roster order breaks the tie", func() {
				So([]string{got[0].Member.ID, got[1].Member.ID, got[2].Member.ID}, ShouldResemble, []string{"b", "a", "c"})
			})
		})

		Convey("When called twice with identical input", func() {
			item := model.WorkItem{RequiredSkills: skill.Requirements{{Name: "React", MinLevel: 3}}}

			Convey("Then the output is identical", func() {
				So(r.Recommend(members, item, 3), ShouldResemble, r.Recommend(members, item, 3))
			})
		})

		Convey("When topN is smaller than the roster", func() {
			Convey("Then the result is truncated", func() {
				So(r.Recommend(members, model.WorkItem{}, 1), ShouldHaveLength, 1)
				So(r.Recommend(members, model.WorkItem{}, 10), ShouldHaveLength, 3)
			})
		})

		Convey("When topN is not positive", func() {
			big := append(team(), team()...)

			Convey("Then the default size applies", func() {
				So(r.Recommend(big, model.WorkItem{}, 0), ShouldHaveLength, ranking.DefaultTopN)
				So(ranking.New(ranking.WithDefaultTopN(5)).Recommend(big, model.WorkItem{}, -1), ShouldHaveLength, 5)
			})
		})

		Convey("When the roster is empty", func() {
			Convey("Then the result is empty", func() {
				So(r.Recommend(nil, model.WorkItem{}, 3), ShouldBeEmpty)
			})
		})

		Convey("When a candidate is recommended", func() {
			item := model.WorkItem{RequiredSkills: skill.Requirements{{Name: "React", MinLevel: 3}, {Name: "JavaScript", MinLevel: 4}}}
			got := r.Recommend(members, item, 1)

			Convey("Then the explanation spells out the numbers", func() {
				e := got[0].Explanation
				So(e.SkillMatch, ShouldEqual, "Skills: React(4/3) JavaScript(5/4)")
				So(e.CurrentLoad, ShouldEqual, "Current load: 24/40 points (60%)")
				So(e.Availability, ShouldEqual, "Available capacity: 16 points")
				So(e.Score, ShouldEqual, "Overall score: 0.82")
			})

			Convey("And the input roster is untouched", func() {
				got[0].Member.Skills[0].Level = 1
				So(members[0].Skills[0].Level, ShouldEqual, 4)
			})
		})
	})

	Convey("Given a team where nobody passes the gate", t, func() {
		r := ranking.New()
		members := []model.Member{
			{ID: "full", Skills: skill.Set{{Name: "Python", Level: 5}}, Capacity: model.Capacity{PointsPerSprint: 40, CurrentLoad: 40}},
			{ID: "none", Skills: skill.Set{{Name: "Java", Level: 5}}, Capacity: model.Capacity{PointsPerSprint: 40}},
			{ID: "junior", Skills: skill.Set{{Name: "Python", Level: 2}}, Capacity: model.Capacity{PointsPerSprint: 40}},
			{ID: "ceiling", Skills: skill.Set{{Name: "Python", Level: 4}}, Capacity: model.Capacity{PointsPerSprint: 40, CurrentLoad: 36}},
		}
		item := model.WorkItem{Key: "TASK-300", RequiredSkills: skill.Requirements{{Name: "Python", MinLevel: 4}}}
		got := r.Recommend(members, item, 3)

		Convey("Then topN excluded entries come back in roster order", func() {
			So(got, ShouldHaveLength, 3)
			for i, c := range got {
				So(c.Rank, ShouldEqual, i+1)
				So(c.Excluded, ShouldBeTrue)
				So(c.Eligible, ShouldBeFalse)
				So(c.Score, ShouldEqual, 0.0)
				So(c.Reason, ShouldNotBeEmpty)
			}
			So(got[0].Member.ID, ShouldEqual, "full")
			So(got[1].Member.ID, ShouldEqual, "none")
			So(got[2].Member.ID, ShouldEqual, "junior")
		})

		Convey("And each carries the rule it failed", func() {
			So(got[0].Outcome, ShouldEqual, eligibility.OutcomeCapacity)
			So(got[0].Reason, ShouldContainSubstring, "capacity")
			So(got[1].Outcome, ShouldEqual, eligibility.OutcomeSkillGap)
			So(got[1].Reason, ShouldContainSubstring, "Missing required skill: Python")
			So(got[2].Outcome, ShouldEqual, eligibility.OutcomeSkillGap)
			So(got[2].Reason, ShouldContainSubstring, "Insufficient skill level")
		})

		Convey("And the member on the inclusive ceiling is excluded too", func() {
			all := r.Recommend(members, item, 10)
			So(all, ShouldHaveLength, 4)
			So(all[3].Member.ID, ShouldEqual, "ceiling")
			So(all[3].Outcome, ShouldEqual, eligibility.OutcomeCapacity)
			So(all[3].Score, ShouldEqual, 0.0)
		})
	})

	Convey("Given a ranker with a stricter capacity gate", t, func() {
		r := ranking.New(ranking.WithChecker(eligibility.New(eligibility.WithCapacityThreshold(0.7))))
		got := r.Recommend(team(), model.WorkItem{}, 3)

		Convey("Then only members below the ceiling stay eligible", func() {
			So(got[0].Member.ID, ShouldEqual, "user_001")
			So(got[1].Excluded, ShouldBeTrue)
			So(got[2].Excluded, ShouldBeTrue)
			So(got[1].Outcome, ShouldEqual, eligibility.OutcomeCapacity)
		})
	})
}
