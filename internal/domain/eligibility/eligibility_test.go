package eligibility_test

import (
	"testing"

	"github.com/okian/taskflow/internal/domain/eligibility"
	"github.com/okian/taskflow/internal/domain/model"
	"github.com/okian/taskflow/internal/domain/skill"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFilter_Check(t *testing.T) {
	Convey("Given the default filter", t, func() {
		f := eligibility.New()

		Convey("When the member lacks a required skill", func() {
			member := model.Member{
				ID:       "user_001",
				Skills:   skill.Set{{Name: "React", Level: 4}},
				Capacity: model.Capacity{PointsPerSprint: 40, CurrentLoad: 24},
			}
			item := model.WorkItem{RequiredSkills: skill.Requirements{
				{Name: "React", MinLevel: 3},
				{Name: "JavaScript", MinLevel: 4},
			}}
			d := f.Check(member, item)

			Convey("Then the member is ineligible and the reason cites the skill and level", func() {
				So(d.Eligible, ShouldBeFalse)
				So(d.Outcome, ShouldEqual, eligibility.OutcomeSkillGap)
				So(d.Reason, ShouldContainSubstring, "JavaScript")
				So(d.Reason, ShouldContainSubstring, "level 4")
			})
		})

		Convey("When the member's level is below the floor", func() {
			member := model.Member{
				Skills:   skill.Set{{Name: "React", Level: 2}},
				Capacity: model.Capacity{PointsPerSprint: 40},
			}
			d := f.Check(member, model.WorkItem{RequiredSkills: skill.Requirements{{Name: "React", MinLevel: 3}}})

			Convey("Then the reason names the skill and the required level", func() {
				So(d.Eligible, ShouldBeFalse)
				So(d.Reason, ShouldEqual, "Insufficient skill level: React at 2, requires level 3+")
			})
		})

		Convey("When several requirements fail", func() {
			member := model.Member{Capacity: model.Capacity{PointsPerSprint: 40, CurrentLoad: 39}}
			item := model.WorkItem{RequiredSkills: skill.Requirements{
				{Name: "Python", MinLevel: 4},
				{Name: "Django", MinLevel: 3},
			}}
			d := f.Check(member, item)

			Convey("Then the first failing rule wins", func() {
				So(d.Outcome, ShouldEqual, eligibility.OutcomeSkillGap)
				So(d.Reason, ShouldEqual, "Missing required skill: Python (level 4+)")
			})
		})

		Convey("When the member sits exactly at 90% utilization", func() {
			member := model.Member{
				Skills:   skill.Set{{Name: "Testing", Level: 5}},
				Capacity: model.Capacity{PointsPerSprint: 40, CurrentLoad: 36},
			}
			d := f.Check(member, model.WorkItem{RequiredSkills: skill.Requirements{{Name: "Testing", MinLevel: 1}}})

			Convey("Then the member is ineligible regardless of skill fit", func() {
				So(d.Eligible, ShouldBeFalse)
				So(d.Outcome, ShouldEqual, eligibility.OutcomeCapacity)
				So(d.Reason, ShouldEqual, "Member at capacity limit (90%+)")
			})
		})

		Convey("When the member has no capacity budget", func() {
			d := f.Check(model.Member{Capacity: model.Capacity{PointsPerSprint: 0}}, model.WorkItem{})

			Convey("Then the member is treated as at capacity", func() {
				So(d.Eligible, ShouldBeFalse)
				So(d.Outcome, ShouldEqual, eligibility.OutcomeCapacity)
			})
		})

		Convey("When the item has no requirements and the member has room", func() {
			d := f.Check(model.Member{Capacity: model.Capacity{PointsPerSprint: 45, CurrentLoad: 36}}, model.WorkItem{})

			Convey("Then the member is eligible with an affirmative reason", func() {
				So(d.Eligible, ShouldBeTrue)
				So(d.Outcome, ShouldEqual, eligibility.OutcomeEligible)
				So(d.Reason, ShouldEqual, "All constraints met")
			})
		})
	})

	Convey("Given a filter with a custom threshold", t, func() {
		f := eligibility.New(eligibility.WithCapacityThreshold(0.75))

		Convey("Then the ceiling and reason follow the threshold", func() {
			So(f.Threshold(), ShouldEqual, 0.75)
			d := f.Check(model.Member{Capacity: model.Capacity{PointsPerSprint: 40, CurrentLoad: 30}}, model.WorkItem{})
			So(d.Eligible, ShouldBeFalse)
			So(d.Reason, ShouldEqual, "Member at capacity limit (75%+)")
		})

		Convey("And out-of-range thresholds are ignored", func() {
			So(eligibility.New(eligibility.WithCapacityThreshold(0)).Threshold(), ShouldEqual, eligibility.DefaultCapacityThreshold)
			So(eligibility.New(eligibility.WithCapacityThreshold(1.5)).Threshold(), ShouldEqual, eligibility.DefaultCapacityThreshold)
		})
	})
}
