package skill_test

import (
	"testing"

	"github.com/okian/taskflow/internal/domain/skill"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given a raw skill list", t, func() {
		Convey("When names repeat", func() {
			set := skill.Normalize([]skill.Skill{
				{Name: "React", Level: 3},
				{Name: "CSS", Level: 2},
				{Name: "React", Level: 4},
			})

			Convey("Then one entry per name is kept with the highest level", func() {
				So(set, ShouldHaveLength, 2)
				level, ok := set.Level("React")
				So(ok, ShouldBeTrue)
				So(level, ShouldEqual, 4)
			})
		})

		Convey("When entries are malformed", func() {
			set := skill.Normalize([]skill.Skill{
				{Name: "  ", Level: 3},
				{Name: "Go", Level: 0},
				{Name: "Python", Level: 9},
			})

			Convey("Then blanks and zero levels are dropped and levels are capped", func() {
				So(set, ShouldHaveLength, 1)
				So(set[0], ShouldResemble, skill.Skill{Name: "Python", Level: skill.MaxLevel})
			})
		})

		Convey("When the list is nil", func() {
			Convey("Then an empty set is returned", func() {
				So(skill.Normalize(nil), ShouldBeEmpty)
			})
		})
	})
}

func TestNormalizeRequirements(t *testing.T) {
	Convey("Given raw requirements", t, func() {
		reqs := skill.NormalizeRequirements([]skill.Requirement{
			{Name: "JavaScript", MinLevel: 4},
			{Name: "React", MinLevel: 0},
			{Name: "JavaScript", MinLevel: 5},
			{Name: "", MinLevel: 3},
		})

		Convey("Then order is preserved and the strictest floor wins", func() {
			So(reqs, ShouldResemble, skill.Requirements{
				{Name: "JavaScript", MinLevel: 5},
				{Name: "React", MinLevel: skill.MinLevel},
			})
		})
	})
}

func TestSetComparisons(t *testing.T) {
	Convey("Given a member skill set", t, func() {
		set := skill.Set{{Name: "React", Level: 2}, {Name: "Testing", Level: 5}}

		Convey("Then Meets checks the floor inclusively", func() {
			So(set.Meets(skill.Requirement{Name: "Testing", MinLevel: 5}), ShouldBeTrue)
			So(set.Meets(skill.Requirement{Name: "React", MinLevel: 3}), ShouldBeFalse)
			So(set.Meets(skill.Requirement{Name: "Java", MinLevel: 1}), ShouldBeFalse)
		})

		Convey("Then Ratio is capped at one and zero when absent", func() {
			So(set.Ratio(skill.Requirement{Name: "React", MinLevel: 4}), ShouldEqual, 0.5)
			So(set.Ratio(skill.Requirement{Name: "Testing", MinLevel: 4}), ShouldEqual, 1.0)
			So(set.Ratio(skill.Requirement{Name: "Java", MinLevel: 2}), ShouldEqual, 0.0)
		})

		Convey("Then the set renders as a readable list", func() {
			So(set.String(), ShouldEqual, "React(2), Testing(5)")
			reqs := skill.Requirements{{Name: "React", MinLevel: 3}}
			So(reqs.String(), ShouldEqual, "React(3+)")
		})
	})
}
