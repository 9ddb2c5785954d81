package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/taskflow/internal/adapters/repository"
	"github.com/okian/taskflow/internal/domain/model"
	"github.com/okian/taskflow/internal/domain/skill"
	. "github.com/smartystreets/goconvey/convey"
)

func loadStore(t *testing.T, opts ...repository.Option) *repository.InMemoryStore {
	t.Helper()
	f, err := repository.LoadFile("testdata/roster.yaml")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	s, err := repository.NewInMemoryStore(append(opts, repository.WithFixture(f))...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestInMemoryStore_Reads(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store seeded from the sample fixture", t, func() {
		s := loadStore(t)

		Convey("Then members come back in roster order with derived loads", func() {
			members, err := s.Members(ctx)
			So(err, ShouldBeNil)
			So(members, ShouldHaveLength, 3)
			So(members[0].ID, ShouldEqual, "user_001")
			So(members[0].Capacity.CurrentLoad, ShouldEqual, 24)
			So(members[1].Capacity.CurrentLoad, ShouldEqual, 36)
			So(members[2].Capacity.CurrentLoad, ShouldEqual, 30)
		})

		Convey("Then usernames in the fixture are resolved to member ids", func() {
			item, err := s.Item(ctx, "TASK-090")
			So(err, ShouldBeNil)
			So(item.Assignee, ShouldEqual, "user_001")
		})

		Convey("Then members can be looked up by id or username", func() {
			byID, err := s.Member(ctx, "user_002")
			So(err, ShouldBeNil)
			byName, err := s.Member(ctx, "maya.patel")
			So(err, ShouldBeNil)
			So(byName, ShouldResemble, byID)
			So(byID.Capacity.CurrentLoad, ShouldEqual, 36)
		})

		Convey("Then unknown keys return sentinel errors", func() {
			_, err := s.Member(ctx, "nobody")
			So(errors.Is(err, repository.ErrMemberNotFound), ShouldBeTrue)
			_, err = s.Item(ctx, "TASK-999")
			So(errors.Is(err, repository.ErrItemNotFound), ShouldBeTrue)
		})

		Convey("Then filters narrow the items", func() {
			unassigned, _ := s.Items(ctx, repository.Filter{UnassignedOnly: true})
			So(unassigned, ShouldHaveLength, 3)
			So(unassigned[0].Key, ShouldEqual, "TASK-101")

			mine, _ := s.Items(ctx, repository.Filter{Assignee: "user_002"})
			So(mine, ShouldHaveLength, 2)

			todo, _ := s.Items(ctx, repository.Filter{Project: "TASK", Status: model.StatusToDo})
			So(todo, ShouldHaveLength, 3)
		})

		Convey("Then counts summarise the store", func() {
			So(s.Count(ctx), ShouldResemble, repository.Counts{Members: 3, Items: 8, Assigned: 5, Unassigned: 3})
		})

		Convey("Then returned values are copies", func() {
			item, _ := s.Item(ctx, "TASK-101")
			item.RequiredSkills[0].MinLevel = 5
			again, _ := s.Item(ctx, "TASK-101")
			So(again.RequiredSkills[0].MinLevel, ShouldEqual, 3)
		})
	})
}

func TestInMemoryStore_Assign(t *testing.T) {
	ctx := context.Background()
	stamp := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	Convey("Given a store with a fixed clock", t, func() {
		s := loadStore(t, repository.WithClock(func() time.Time { return stamp }))

		Convey("When an unassigned item is assigned by username", func() {
			item, err := s.Assign(ctx, "TASK-103", "supraja.reddy")

			Convey("Then the item points at the member id and is in progress", func() {
				So(err, ShouldBeNil)
				So(item.Assignee, ShouldEqual, "user_003")
				So(item.Status, ShouldEqual, model.StatusInProgress)
				So(item.Updated, ShouldEqual, stamp)
			})

			Convey("And the member's derived load grows by the story points", func() {
				m, _ := s.Member(ctx, "user_003")
				So(m.Capacity.CurrentLoad, ShouldEqual, 35)
			})
		})

		Convey("When the item or member is unknown", func() {
			_, errItem := s.Assign(ctx, "TASK-999", "user_001")
			_, errMember := s.Assign(ctx, "TASK-101", "nobody")

			Convey("Then nothing changes and sentinel errors are returned", func() {
				So(errors.Is(errItem, repository.ErrItemNotFound), ShouldBeTrue)
				So(errors.Is(errMember, repository.ErrMemberNotFound), ShouldBeTrue)
				item, _ := s.Item(ctx, "TASK-101")
				So(item.IsAssigned(), ShouldBeFalse)
			})
		})
	})
}

func TestInMemoryStore_Replace(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s, err := repository.NewInMemoryStore()
		So(err, ShouldBeNil)
		So(s.Count(ctx), ShouldResemble, repository.Counts{})

		Convey("When replacing with messy skills", func() {
			err := s.Replace(ctx,
				[]model.Member{{ID: "a", Skills: skill.Set{{Name: "Go", Level: 2}, {Name: "Go", Level: 4}, {Name: "", Level: 3}}}},
				[]model.WorkItem{{Key: "K-1", RequiredSkills: skill.Requirements{{Name: "Go", MinLevel: 0}}}},
			)

			Convey("Then skills and requirements are normalized and status defaults to To Do", func() {
				So(err, ShouldBeNil)
				m, _ := s.Member(ctx, "a")
				So(m.Skills, ShouldResemble, skill.Set{{Name: "Go", Level: 4}})
				item, _ := s.Item(ctx, "K-1")
				So(item.RequiredSkills[0].MinLevel, ShouldEqual, 1)
				So(item.Status, ShouldEqual, model.StatusToDo)
			})
		})

		Convey("When the roster is invalid", func() {
			_ = s.Replace(ctx, []model.Member{{ID: "keep"}}, nil)
			errDup := s.Replace(ctx, []model.Member{{ID: "x"}, {ID: "x"}}, nil)
			errKey := s.Replace(ctx, nil, []model.WorkItem{{Summary: "no key"}})
			errUser := s.Replace(ctx, []model.Member{{ID: "x", Username: "sam"}, {ID: "y", Username: "sam"}}, nil)

			Convey("Then the previous contents are kept", func() {
				So(errors.Is(errDup, repository.ErrInvalidRoster), ShouldBeTrue)
				So(errors.Is(errKey, repository.ErrInvalidRoster), ShouldBeTrue)
				So(errors.Is(errUser, repository.ErrInvalidRoster), ShouldBeTrue)
				So(errUser.Error(), ShouldContainSubstring, "duplicate username sam")
				_, err := s.Member(ctx, "sam")
				So(errors.Is(err, repository.ErrMemberNotFound), ShouldBeTrue)
				_, err = s.Member(ctx, "keep")
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestInMemoryStore_Snapshot(t *testing.T) {
	Convey("Given a store", t, func() {
		s := loadStore(t)

		Convey("Then a snapshot holds derived members and every item", func() {
			snap, err := s.Snapshot(context.Background())
			So(err, ShouldBeNil)
			So(snap.Members, ShouldHaveLength, 3)
			So(snap.Items, ShouldHaveLength, 8)
			So(snap.Members[0].Capacity.CurrentLoad, ShouldEqual, 24)
		})
	})
}
