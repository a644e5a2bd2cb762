package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"scheddy/internal/adapters/repository"
	"scheddy/internal/domain/model"
)

func newEvent(title string, start time.Time, minutes, priority int) model.Event {
	return model.Event{
		Title:    title,
		Start:    start,
		End:      start.Add(time.Duration(minutes) * time.Minute),
		Priority: priority,
		Status:   model.StatusScheduled,
	}
}

func TestMemoryStoreEvents(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	Convey("Given an empty store", t, func() {
		s := repository.NewMemoryStore(ctx)
		defer s.Close()

		Convey("When an event without an id is created", func() {
			stored, err := s.CreateEvent(ctx, "u1", newEvent("standup", base, 15, 5))

			Convey("Then it gets an id and the owner stamped on", func() {
				So(err, ShouldBeNil)
				So(stored.ID, ShouldNotBeEmpty)
				So(stored.Owner, ShouldEqual, "u1")
				So(s.Count(ctx), ShouldEqual, 1)
			})

			Convey("And it can be read back", func() {
				So(err, ShouldBeNil)
				got, err := s.GetEvent(ctx, "u1", stored.ID)
				So(err, ShouldBeNil)
				So(got.Title, ShouldEqual, "standup")
			})

			Convey("And another owner cannot see it", func() {
				So(err, ShouldBeNil)
				_, err := s.GetEvent(ctx, "u2", stored.ID)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

				events, err := s.ListEvents(ctx, "u2")
				So(err, ShouldBeNil)
				So(events, ShouldBeEmpty)
			})

			Convey("And re-creating the same id is rejected", func() {
				So(err, ShouldBeNil)
				_, err := s.CreateEvent(ctx, "u1", stored)
				So(errors.Is(err, repository.ErrDuplicateID), ShouldBeTrue)
			})
		})

		Convey("When several events are created out of order", func() {
			_, err := s.CreateEvent(ctx, "u1", newEvent("afternoon", base.Add(5*time.Hour), 30, 5))
			So(err, ShouldBeNil)
			_, err = s.CreateEvent(ctx, "u1", newEvent("morning", base, 30, 5))
			So(err, ShouldBeNil)

			Convey("Then ListEvents returns them ordered by start", func() {
				events, err := s.ListEvents(ctx, "u1")
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 2)
				So(events[0].Title, ShouldEqual, "morning")
				So(events[1].Title, ShouldEqual, "afternoon")
			})
		})

		Convey("When an unknown event is updated or deleted", func() {
			_, err := s.UpdateEvent(ctx, "u1", newEvent("ghost", base, 30, 5))
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			err = s.DeleteEvent(ctx, "u1", "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When an event is updated", func() {
			stored, err := s.CreateEvent(ctx, "u1", newEvent("draft", base, 30, 5))
			So(err, ShouldBeNil)

			stored.Title = "final"
			stored.Status = model.StatusCompleted
			got, err := s.UpdateEvent(ctx, "u1", stored)

			Convey("Then the replacement is visible", func() {
				So(err, ShouldBeNil)
				So(got.Title, ShouldEqual, "final")

				read, err := s.GetEvent(ctx, "u1", stored.ID)
				So(err, ShouldBeNil)
				So(read.Status, ShouldEqual, model.StatusCompleted)
			})
		})

		Convey("When an event is deleted", func() {
			stored, err := s.CreateEvent(ctx, "u1", newEvent("gone", base, 30, 5))
			So(err, ShouldBeNil)

			So(s.DeleteEvent(ctx, "u1", stored.ID), ShouldBeNil)

			Convey("Then it is no longer readable", func() {
				_, err := s.GetEvent(ctx, "u1", stored.ID)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(s.Count(ctx), ShouldEqual, 0)
			})
		})
	})
}

func TestMemoryStorePreferencesAndGoals(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := repository.NewMemoryStore(ctx)
		defer s.Close()

		Convey("When an owner has never stored a preference", func() {
			pref, err := s.GetPreference(ctx, "u1")

			Convey("Then the defaults come back", func() {
				So(err, ShouldBeNil)
				So(pref.Owner, ShouldEqual, "u1")
				So(pref.WorkStart, ShouldEqual, model.NewTimeOfDay(9, 0))
				So(pref.WorkEnd, ShouldEqual, model.NewTimeOfDay(18, 0))
			})
		})

		Convey("When a preference is stored", func() {
			pref := model.DefaultPreference("u1")
			pref.MaxTasksPerDay = 3
			So(s.PutPreference(ctx, "u1", pref), ShouldBeNil)

			Convey("Then reads return the stored copy", func() {
				got, err := s.GetPreference(ctx, "u1")
				So(err, ShouldBeNil)
				So(got.MaxTasksPerDay, ShouldEqual, 3)
			})
		})

		Convey("When goals are set", func() {
			goals := []model.WeeklyGoal{{Owner: "u1", WeekID: "2026-W10", Category: "learning", TargetHours: 5}}
			So(s.SetGoals(ctx, "u1", goals), ShouldBeNil)

			Convey("Then reads return a copy, not the backing slice", func() {
				got, err := s.GetGoals(ctx, "u1")
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)

				got[0].TargetHours = 99
				again, err := s.GetGoals(ctx, "u1")
				So(err, ShouldBeNil)
				So(again[0].TargetHours, ShouldEqual, 5.0)
			})
		})
	})
}
