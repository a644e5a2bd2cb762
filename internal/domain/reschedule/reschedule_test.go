package reschedule_test

import (
	"errors"
	"testing"
	"time"

	intent "scheddy/internal/domain/intent"
	model "scheddy/internal/domain/model"
	reschedule "scheddy/internal/domain/reschedule"
	slot "scheddy/internal/domain/slot"
	. "github.com/smartystreets/goconvey/convey"
)

var monMorning = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func event(id string, start, end time.Time, priority int) model.Event {
	return model.Event{
		ID:       id,
		Owner:    "u1",
		Title:    id,
		Start:    start,
		End:      end,
		Priority: priority,
		Tag:      model.TagFromPriority(priority),
		Status:   model.StatusScheduled,
	}
}

func newPlanner() *reschedule.Planner {
	finder := slot.NewFinder(slot.WithNow(func() time.Time { return monMorning }))
	return reschedule.NewPlanner(finder)
}

// narrowPref confines the whole work day to 14:00-15:00 so a one-hour
// request has exactly one possible slot.
func narrowPref() model.AvailabilityPreference {
	pref := model.DefaultPreference("u1")
	pref.WorkStart = model.NewTimeOfDay(14, 0)
	pref.WorkEnd = model.NewTimeOfDay(15, 0)
	pref.LunchMinutes = 0
	return pref
}

func TestResolveDisplacesLowerPriority(t *testing.T) {
	Convey("Given a priority-2 event occupying the only slot", t, func() {
		pref := narrowPref()
		pref.AllowAutoReschedule = false
		events := []model.Event{
			event("errand", at(monMorning, 14, 0), at(monMorning, 15, 0), 2),
		}

		Convey("When a forced priority-9 request arrives", func() {
			plan, err := newPlanner().Resolve(events, pref, reschedule.Request{
				Title:           "emergency review",
				DurationMinutes: 60,
				Priority:        9,
				When:            intent.When{Kind: intent.WhenToday},
				ForceToday:      true,
			})

			Convey("Then the force flag overrides the disabled preference", func() {
				So(err, ShouldBeNil)
				So(plan.Placement.Start, ShouldEqual, at(monMorning, 14, 0))
			})

			Convey("Then the victim is relocated to the next open slot", func() {
				So(err, ShouldBeNil)
				So(len(plan.Moved), ShouldEqual, 1)
				move := plan.Moved[0]
				So(move.Event.ID, ShouldEqual, "errand")
				So(move.Old.Start, ShouldEqual, at(monMorning, 14, 0))
				So(move.New.Start, ShouldEqual, at(monMorning.AddDate(0, 0, 1), 14, 0))
			})
		})
	})
}

func TestResolveGate(t *testing.T) {
	Convey("Given auto-reschedule disabled and no force flag", t, func() {
		pref := narrowPref()
		pref.AllowAutoReschedule = false
		events := []model.Event{
			event("errand", at(monMorning, 14, 0), at(monMorning, 15, 0), 2),
		}

		Convey("When a request needs displacement", func() {
			_, err := newPlanner().Resolve(events, pref, reschedule.Request{
				Title:           "review",
				DurationMinutes: 60,
				Priority:        8,
				When:            intent.When{Kind: intent.WhenToday},
			})

			Convey("Then the gate rejects it", func() {
				So(errors.Is(err, reschedule.ErrAutoRescheduleDisabled), ShouldBeTrue)
			})
		})
	})
}

func TestResolveProtectedConflicts(t *testing.T) {
	Convey("Given the only conflict is a protected event", t, func() {
		pref := narrowPref()
		events := []model.Event{
			event("board meeting", at(monMorning, 14, 0), at(monMorning, 15, 0), 10),
		}

		Convey("When a priority-8 request wants that hour", func() {
			_, err := newPlanner().Resolve(events, pref, reschedule.Request{
				Title:           "review",
				DurationMinutes: 60,
				Priority:        8,
				When:            intent.When{Kind: intent.WhenToday},
			})

			Convey("Then the protected invariant wins over every flag", func() {
				So(errors.Is(err, reschedule.ErrOnlyProtectedConflicts), ShouldBeTrue)
			})
		})

		Convey("When even a forced priority-9 request wants it", func() {
			_, err := newPlanner().Resolve(events, pref, reschedule.Request{
				Title:           "still no",
				DurationMinutes: 60,
				Priority:        9,
				When:            intent.When{Kind: intent.WhenToday},
				ForceToday:      true,
			})

			So(errors.Is(err, reschedule.ErrOnlyProtectedConflicts), ShouldBeTrue)
		})
	})
}

func TestResolveEqualPriorityIsNotAVictim(t *testing.T) {
	Convey("Given a conflict at the same priority as the request", t, func() {
		pref := narrowPref()
		events := []model.Event{
			event("peer", at(monMorning, 14, 0), at(monMorning, 15, 0), 5),
		}

		Convey("When resolving", func() {
			_, err := newPlanner().Resolve(events, pref, reschedule.Request{
				Title:           "equal",
				DurationMinutes: 60,
				Priority:        5,
				When:            intent.When{Kind: intent.WhenToday},
			})

			Convey("Then an equal-priority event is never displaced", func() {
				So(errors.Is(err, reschedule.ErrNoSlotEvenAfterDisplacement), ShouldBeTrue)
			})
		})
	})
}

func TestResolveVictimOrder(t *testing.T) {
	Convey("Given two displaceable events of different priorities", t, func() {
		pref := model.DefaultPreference("u1")
		pref.WorkStart = model.NewTimeOfDay(14, 0)
		pref.WorkEnd = model.NewTimeOfDay(16, 0)
		pref.LunchMinutes = 0
		events := []model.Event{
			event("low", at(monMorning, 14, 0), at(monMorning, 15, 0), 2),
			event("mid", at(monMorning, 15, 0), at(monMorning, 16, 0), 4),
		}

		Convey("When one hour must be freed", func() {
			plan, err := newPlanner().Resolve(events, pref, reschedule.Request{
				Title:           "review",
				DurationMinutes: 60,
				Priority:        8,
				When:            intent.When{Kind: intent.WhenToday},
			})

			Convey("Then only the lowest-priority event moves", func() {
				So(err, ShouldBeNil)
				So(len(plan.Moved), ShouldEqual, 1)
				So(plan.Moved[0].Event.ID, ShouldEqual, "low")
				So(plan.Placement.Start, ShouldEqual, at(monMorning, 14, 0))
			})
		})
	})
}

func TestResolveAllOrNothing(t *testing.T) {
	Convey("Given a victim that cannot be re-placed anywhere", t, func() {
		// One-hour work day on every horizon day, all of them booked, so the
		// displaced victim has nowhere to go.
		pref := narrowPref()
		finder := slot.NewFinder(
			slot.WithNow(func() time.Time { return monMorning }),
			slot.WithHorizonDays(2),
		)
		planner := reschedule.NewPlanner(finder)

		events := []model.Event{
			event("victim", at(monMorning, 14, 0), at(monMorning, 15, 0), 2),
			event("tue", at(monMorning.AddDate(0, 0, 1), 14, 0), at(monMorning.AddDate(0, 0, 1), 15, 0), 7),
		}

		Convey("When resolving a high-priority request", func() {
			_, err := planner.Resolve(events, pref, reschedule.Request{
				Title:           "urgent",
				DurationMinutes: 60,
				Priority:        8,
				When:            intent.When{Kind: intent.WhenToday},
			})

			Convey("Then the whole operation fails and nothing is staged", func() {
				So(errors.Is(err, reschedule.ErrNoSlotEvenAfterDisplacement), ShouldBeTrue)
			})
		})
	})
}

func TestResolveNeverMovesProtected(t *testing.T) {
	Convey("Given a mixed calendar with protected and unprotected events", t, func() {
		pref := model.DefaultPreference("u1")
		pref.WorkStart = model.NewTimeOfDay(14, 0)
		pref.WorkEnd = model.NewTimeOfDay(16, 0)
		pref.LunchMinutes = 0
		events := []model.Event{
			event("critical", at(monMorning, 14, 0), at(monMorning, 15, 0), 10),
			event("chore", at(monMorning, 15, 0), at(monMorning, 16, 0), 3),
		}

		Convey("When a forced priority-9 request needs an hour", func() {
			plan, err := newPlanner().Resolve(events, pref, reschedule.Request{
				Title:           "incident",
				DurationMinutes: 60,
				Priority:        9,
				When:            intent.When{Kind: intent.WhenToday},
				ForceToday:      true,
			})

			Convey("Then only the unprotected event is touched", func() {
				So(err, ShouldBeNil)
				So(len(plan.Moved), ShouldEqual, 1)
				So(plan.Moved[0].Event.ID, ShouldEqual, "chore")
				So(plan.Placement.Start, ShouldEqual, at(monMorning, 15, 0))
			})
		})
	})
}
