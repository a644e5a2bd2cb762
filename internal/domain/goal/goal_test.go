package goal_test

import (
	"errors"
	"testing"
	"time"

	goal "scheddy/internal/domain/goal"
	model "scheddy/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func learningEvent(id string, start time.Time, hours float64) model.Event {
	return model.Event{
		ID:       id,
		Owner:    "u1",
		Title:    id,
		Start:    start,
		End:      start.Add(time.Duration(hours * float64(time.Hour))),
		Priority: 5,
		Category: "learning",
		Status:   model.StatusScheduled,
	}
}

func TestWeekID(t *testing.T) {
	Convey("Given ISO week identifiers", t, func() {
		Convey("Then instants format as year-Wweek", func() {
			So(goal.WeekID(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)), ShouldEqual, "2026-W10")
		})

		Convey("Then week bounds run Monday to Monday", func() {
			start, end, err := goal.WeekBounds("2026-W10")
			So(err, ShouldBeNil)
			So(start.Weekday(), ShouldEqual, time.Monday)
			So(start, ShouldEqual, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
			So(end.Sub(start), ShouldEqual, 7*24*time.Hour)
		})

		Convey("Then malformed identifiers are rejected", func() {
			_, _, err := goal.WeekBounds("gibberish")
			So(errors.Is(err, goal.ErrBadWeekID), ShouldBeTrue)
			_, _, err = goal.WeekBounds("2026-W99")
			So(errors.Is(err, goal.ErrBadWeekID), ShouldBeTrue)
		})
	})
}

func TestRecompute(t *testing.T) {
	Convey("Given a 5-hour learning target and 3 hours scheduled", t, func() {
		monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		events := []model.Event{
			learningEvent("go book", monday, 2),
			learningEvent("course", monday.AddDate(0, 0, 1), 1),
		}
		targets := map[string]float64{"learning": 5}

		Convey("When recomputing the week", func() {
			got, err := goal.Recompute("2026-W10", events, targets)
			So(err, ShouldBeNil)

			Convey("Then the fold matches the declared target", func() {
				p := got["learning"]
				So(p.TargetHours, ShouldEqual, 5)
				So(p.CompletedHours, ShouldEqual, 3)
				So(p.RemainingHours, ShouldEqual, 2)
				So(p.Percent, ShouldEqual, 60)
				So(p.Complete(), ShouldBeFalse)
			})
		})

		Convey("When an event is cancelled it stops counting", func() {
			events[1].Status = model.StatusCancelled
			got, err := goal.Recompute("2026-W10", events, targets)
			So(err, ShouldBeNil)
			So(got["learning"].CompletedHours, ShouldEqual, 2)
		})

		Convey("When an event straddles the week boundary it is clipped", func() {
			sundayNight := time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC)
			got, err := goal.Recompute("2026-W10", append(events, learningEvent("late", sundayNight, 3)), targets)
			So(err, ShouldBeNil)
			So(got["learning"].CompletedHours, ShouldEqual, 4)
		})

		Convey("When the target is zero", func() {
			got, err := goal.Recompute("2026-W10", events, map[string]float64{"exercise": 0})
			So(err, ShouldBeNil)

			Convey("Then the percentage reads zero, not a division fault", func() {
				So(got["exercise"].Percent, ShouldEqual, 0)
			})
		})

		Convey("When progress exceeds the target the percentage caps", func() {
			got, err := goal.Recompute("2026-W10", events, map[string]float64{"learning": 1})
			So(err, ShouldBeNil)
			So(got["learning"].Percent, ShouldEqual, 100)
		})
	})
}

func TestCategorize(t *testing.T) {
	Convey("Given keyword-based categorization", t, func() {
		Convey("Then recognizable tasks land in their category", func() {
			So(goal.Categorize("Morning gym session", ""), ShouldEqual, "exercise")
			So(goal.Categorize("Read the Go book", ""), ShouldEqual, "learning")
			So(goal.Categorize("Team standup", ""), ShouldEqual, "meetings")
			So(goal.Categorize("Debug the importer", ""), ShouldEqual, "coding")
		})

		Convey("Then unknown tasks fall back to general", func() {
			So(goal.Categorize("Water the plants", ""), ShouldEqual, "general")
		})
	})
}
