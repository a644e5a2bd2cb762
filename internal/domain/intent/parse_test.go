package intent_test

import (
	"errors"
	"testing"
	"time"

	intent "scheddy/internal/domain/intent"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseDuration(t *testing.T) {
	Convey("Given duration strings from the extractor", t, func() {
		Convey("Then hour and minute forms parse to minutes", func() {
			So(intent.ParseDuration("2h"), ShouldEqual, 120)
			So(intent.ParseDuration("30m"), ShouldEqual, 30)
			So(intent.ParseDuration("1h30m"), ShouldEqual, 90)
			So(intent.ParseDuration(" 45 "), ShouldEqual, 45)
		})

		Convey("Then garbage falls back to the default", func() {
			So(intent.ParseDuration("a while"), ShouldEqual, intent.DefaultDurationMinutes)
		})

		Convey("Then empty means not supplied", func() {
			So(intent.ParseDuration(""), ShouldEqual, 0)
		})
	})
}

func TestParseWhen(t *testing.T) {
	Convey("Given date hints", t, func() {
		now := time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC)

		Convey("Then the coarse hints map to kinds", func() {
			So(intent.ParseWhen("today", now, time.UTC).Kind, ShouldEqual, intent.WhenToday)
			So(intent.ParseWhen("tomorrow", now, time.UTC).Kind, ShouldEqual, intent.WhenTomorrow)
			So(intent.ParseWhen("this weekend", now, time.UTC).Kind, ShouldEqual, intent.WhenWeekend)
			So(intent.ParseWhen("this_week", now, time.UTC).Kind, ShouldEqual, intent.WhenThisWeek)
		})

		Convey("Then explicit dates parse into WhenDate", func() {
			w := intent.ParseWhen("2026-03-09", now, time.UTC)
			So(w.Kind, ShouldEqual, intent.WhenDate)
			So(w.Date.Day(), ShouldEqual, 9)
		})

		Convey("Then anything else is unconstrained", func() {
			So(intent.ParseWhen("someday", now, time.UTC).Kind, ShouldEqual, intent.WhenUnspecified)
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given raw extractor payloads", t, func() {
		now := time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC)

		Convey("When parsing a full create_event", func() {
			got, err := intent.Parse(map[string]any{
				"action":   "create_event",
				"title":    "review PRs",
				"duration": "1h",
				"priority": "high",
				"when":     "today",
				"category": "coding",
			}, now, time.UTC)
			So(err, ShouldBeNil)

			c, ok := got.(intent.CreateEvent)
			So(ok, ShouldBeTrue)

			Convey("Then the fields are typed", func() {
				So(c.Title, ShouldEqual, "review PRs")
				So(c.DurationMinutes, ShouldEqual, 60)
				So(c.Priority, ShouldEqual, 8)
				So(c.When.Kind, ShouldEqual, intent.WhenToday)
				So(c.MissingFields(), ShouldBeEmpty)
			})
		})

		Convey("When the create_event is underspecified", func() {
			got, err := intent.Parse(map[string]any{"action": "create_event"}, now, time.UTC)
			So(err, ShouldBeNil)

			c := got.(intent.CreateEvent)

			Convey("Then missing fields are reported in ask order", func() {
				So(c.MissingFields(), ShouldResemble, []string{intent.FieldTitle, intent.FieldDuration})
			})
		})

		Convey("When parsing an update with a priority patch", func() {
			got, err := intent.Parse(map[string]any{
				"action":   "update_event",
				"event_id": "ev-1",
				"priority": "urgent",
			}, now, time.UTC)
			So(err, ShouldBeNil)

			u := got.(intent.UpdateEvent)
			So(u.EventID, ShouldEqual, "ev-1")
			So(*u.Priority, ShouldEqual, 10)
			So(u.Title, ShouldBeNil)
		})

		Convey("When parsing a clarification", func() {
			got, err := intent.Parse(map[string]any{
				"action":       "ask_clarification",
				"question":     "How long should it take?",
				"missing_info": []any{"duration"},
			}, now, time.UTC)
			So(err, ShouldBeNil)

			c := got.(intent.Clarify)
			So(c.Question, ShouldEqual, "How long should it take?")
			So(c.Missing, ShouldResemble, []string{"duration"})
		})

		Convey("When the action is unknown", func() {
			_, err := intent.Parse(map[string]any{"action": "dance"}, now, time.UTC)
			So(errors.Is(err, intent.ErrUnknownAction), ShouldBeTrue)
		})
	})
}
