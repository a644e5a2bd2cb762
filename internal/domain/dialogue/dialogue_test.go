package dialogue

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"scheddy/internal/domain/intent"
)

func TestTrackerLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a tracker with a fixed clock", t, func() {
		now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		tr := NewInMemoryTracker(WithClock(clock))

		Convey("When a partial intent with no title or duration begins a conversation", func() {
			conv := tr.Begin(ctx, "u1", intent.CreateEvent{Priority: 5})

			Convey("Then it awaits input and asks for the title first", func() {
				So(conv.State, ShouldEqual, StateAwaitingInput)
				So(conv.Missing, ShouldResemble, []string{intent.FieldTitle, intent.FieldDuration})
				So(conv.NextQuestion(), ShouldEqual, "What would you like to schedule?")
				So(tr.Len(ctx), ShouldEqual, 1)
			})

			Convey("And supplying the title leaves only the duration", func() {
				got, err := tr.Continue(ctx, "u1", conv.ID, intent.CreateEvent{Title: "review PRs"})
				So(err, ShouldBeNil)
				So(got.State, ShouldEqual, StateAwaitingInput)
				So(got.Missing, ShouldResemble, []string{intent.FieldDuration})
				So(got.NextQuestion(), ShouldEqual, "How long should it take?")

				Convey("And supplying the duration resolves it", func() {
					got, err := tr.Continue(ctx, "u1", conv.ID, intent.CreateEvent{DurationMinutes: 45})
					So(err, ShouldBeNil)
					So(got.State, ShouldEqual, StateResolved)
					So(got.Missing, ShouldBeEmpty)
					So(got.Partial.Title, ShouldEqual, "review PRs")
					So(got.Partial.DurationMinutes, ShouldEqual, 45)
				})
			})
		})

		Convey("When a complete intent begins a conversation", func() {
			conv := tr.Begin(ctx, "u1", intent.CreateEvent{Title: "standup", DurationMinutes: 15, Priority: 5})

			Convey("Then it resolves immediately", func() {
				So(conv.State, ShouldEqual, StateResolved)
				So(conv.NextQuestion(), ShouldBeEmpty)
			})
		})
	})
}

func TestTrackerMerge(t *testing.T) {
	ctx := context.Background()

	Convey("Given an open conversation with a title", t, func() {
		tr := NewInMemoryTracker()
		conv := tr.Begin(ctx, "u1", intent.CreateEvent{Title: "deep work", Priority: 5})

		Convey("When a later turn tries to change the title", func() {
			got, err := tr.Continue(ctx, "u1", conv.ID, intent.CreateEvent{Title: "something else", DurationMinutes: 60})

			Convey("Then the original answer is immutable", func() {
				So(err, ShouldBeNil)
				So(got.Partial.Title, ShouldEqual, "deep work")
				So(got.Partial.DurationMinutes, ShouldEqual, 60)
			})
		})

		Convey("When the same duration arrives twice", func() {
			first, err := tr.Continue(ctx, "u1", conv.ID, intent.CreateEvent{DurationMinutes: 30})
			So(err, ShouldBeNil)
			So(first.State, ShouldEqual, StateResolved)

			again, err := tr.Continue(ctx, "u1", conv.ID, intent.CreateEvent{DurationMinutes: 30})

			Convey("Then the second delivery comes back unchanged", func() {
				So(err, ShouldBeNil)
				So(again.State, ShouldEqual, StateResolved)
				So(again.Partial.DurationMinutes, ShouldEqual, 30)
			})
		})

		Convey("When a different owner supplies the conversation id", func() {
			_, err := tr.Continue(ctx, "u2", conv.ID, intent.CreateEvent{DurationMinutes: 30})

			Convey("Then the tracker does not recognize it", func() {
				So(errors.Is(err, ErrUnknownConversation), ShouldBeTrue)
			})
		})

		Convey("When a later turn refines the default priority", func() {
			got, err := tr.Continue(ctx, "u1", conv.ID, intent.CreateEvent{DurationMinutes: 30, Priority: 8, Tag: "high"})

			Convey("Then the refinement sticks", func() {
				So(err, ShouldBeNil)
				So(got.Partial.Priority, ShouldEqual, 8)
			})
		})
	})
}

func TestTrackerConsume(t *testing.T) {
	ctx := context.Background()

	Convey("Given a resolved conversation", t, func() {
		tr := NewInMemoryTracker()
		conv := tr.Begin(ctx, "u1", intent.CreateEvent{Title: "gym", DurationMinutes: 60, Priority: 5})
		So(conv.State, ShouldEqual, StateResolved)

		Convey("When it is consumed", func() {
			got, err := tr.Consume(ctx, conv.ID)

			Convey("Then the completed intent comes back and the conversation is gone", func() {
				So(err, ShouldBeNil)
				So(got.Title, ShouldEqual, "gym")
				So(tr.Len(ctx), ShouldEqual, 0)

				_, err := tr.Consume(ctx, conv.ID)
				So(errors.Is(err, ErrUnknownConversation), ShouldBeTrue)
			})
		})

		Convey("When a released conversation is consumed again", func() {
			taken, err := tr.Consume(ctx, conv.ID)
			So(err, ShouldBeNil)

			tr.Release(ctx, "u1", conv.ID, taken)
			got, err := tr.Consume(ctx, conv.ID)

			Convey("Then the retry sees the same intent", func() {
				So(err, ShouldBeNil)
				So(got.Title, ShouldEqual, "gym")
			})
		})
	})

	Convey("Given a conversation still missing fields", t, func() {
		tr := NewInMemoryTracker()
		conv := tr.Begin(ctx, "u1", intent.CreateEvent{Priority: 5})

		Convey("When it is consumed early", func() {
			_, err := tr.Consume(ctx, conv.ID)

			Convey("Then the tracker refuses", func() {
				So(errors.Is(err, ErrNotResolved), ShouldBeTrue)
			})
		})
	})
}

func TestTrackerExpiry(t *testing.T) {
	ctx := context.Background()

	Convey("Given a tracker with a short idle timeout", t, func() {
		now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		tr := NewInMemoryTracker(WithClock(clock), WithIdleTimeout(10*time.Minute))

		conv := tr.Begin(ctx, "u1", intent.CreateEvent{Priority: 5})

		Convey("When a turn arrives past the timeout", func() {
			now = now.Add(11 * time.Minute)
			_, err := tr.Continue(ctx, "u1", conv.ID, intent.CreateEvent{Title: "late"})

			Convey("Then the conversation is expired and removed", func() {
				So(errors.Is(err, ErrConversationExpired), ShouldBeTrue)
				So(tr.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the sweep runs past the timeout", func() {
			fresh := tr.Begin(ctx, "u2", intent.CreateEvent{Priority: 5})
			now = now.Add(11 * time.Minute)
			tr.Release(ctx, "u2", fresh.ID, intent.CreateEvent{Priority: 5}) // re-touch

			dropped := tr.Sweep(ctx)

			Convey("Then only the idle conversation is dropped", func() {
				So(dropped, ShouldEqual, 1)
				So(tr.Len(ctx), ShouldEqual, 1)
			})
		})
	})
}
