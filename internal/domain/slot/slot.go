// Package slot implements free-interval search over a user's calendar under
// availability constraints.
package slot

import (
	"sort"
	"time"

	"scheddy/internal/domain/intent"
	"scheddy/internal/domain/model"
)

// DefaultHorizonDays bounds an unconstrained forward search so it always
// terminates.
const DefaultHorizonDays = 14

const noonHour = 12

// Option applies a configuration option to the Finder.
type Option func(*Finder)

// WithHorizonDays sets the forward search horizon for unconstrained hints.
func WithHorizonDays(days int) Option {
	return func(f *Finder) {
		if days > 0 {
			f.horizonDays = days
		}
	}
}

// WithNow injects the clock used to anchor searches. Tests pass a
// deterministic clock.
func WithNow(now func() time.Time) Option {
	return func(f *Finder) {
		if now != nil {
			f.now = now
		}
	}
}

// Request describes what the caller wants placed.
type Request struct {
	DurationMinutes int
	Priority        int
	When            intent.When
}

// Finder searches a calendar snapshot for the earliest acceptable free
// interval. It is pure: it never mutates events and holds no per-user state,
// so one Finder may serve concurrent searches for different users.
type Finder struct {
	horizonDays int
	now         func() time.Time
}

// NewFinder creates a Finder with configuration options.
func NewFinder(opts ...Option) *Finder {
	f := &Finder{
		horizonDays: DefaultHorizonDays,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindSlot returns the earliest free interval of the requested length that
// satisfies the preference and date hint. The second return is false when no
// such interval exists inside the horizon; that is an expected outcome, not
// an error.
func (f *Finder) FindSlot(events []model.Event, pref model.AvailabilityPreference, req Request) (model.Interval, bool) {
	if req.DurationMinutes <= 0 {
		return model.Interval{}, false
	}

	loc := pref.Location()
	now := f.now().In(loc)
	duration := time.Duration(req.DurationMinutes) * time.Minute

	for _, day := range f.candidateDays(now, pref, req.When) {
		if countDayTasks(events, day, loc) >= pref.MaxTasksPerDay {
			continue
		}

		free := freeIntervals(day, now, events, pref)
		chosen, ok := pickSlot(free, duration, pref.PreferMorning, day)
		if ok {
			return chosen, true
		}
	}

	return model.Interval{}, false
}

// CandidateWindows returns the schedulable day windows a hint expands to,
// clipped so no window starts in the past. The Rescheduler uses these to
// decide which existing events actually conflict with a request.
func (f *Finder) CandidateWindows(pref model.AvailabilityPreference, when intent.When) []model.Interval {
	loc := pref.Location()
	now := f.now().In(loc)

	var windows []model.Interval
	for _, day := range f.candidateDays(now, pref, when) {
		w := pref.DayWindow(day)
		if w.End.Before(now) {
			continue
		}
		if w.Start.Before(now) {
			w.Start = now
		}
		windows = append(windows, w)
	}
	return windows
}

// candidateDays expands a date hint into the ordered list of calendar days
// to search. A day qualifies when it is a configured work day or a weekend
// day (weekends carry their own relaxed window).
func (f *Finder) candidateDays(now time.Time, pref model.AvailabilityPreference, when intent.When) []time.Time {
	today := startOfDay(now)

	allowed := func(d time.Time) bool {
		return pref.IsWorkDay(d.Weekday()) || model.IsWeekend(d.Weekday())
	}

	var days []time.Time
	switch when.Kind {
	case intent.WhenToday:
		days = []time.Time{today}
	case intent.WhenTomorrow:
		days = []time.Time{today.AddDate(0, 0, 1)}
	case intent.WhenWeekend:
		sat := nextWeekday(today, time.Saturday)
		days = []time.Time{sat, sat.AddDate(0, 0, 1)}
		if today.Weekday() == time.Sunday {
			days = []time.Time{today}
		}
	case intent.WhenThisWeek:
		// Remaining days until the ISO week rolls over on Monday.
		for d := today; d.Weekday() != time.Monday || d.Equal(today); d = d.AddDate(0, 0, 1) {
			days = append(days, d)
			if len(days) >= 7 {
				break
			}
		}
	case intent.WhenDate:
		days = []time.Time{startOfDay(when.Date.In(now.Location()))}
	default:
		for i := 0; i < f.horizonDays; i++ {
			days = append(days, today.AddDate(0, 0, i))
		}
	}

	out := days[:0]
	for _, d := range days {
		if allowed(d) {
			out = append(out, d)
		}
	}
	return out
}

// freeIntervals subtracts lunch and gap-padded busy intervals from the day
// window. The window never starts in the past.
func freeIntervals(day, now time.Time, events []model.Event, pref model.AvailabilityPreference) []model.Interval {
	window := pref.DayWindow(day)
	if window.Start.Before(now) {
		window.Start = now
	}
	if !window.End.After(window.Start) {
		return nil
	}

	gap := time.Duration(pref.MinGapMinutes) * time.Minute

	var busy []model.Interval
	for _, e := range events {
		if !e.Active() {
			continue
		}
		padded := model.Interval{Start: e.Start.Add(-gap), End: e.End.Add(gap)}
		if padded.Overlaps(window) {
			busy = append(busy, padded)
		}
	}
	if pref.LunchMinutes > 0 {
		lunch := pref.LunchWindow(day)
		if lunch.Overlaps(window) {
			busy = append(busy, lunch)
		}
	}

	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })

	var free []model.Interval
	cursor := window.Start
	for _, b := range busy {
		if b.Start.After(cursor) {
			end := b.Start
			if end.After(window.End) {
				end = window.End
			}
			if end.After(cursor) {
				free = append(free, model.Interval{Start: cursor, End: end})
			}
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(window.End) {
		free = append(free, model.Interval{Start: cursor, End: window.End})
	}
	return free
}

// pickSlot selects from a day's free intervals per the ordering rules:
// earliest start wins, with a morning preference applied before falling back
// to afternoon intervals.
func pickSlot(free []model.Interval, duration time.Duration, preferMorning bool, day time.Time) (model.Interval, bool) {
	noon := time.Date(day.Year(), day.Month(), day.Day(), noonHour, 0, 0, 0, day.Location())

	fits := func(iv model.Interval) bool { return iv.Duration() >= duration }

	if preferMorning {
		for _, iv := range free {
			if fits(iv) && iv.Start.Before(noon) {
				return model.Interval{Start: iv.Start, End: iv.Start.Add(duration)}, true
			}
		}
	}
	for _, iv := range free {
		if fits(iv) {
			return model.Interval{Start: iv.Start, End: iv.Start.Add(duration)}, true
		}
	}
	return model.Interval{}, false
}

// countDayTasks counts active events starting on the given calendar day.
func countDayTasks(events []model.Event, day time.Time, loc *time.Location) int {
	n := 0
	for _, e := range events {
		if !e.Active() {
			continue
		}
		s := e.Start.In(loc)
		if s.Year() == day.Year() && s.YearDay() == day.YearDay() {
			n++
		}
	}
	return n
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func nextWeekday(from time.Time, target time.Weekday) time.Time {
	diff := (int(target) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, diff)
}
