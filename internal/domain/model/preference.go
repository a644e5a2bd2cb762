package model

import "time"

// Default availability values, matching the defaults applied when a user has
// never edited their preferences.
const (
	DefaultWorkStartHour      = 9
	DefaultWorkEndHour        = 18
	DefaultLunchStartHour     = 12
	DefaultLunchMinutes       = 60
	DefaultMaxTasksPerDay     = 10
	weekendWindowStartHour    = 10
	weekendWindowEndHour      = 20
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// On anchors the wall-clock time on the given calendar day.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), int(t)/60, int(t)%60, 0, 0, day.Location())
}

// AvailabilityPreference captures a user's scheduling constraints. It is
// read-only to the engine; ownership and editing live outside the scheduler.
type AvailabilityPreference struct {
	Owner string

	WorkStart TimeOfDay
	WorkEnd   TimeOfDay
	// WorkDays holds the weekdays on which work tasks may land.
	WorkDays []time.Weekday

	LunchStart   TimeOfDay
	LunchMinutes int

	// MinGapMinutes pads both sides of every existing event during slot search.
	MinGapMinutes  int
	MaxTasksPerDay int

	// PreferMorning is a tie-break only; it never changes which day wins.
	PreferMorning bool

	// AllowAutoReschedule gates displacement of lower-priority events. A
	// request marked "must happen today" overrides this flag but never the
	// protected-priority rule.
	AllowAutoReschedule bool

	// Timezone is the IANA zone all comparisons are normalized to.
	// Empty means UTC.
	Timezone string
}

// DefaultPreference returns the availability applied to users who have never
// configured one: 09:00-18:00 Monday through Friday, an hour of lunch at
// noon, up to ten tasks a day, mornings preferred, auto-reschedule on.
func DefaultPreference(owner string) AvailabilityPreference {
	return AvailabilityPreference{
		Owner:               owner,
		WorkStart:           NewTimeOfDay(DefaultWorkStartHour, 0),
		WorkEnd:             NewTimeOfDay(DefaultWorkEndHour, 0),
		WorkDays:            []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		LunchStart:          NewTimeOfDay(DefaultLunchStartHour, 0),
		LunchMinutes:        DefaultLunchMinutes,
		MinGapMinutes:       0,
		MaxTasksPerDay:      DefaultMaxTasksPerDay,
		PreferMorning:       true,
		AllowAutoReschedule: true,
	}
}

// Location resolves the preference's time zone, defaulting to UTC.
func (p AvailabilityPreference) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsWorkDay reports whether tasks may be placed on the given weekday.
func (p AvailabilityPreference) IsWorkDay(day time.Weekday) bool {
	for _, d := range p.WorkDays {
		if d == day {
			return true
		}
	}
	return false
}

// IsWeekend reports whether the weekday is Saturday or Sunday.
func IsWeekend(day time.Weekday) bool {
	return day == time.Saturday || day == time.Sunday
}

// DayWindow returns the schedulable window anchored on the given day.
// Weekend days use a relaxed 10:00-20:00 window; work days use the
// configured work hours.
func (p AvailabilityPreference) DayWindow(day time.Time) Interval {
	if IsWeekend(day.Weekday()) {
		return Interval{
			Start: NewTimeOfDay(weekendWindowStartHour, 0).On(day),
			End:   NewTimeOfDay(weekendWindowEndHour, 0).On(day),
		}
	}
	return Interval{Start: p.WorkStart.On(day), End: p.WorkEnd.On(day)}
}

// LunchWindow returns the lunch break anchored on the given day.
// A zero-duration window means no lunch break is configured.
func (p AvailabilityPreference) LunchWindow(day time.Time) Interval {
	start := p.LunchStart.On(day)
	return Interval{Start: start, End: start.Add(time.Duration(p.LunchMinutes) * time.Minute)}
}
