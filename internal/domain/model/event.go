// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// Priority bounds. Higher numbers win conflicts.
const (
	MinPriority = 0
	MaxPriority = 10
)

// Protected reports whether a priority is exempt from automatic relocation.
// Priorities 9 and 10 are never moved by the engine, regardless of flags.
// Every relocation path must consult this predicate; do not inline the check.
func Protected(priority int) bool {
	return priority == 9 || priority == 10
}

// PriorityTag is the display label derived from the numeric priority.
// The integer priority is authoritative; tags are for presentation.
type PriorityTag string

// Known priority tags.
const (
	TagUrgent   PriorityTag = "urgent"
	TagHigh     PriorityTag = "high"
	TagMedium   PriorityTag = "medium"
	TagLow      PriorityTag = "low"
	TagOptional PriorityTag = "optional"
)

// TagFromPriority derives the display tag for a numeric priority.
func TagFromPriority(priority int) PriorityTag {
	switch {
	case priority >= 9:
		return TagUrgent
	case priority >= 7:
		return TagHigh
	case priority >= 4:
		return TagMedium
	case priority >= 2:
		return TagLow
	default:
		return TagOptional
	}
}

// PriorityFromTag maps a tag string to its numeric priority and canonical tag.
// Unknown tags default to medium.
func PriorityFromTag(tag string) (int, PriorityTag) {
	switch PriorityTag(tag) {
	case TagUrgent:
		return 10, TagUrgent
	case TagHigh:
		return 8, TagHigh
	case TagMedium, "med":
		return 5, TagMedium
	case TagLow:
		return 3, TagLow
	case TagOptional:
		return 1, TagOptional
	default:
		return 5, TagMedium
	}
}

// Status is the lifecycle state of an event.
type Status string

// Event lifecycle states.
const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Minutes returns the interval length in whole minutes.
func (i Interval) Minutes() int {
	return int(i.End.Sub(i.Start) / time.Minute)
}

// Overlaps reports whether two half-open intervals intersect.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// Contains reports whether o lies fully inside i.
func (i Interval) Contains(o Interval) bool {
	return !o.Start.Before(i.Start) && !o.End.After(i.End)
}

// IsZero reports whether the interval is unset.
func (i Interval) IsZero() bool {
	return i.Start.IsZero() && i.End.IsZero()
}

// Event represents a scheduled calendar entry owned by a single user.
type Event struct {
	ID          string
	Owner       string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Priority    int
	Tag         PriorityTag
	Category    string
	Status      Status
}

// Interval returns the event's occupied time range.
func (e Event) Interval() Interval {
	return Interval{Start: e.Start, End: e.End}
}

// DurationMinutes returns the event length in whole minutes.
func (e Event) DurationMinutes() int {
	return int(e.End.Sub(e.Start) / time.Minute)
}

// Active reports whether the event still occupies calendar time.
func (e Event) Active() bool {
	return e.Status != StatusCancelled
}

// Validate checks the structural invariants of an event.
func (e Event) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("%w: empty title", ErrInvalidField)
	}
	if !e.End.After(e.Start) {
		return fmt.Errorf("%w: end %s not after start %s", ErrInvalidField, e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
	}
	if e.Priority < MinPriority || e.Priority > MaxPriority {
		return fmt.Errorf("%w: priority %d outside [%d,%d]", ErrInvalidField, e.Priority, MinPriority, MaxPriority)
	}
	return nil
}

// WeeklyGoal is a per-category weekly target tracked against scheduled events.
type WeeklyGoal struct {
	Owner          string
	WeekID         string
	Category       string
	TargetHours    float64
	CompletedHours float64
}
