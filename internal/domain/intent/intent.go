// Package intent defines the closed set of actions the engine understands.
// Raw extractor payloads are parsed into these variants once, at the
// boundary; nothing downstream inspects key-value maps.
package intent

import (
	"time"

	"scheddy/internal/domain/model"
)

// Action identifies what a turn asks the engine to do.
type Action string

// Known actions. The wire names match what the intent extractor emits.
const (
	ActionCreateEvent Action = "create_event"
	ActionUpdateEvent Action = "update_event"
	ActionDeleteEvent Action = "delete_event"
	ActionQueryRange  Action = "query_schedule"
	ActionCheckGoals  Action = "check_goals"
	ActionClarify     Action = "ask_clarification"
)

// WhenKind is the coarse date hint attached to a request.
type WhenKind string

// Date hint kinds.
const (
	WhenUnspecified WhenKind = ""
	WhenToday       WhenKind = "today"
	WhenTomorrow    WhenKind = "tomorrow"
	WhenWeekend     WhenKind = "weekend"
	WhenThisWeek    WhenKind = "this_week"
	WhenDate        WhenKind = "date"
)

// When is a parsed date hint. Date is set only for WhenDate.
type When struct {
	Kind WhenKind
	Date time.Time
}

// Intent is the sealed union of parsed actions.
type Intent interface {
	Action() Action
}

// Field names a create intent may still be missing.
const (
	FieldTitle    = "title"
	FieldDuration = "duration"
)

// CreateEvent schedules a new task.
type CreateEvent struct {
	Title           string
	Description     string
	DurationMinutes int
	Priority        int
	Tag             model.PriorityTag
	Category        string
	When            When
	// ForceToday marks a "must happen today/now" request. It overrides the
	// auto-reschedule preference but never the protected-priority rule.
	ForceToday bool
}

// Action implements Intent.
func (CreateEvent) Action() Action { return ActionCreateEvent }

// MissingFields returns the required fields not yet supplied, in the order
// they should be asked for.
func (c CreateEvent) MissingFields() []string {
	var missing []string
	if c.Title == "" {
		missing = append(missing, FieldTitle)
	}
	if c.DurationMinutes <= 0 {
		missing = append(missing, FieldDuration)
	}
	return missing
}

// UpdateEvent patches an existing event. Nil pointers mean "leave unchanged".
type UpdateEvent struct {
	EventID     string
	Title       *string
	Description *string
	Priority    *int
	Tag         model.PriorityTag
}

// Action implements Intent.
func (UpdateEvent) Action() Action { return ActionUpdateEvent }

// DeleteEvent removes an event explicitly. The engine never deletes
// silently.
type DeleteEvent struct {
	EventID string
}

// Action implements Intent.
func (DeleteEvent) Action() Action { return ActionDeleteEvent }

// QueryRange lists scheduled events for a period.
type QueryRange struct {
	When When
}

// Action implements Intent.
func (QueryRange) Action() Action { return ActionQueryRange }

// CheckGoals reports weekly goal progress. Empty WeekID means the current
// ISO week.
type CheckGoals struct {
	WeekID string
}

// Action implements Intent.
func (CheckGoals) Action() Action { return ActionCheckGoals }

// Clarify carries the extractor's own clarification question through the
// engine unchanged.
type Clarify struct {
	Question string
	Missing  []string
}

// Action implements Intent.
func (Clarify) Action() Action { return ActionClarify }
