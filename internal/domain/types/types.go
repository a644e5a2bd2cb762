// Package types contains wire-level types shared across the application.
package types

import (
	"time"

	"scheddy/internal/domain/goal"
	"scheddy/internal/domain/model"
)

// Outcome identifies how a turn ended.
type Outcome string

// Turn outcomes.
const (
	OutcomeScheduled   Outcome = "scheduled"
	OutcomeRescheduled Outcome = "rescheduled"
	OutcomeUpdated     Outcome = "updated"
	OutcomeDeleted     Outcome = "deleted"
	OutcomeNeedsInput  Outcome = "needs_input"
	OutcomeQuery       Outcome = "query"
	OutcomeGoals       Outcome = "goals"
	OutcomeFailed      Outcome = "failed"
)

// Event is the wire representation of a calendar entry.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Priority    int       `json:"priority"`
	Tag         string    `json:"priority_tag"`
	Category    string    `json:"category,omitempty"`
	Status      string    `json:"status"`
}

// NewEvent converts a domain event to its wire form.
func NewEvent(ev model.Event) Event {
	return Event{
		ID:          ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		Start:       ev.Start,
		End:         ev.End,
		Priority:    ev.Priority,
		Tag:         string(ev.Tag),
		Category:    ev.Category,
		Status:      string(ev.Status),
	}
}

// NewEvents converts a slice of domain events.
func NewEvents(evs []model.Event) []Event {
	out := make([]Event, len(evs))
	for i, ev := range evs {
		out[i] = NewEvent(ev)
	}
	return out
}

// MovedEvent reports one relocation performed to make room for a
// higher-priority placement.
type MovedEvent struct {
	Event         Event     `json:"event"`
	PreviousStart time.Time `json:"previous_start"`
	PreviousEnd   time.Time `json:"previous_end"`
}

// GoalProgress is the wire representation of one category's weekly progress.
type GoalProgress struct {
	Category       string  `json:"category"`
	TargetHours    float64 `json:"target_hours"`
	CompletedHours float64 `json:"completed_hours"`
	RemainingHours float64 `json:"remaining_hours"`
	Percent        int     `json:"percent"`
}

// NewGoalProgress converts domain progress rows to their wire form.
func NewGoalProgress(rows []goal.Progress) []GoalProgress {
	out := make([]GoalProgress, len(rows))
	for i, r := range rows {
		out[i] = GoalProgress{
			Category:       r.Category,
			TargetHours:    r.TargetHours,
			CompletedHours: r.CompletedHours,
			RemainingHours: r.RemainingHours,
			Percent:        r.Percent,
		}
	}
	return out
}

// TurnResult is the engine's answer to one conversational turn. Exactly the
// fields relevant to the outcome are populated.
type TurnResult struct {
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message,omitempty"`

	// Clarification exchange, set for OutcomeNeedsInput.
	ConversationID string   `json:"conversation_id,omitempty"`
	Question       string   `json:"question,omitempty"`
	Missing        []string `json:"missing,omitempty"`

	// Placement, set for OutcomeScheduled and OutcomeRescheduled.
	Event *Event       `json:"event,omitempty"`
	Moved []MovedEvent `json:"moved,omitempty"`

	// Query answers.
	Events []Event        `json:"events,omitempty"`
	Goals  []GoalProgress `json:"goals,omitempty"`

	// Failure detail, set for OutcomeFailed. Reason is a stable machine
	// code; Suggestion tells the user what to try instead.
	Reason     string `json:"reason,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}
