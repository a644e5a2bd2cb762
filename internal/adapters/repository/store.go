// Package repository defines the calendar store interface and errors.
package repository

import (
	"context"

	"scheddy/internal/domain/model"
)

// Store provides read/write access to per-owner calendar state. All event
// methods are scoped to one owner; owners never see each other's data.
//
// The store itself is safe for concurrent use but makes no cross-call
// atomicity promises. Callers that read, plan, and write back must hold
// their own per-owner exclusion around the whole sequence.
type Store interface {
	// ListEvents returns the owner's events ordered by start time.
	ListEvents(ctx context.Context, owner string) ([]model.Event, error)

	// GetEvent returns one event. Returns ErrNotFound if the id is unknown.
	GetEvent(ctx context.Context, owner, id string) (model.Event, error)

	// CreateEvent persists a new event, assigning an id when the event has
	// none. Returns the stored event.
	CreateEvent(ctx context.Context, owner string, ev model.Event) (model.Event, error)

	// UpdateEvent replaces an existing event wholesale.
	// Returns ErrNotFound if the id is unknown.
	UpdateEvent(ctx context.Context, owner string, ev model.Event) (model.Event, error)

	// DeleteEvent removes an event. Returns ErrNotFound if the id is unknown.
	DeleteEvent(ctx context.Context, owner, id string) error

	// GetPreference returns the owner's availability preference, falling
	// back to the defaults when none was ever stored.
	GetPreference(ctx context.Context, owner string) (model.AvailabilityPreference, error)

	// PutPreference stores the owner's availability preference.
	PutPreference(ctx context.Context, owner string, pref model.AvailabilityPreference) error

	// GetGoals returns the owner's weekly goals.
	GetGoals(ctx context.Context, owner string) ([]model.WeeklyGoal, error)

	// SetGoals replaces the owner's weekly goals.
	SetGoals(ctx context.Context, owner string, goals []model.WeeklyGoal) error

	// Owners returns every owner with stored state.
	Owners(ctx context.Context) ([]string, error)

	// Count returns the number of events tracked across all owners.
	Count(ctx context.Context) int
}
