// Package reschedule builds displacement plans when no free slot exists.
// A plan stages every relocation in memory; nothing is committed here.
package reschedule

import (
	"sort"
	"time"

	"scheddy/internal/domain/intent"
	"scheddy/internal/domain/model"
	"scheddy/internal/domain/slot"
)

// DefaultMaxVictims caps the displacement worklist so the loop provably
// terminates even on pathological calendars.
const DefaultMaxVictims = 16

// Option applies a configuration option to the Planner.
type Option func(*Planner)

// WithMaxVictims bounds how many events one request may displace.
func WithMaxVictims(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.maxVictims = n
		}
	}
}

// Request describes the event that needs room.
type Request struct {
	Title           string
	DurationMinutes int
	Priority        int
	When            intent.When
	// ForceToday overrides the auto-reschedule preference, never the
	// protected-priority rule.
	ForceToday bool
}

// Move records one staged relocation.
type Move struct {
	Event model.Event
	Old   model.Interval
	New   model.Interval
}

// Plan is a complete, validated displacement outcome. The caller persists
// the placement and every move, or nothing at all.
type Plan struct {
	Placement model.Interval
	Moved     []Move
}

// Planner resolves conflicts by displacing strictly lower-priority,
// unprotected events. It is pure; the store is never touched.
type Planner struct {
	finder     *slot.Finder
	maxVictims int
}

// NewPlanner creates a Planner that re-places victims through the given
// slot finder.
func NewPlanner(finder *slot.Finder, opts ...Option) *Planner {
	p := &Planner{
		finder:     finder,
		maxVictims: DefaultMaxVictims,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve attempts to free a slot for the request by displacing victims.
// It is only meaningful after the finder returned no slot for the untouched
// calendar. All-or-nothing: a plan is returned only when the request and
// every displaced victim all have confirmed intervals.
func (p *Planner) Resolve(events []model.Event, pref model.AvailabilityPreference, req Request) (Plan, error) {
	if !pref.AllowAutoReschedule && !req.ForceToday {
		return Plan{}, ErrAutoRescheduleDisabled
	}

	windows := p.finder.CandidateWindows(pref, req.When)

	var conflicting, eligible []model.Event
	for _, e := range events {
		if !e.Active() || !overlapsAny(e.Interval(), windows) {
			continue
		}
		conflicting = append(conflicting, e)
		// Never a victim: protected priorities, and anything at or above the
		// request's own priority.
		if model.Protected(e.Priority) || e.Priority >= req.Priority {
			continue
		}
		eligible = append(eligible, e)
	}

	if len(eligible) == 0 {
		if len(conflicting) > 0 && allProtected(conflicting) {
			return Plan{}, ErrOnlyProtectedConflicts
		}
		return Plan{}, ErrNoSlotEvenAfterDisplacement
	}

	// Lowest priority goes first; ties break toward the soonest start since
	// the oldest slot frees fastest.
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Priority != eligible[j].Priority {
			return eligible[i].Priority < eligible[j].Priority
		}
		return eligible[i].Start.Before(eligible[j].Start)
	})
	if len(eligible) > p.maxVictims {
		eligible = eligible[:p.maxVictims]
	}

	request := slot.Request{
		DurationMinutes: req.DurationMinutes,
		Priority:        req.Priority,
		When:            req.When,
	}

	// Remove one victim at a time and recheck until the request fits.
	removed := make(map[string]bool, len(eligible))
	var victims []model.Event
	var placement model.Interval
	found := false
	for _, victim := range eligible {
		removed[victim.ID] = true
		victims = append(victims, victim)

		iv, ok := p.finder.FindSlot(without(events, removed), pref, request)
		if ok {
			placement = iv
			found = true
			break
		}
	}
	if !found {
		return Plan{}, ErrNoSlotEvenAfterDisplacement
	}

	// Stage a relocation for every removed victim. The working set holds the
	// surviving events, the reserved placement, and victims already
	// relocated, so no two staged intervals can collide.
	working := without(events, removed)
	working = append(working, model.Event{
		ID:       "reserved",
		Title:    req.Title,
		Start:    placement.Start,
		End:      placement.End,
		Priority: req.Priority,
		Status:   model.StatusScheduled,
	})

	moves := make([]Move, 0, len(victims))
	for _, victim := range victims {
		dur := victim.DurationMinutes()
		if dur <= 0 {
			dur = int(victim.End.Sub(victim.Start) / time.Minute)
		}
		newIv, ok := p.finder.FindSlot(working, pref, slot.Request{
			DurationMinutes: dur,
			Priority:        victim.Priority,
		})
		if !ok {
			// One stranded victim fails the whole operation; nothing was
			// committed, so the calendar is untouched.
			return Plan{}, ErrNoSlotEvenAfterDisplacement
		}

		moves = append(moves, Move{Event: victim, Old: victim.Interval(), New: newIv})

		relocated := victim
		relocated.Start = newIv.Start
		relocated.End = newIv.End
		working = append(working, relocated)
	}

	return Plan{Placement: placement, Moved: moves}, nil
}

func overlapsAny(iv model.Interval, windows []model.Interval) bool {
	for _, w := range windows {
		if iv.Overlaps(w) {
			return true
		}
	}
	return false
}

func allProtected(events []model.Event) bool {
	for _, e := range events {
		if !model.Protected(e.Priority) {
			return false
		}
	}
	return true
}

func without(events []model.Event, removed map[string]bool) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if !removed[e.ID] {
			out = append(out, e)
		}
	}
	return out
}
