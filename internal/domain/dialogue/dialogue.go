// Package dialogue tracks multi-turn clarification conversations.
// A conversation accumulates one create_event intent's fields across turns
// until nothing required is missing.
package dialogue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"scheddy/internal/domain/intent"
)

// DefaultIdleTimeout discards conversations nobody has touched for this
// long, bounding memory.
const DefaultIdleTimeout = 30 * time.Minute

// State is a conversation's lifecycle phase.
type State string

// Conversation states. Discarded is terminal.
const (
	StateAwaitingInput State = "awaiting_input"
	StateResolved      State = "resolved"
	StateDiscarded     State = "discarded"
)

// Conversation is the tracked progress of one clarification exchange.
type Conversation struct {
	ID          string
	Owner       string
	Partial     intent.CreateEvent
	Missing     []string
	State       State
	CreatedAt   time.Time
	LastTouched time.Time
}

// NextQuestion returns the single question to ask this turn. Questions go
// out one at a time to keep exchanges short.
func (c Conversation) NextQuestion() string {
	if len(c.Missing) == 0 {
		return ""
	}
	return Question(c.Missing[0])
}

// Question phrases the clarification for a missing field.
func Question(field string) string {
	switch field {
	case intent.FieldTitle:
		return "What would you like to schedule?"
	case intent.FieldDuration:
		return "How long should it take?"
	default:
		return fmt.Sprintf("Could you tell me the %s?", field)
	}
}

// Tracker stores partially-specified intents keyed by conversation id.
//
// Implementations must process turns for a given conversation strictly
// sequentially; merges are not commutative.
type Tracker interface {
	// Begin starts tracking a partial intent. The returned conversation is
	// Resolved immediately when nothing required is missing.
	Begin(ctx context.Context, owner string, partial intent.CreateEvent) Conversation

	// Continue merges newly supplied fields into an open conversation. New
	// values fill only previously-missing fields; answers already given are
	// immutable for the rest of the conversation. Ids that are unknown or
	// belong to a different owner return ErrUnknownConversation. A Resolved
	// conversation comes back unchanged so a failed booking can be retried
	// with the same turn.
	Continue(ctx context.Context, owner, id string, fields intent.CreateEvent) (Conversation, error)

	// Consume takes a Resolved conversation's completed intent and destroys
	// the conversation. A Resolved intent is consumed exactly once.
	Consume(ctx context.Context, id string) (intent.CreateEvent, error)

	// Release returns a consumed-in-flight conversation to the tracker so
	// a failed persistence attempt can be retried with the same turn.
	Release(ctx context.Context, owner, id string, partial intent.CreateEvent)

	// Sweep discards conversations idle past the timeout and reports how
	// many were dropped.
	Sweep(ctx context.Context) int

	// Len returns the number of live conversations.
	Len(ctx context.Context) int
}

// Option applies a configuration option to the in-memory tracker.
type Option func(*inMemoryTracker)

// WithIdleTimeout sets how long an untouched conversation survives.
func WithIdleTimeout(d time.Duration) Option {
	return func(t *inMemoryTracker) {
		if d > 0 {
			t.idleTimeout = d
		}
	}
}

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(t *inMemoryTracker) {
		if now != nil {
			t.now = now
		}
	}
}

// inMemoryTracker implements Tracker with a mutex-guarded map. The single
// lock is what serializes turns per conversation: concurrent turns for one
// id queue on it rather than interleaving.
type inMemoryTracker struct {
	mu          sync.Mutex
	open        map[string]*Conversation
	idleTimeout time.Duration
	now         func() time.Time
}

// NewInMemoryTracker creates a tracker with configuration options.
func NewInMemoryTracker(opts ...Option) Tracker {
	t := &inMemoryTracker{
		open:        make(map[string]*Conversation),
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *inMemoryTracker) Begin(ctx context.Context, owner string, partial intent.CreateEvent) Conversation {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	conv := Conversation{
		ID:          uuid.NewString(),
		Owner:       owner,
		Partial:     partial,
		Missing:     partial.MissingFields(),
		CreatedAt:   now,
		LastTouched: now,
	}

	if len(conv.Missing) == 0 {
		conv.State = StateResolved
	} else {
		conv.State = StateAwaitingInput
	}

	stored := conv
	t.open[conv.ID] = &stored
	return conv
}

func (t *inMemoryTracker) Continue(ctx context.Context, owner, id string, fields intent.CreateEvent) (Conversation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	conv, ok := t.open[id]
	if !ok || conv.Owner != owner {
		return Conversation{}, fmt.Errorf("%w: %s", ErrUnknownConversation, id)
	}

	now := t.now()
	if t.expired(*conv, now) {
		delete(t.open, id)
		return Conversation{}, fmt.Errorf("%w: %s", ErrConversationExpired, id)
	}
	if conv.State == StateResolved {
		// A released conversation whose booking failed mid-flight. Nothing
		// is missing, so re-supplied answers change nothing.
		conv.LastTouched = now
		return *conv, nil
	}

	merge(&conv.Partial, fields)
	conv.Missing = conv.Partial.MissingFields()
	conv.LastTouched = now
	if len(conv.Missing) == 0 {
		conv.State = StateResolved
	}

	return *conv, nil
}

func (t *inMemoryTracker) Consume(ctx context.Context, id string) (intent.CreateEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	conv, ok := t.open[id]
	if !ok {
		return intent.CreateEvent{}, fmt.Errorf("%w: %s", ErrUnknownConversation, id)
	}
	if conv.State != StateResolved {
		return intent.CreateEvent{}, fmt.Errorf("%w: %s", ErrNotResolved, id)
	}

	delete(t.open, id)
	return conv.Partial, nil
}

func (t *inMemoryTracker) Release(ctx context.Context, owner, id string, partial intent.CreateEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	state := StateResolved
	if len(partial.MissingFields()) > 0 {
		state = StateAwaitingInput
	}
	t.open[id] = &Conversation{
		ID:          id,
		Owner:       owner,
		Partial:     partial,
		Missing:     partial.MissingFields(),
		State:       state,
		CreatedAt:   now,
		LastTouched: now,
	}
}

func (t *inMemoryTracker) Sweep(ctx context.Context) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	dropped := 0
	for id, conv := range t.open {
		if t.expired(*conv, now) {
			delete(t.open, id)
			dropped++
		}
	}
	return dropped
}

func (t *inMemoryTracker) Len(ctx context.Context) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}

func (t *inMemoryTracker) expired(conv Conversation, now time.Time) bool {
	return now.Sub(conv.LastTouched) > t.idleTimeout
}

// merge fills only fields the stored partial does not have yet. Supplying
// the same value twice is a no-op, so repeated answers are idempotent.
func merge(dst *intent.CreateEvent, src intent.CreateEvent) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.DurationMinutes <= 0 {
		dst.DurationMinutes = src.DurationMinutes
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if dst.Category == "" || dst.Category == "general" {
		if src.Category != "" {
			dst.Category = src.Category
		}
	}
	if dst.When.Kind == intent.WhenUnspecified {
		dst.When = src.When
		dst.ForceToday = src.ForceToday
	}
	// Priority defaults to medium at parse time; a later explicit answer may
	// refine the default but never flip an earlier non-default answer.
	if dst.Tag == "" || (dst.Priority == 5 && src.Priority != 5) {
		dst.Priority, dst.Tag = src.Priority, src.Tag
	}
}
