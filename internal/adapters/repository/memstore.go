package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"scheddy/internal/domain/model"
	"scheddy/pkg/metrics"
)

// ownerState holds everything the store tracks for a single owner.
type ownerState struct {
	events map[string]model.Event
	pref   *model.AvailabilityPreference
	goals  []model.WeeklyGoal
}

// MemoryStore is a mutex-guarded in-memory Store implementation.
type MemoryStore struct {
	mu     sync.RWMutex
	owners map[string]*ownerState

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore constructs a memory store with configuration options.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		owners:                make(map[string]*ownerState),
		metricsUpdateInterval: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s
}

// startMetricsUpdater starts a background goroutine that refreshes store
// gauges at the configured interval.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.mu.RLock()
				owners := len(s.owners)
				events := s.countLocked()
				s.mu.RUnlock()
				metrics.UpdateStoreOwnersTotal(owners)
				metrics.UpdateStoreEventsTotal(events)
			}
		}
	}()
}

// Close gracefully shuts down the metrics goroutine.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
		// already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// state returns the owner's state, creating it on first touch.
// Caller must hold the write lock.
func (s *MemoryStore) state(owner string) *ownerState {
	st, ok := s.owners[owner]
	if !ok {
		st = &ownerState{events: make(map[string]model.Event)}
		s.owners[owner] = st
	}
	return st
}

// ListEvents implements Store.ListEvents.
func (s *MemoryStore) ListEvents(ctx context.Context, owner string) ([]model.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.owners[owner]
	if !ok {
		return nil, nil
	}

	out := make([]model.Event, 0, len(st.events))
	for _, ev := range st.events {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetEvent implements Store.GetEvent.
func (s *MemoryStore) GetEvent(ctx context.Context, owner, id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.owners[owner]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Event{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	ev, ok := st.events[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Event{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ev, nil
}

// CreateEvent implements Store.CreateEvent.
func (s *MemoryStore) CreateEvent(ctx context.Context, owner string, ev model.Event) (model.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.Owner = owner

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(owner)
	if _, exists := st.events[ev.ID]; exists {
		return model.Event{}, fmt.Errorf("%w: %s", ErrDuplicateID, ev.ID)
	}
	st.events[ev.ID] = ev
	return ev, nil
}

// UpdateEvent implements Store.UpdateEvent.
func (s *MemoryStore) UpdateEvent(ctx context.Context, owner string, ev model.Event) (model.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.owners[owner]
	if !ok {
		return model.Event{}, fmt.Errorf("%w: %s", ErrNotFound, ev.ID)
	}
	if _, exists := st.events[ev.ID]; !exists {
		return model.Event{}, fmt.Errorf("%w: %s", ErrNotFound, ev.ID)
	}
	ev.Owner = owner
	st.events[ev.ID] = ev
	return ev, nil
}

// DeleteEvent implements Store.DeleteEvent.
func (s *MemoryStore) DeleteEvent(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.owners[owner]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, exists := st.events[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(st.events, id)
	return nil
}

// GetPreference implements Store.GetPreference.
func (s *MemoryStore) GetPreference(ctx context.Context, owner string) (model.AvailabilityPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.owners[owner]; ok && st.pref != nil {
		return *st.pref, nil
	}
	return model.DefaultPreference(owner), nil
}

// PutPreference implements Store.PutPreference.
func (s *MemoryStore) PutPreference(ctx context.Context, owner string, pref model.AvailabilityPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(owner)
	st.pref = &pref
	return nil
}

// GetGoals implements Store.GetGoals.
func (s *MemoryStore) GetGoals(ctx context.Context, owner string) ([]model.WeeklyGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.owners[owner]
	if !ok {
		return nil, nil
	}
	out := make([]model.WeeklyGoal, len(st.goals))
	copy(out, st.goals)
	return out, nil
}

// SetGoals implements Store.SetGoals.
func (s *MemoryStore) SetGoals(ctx context.Context, owner string, goals []model.WeeklyGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(owner)
	st.goals = make([]model.WeeklyGoal, len(goals))
	copy(st.goals, goals)
	return nil
}

// Owners implements Store.Owners.
func (s *MemoryStore) Owners(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.owners))
	for owner := range s.owners {
		out = append(out, owner)
	}
	sort.Strings(out)
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked()
}

func (s *MemoryStore) countLocked() int {
	total := 0
	for _, st := range s.owners {
		total += len(st.events)
	}
	return total
}
