// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"scheddy/internal/adapters/mq/queue"
	"scheddy/internal/adapters/mq/worker"
	"scheddy/internal/adapters/nlp"
	"scheddy/internal/adapters/repository"
	"scheddy/internal/adapters/similarity"
	"scheddy/internal/domain/dedupe"
	"scheddy/internal/domain/dialogue"
	"scheddy/internal/domain/goal"
	"scheddy/internal/domain/model"
	"scheddy/internal/domain/pattern"
	"scheddy/internal/domain/reschedule"
	"scheddy/internal/domain/slot"
	"scheddy/pkg/logger"
	"scheddy/pkg/metrics"
)

// Service wires the scheduling engine together: intent extraction, slot
// search, conflict resolution, dialogue tracking, and goal bookkeeping.
//
// All turns for one owner run strictly sequentially; turns for different
// owners run concurrently.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	tracker   dialogue.Tracker
	extractor nlp.Extractor
	searcher  similarity.Searcher
	finder    *slot.Finder
	planner   *reschedule.Planner
	jobs      *cron.Cron
	deduper   dedupe.Deduper

	// Background refresh pipeline
	refreshQueue *queue.InMemoryQueue
	refreshPool  *worker.Pool

	// Configuration
	horizonDays      int
	conversationTTL  time.Duration
	maxVictims       int
	sweepSpec        string
	goalResyncSpec   string
	similarityCutoff float64
	patternLimit     int
	dedupeSize       int
	refreshWorkers   int
	refreshCapacity  int
	now              func() time.Time

	// Per-owner turn serialization
	ownerMu    sync.Mutex
	ownerLocks map[string]*sync.Mutex

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the calendar store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithTracker sets the conversation tracker.
func WithTracker(tracker dialogue.Tracker) Option {
	return func(s *Service) {
		if tracker != nil {
			s.tracker = tracker
		}
	}
}

// WithExtractor sets the intent extractor. Without one the service only
// accepts pre-extracted field maps.
func WithExtractor(extractor nlp.Extractor) Option {
	return func(s *Service) {
		if extractor != nil {
			s.extractor = extractor
		}
	}
}

// WithSearcher sets the similarity searcher.
func WithSearcher(searcher similarity.Searcher) Option {
	return func(s *Service) {
		if searcher != nil {
			s.searcher = searcher
		}
	}
}

// WithHorizonDays bounds how far ahead slot search looks.
func WithHorizonDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.horizonDays = days
		}
	}
}

// WithConversationTTL sets the clarification idle timeout.
func WithConversationTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.conversationTTL = d
		}
	}
}

// WithMaxVictims caps how many events one placement may displace.
func WithMaxVictims(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxVictims = n
		}
	}
}

// WithCronSpecs sets the sweep and goal resync schedules.
func WithCronSpecs(sweep, goalResync string) Option {
	return func(s *Service) {
		if sweep != "" {
			s.sweepSpec = sweep
		}
		if goalResync != "" {
			s.goalResyncSpec = goalResync
		}
	}
}

// WithSimilarityCutoff sets the minimum score for digest matches.
func WithSimilarityCutoff(cutoff float64) Option {
	return func(s *Service) {
		if cutoff > 0 && cutoff <= 1 {
			s.similarityCutoff = cutoff
		}
	}
}

// WithPatternSearchLimit caps how many lookalikes feed the digest.
func WithPatternSearchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.patternLimit = n
		}
	}
}

// WithDedupeSize bounds how many turn ids are remembered for idempotency.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithRefreshWorkers sets how many workers drain the refresh queue.
func WithRefreshWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.refreshWorkers = n
		}
	}
}

// WithRefreshQueueCapacity bounds the background refresh queue.
func WithRefreshQueueCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.refreshCapacity = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		horizonDays:      slot.DefaultHorizonDays,
		conversationTTL:  dialogue.DefaultIdleTimeout,
		maxVictims:       reschedule.DefaultMaxVictims,
		sweepSpec:        "* * * * *",
		goalResyncSpec:   "0 * * * *",
		similarityCutoff: pattern.DefaultSimilarityCutoff,
		patternLimit:     10,
		dedupeSize:       dedupe.DefaultMaxSize,
		refreshWorkers:   4,
		now:              time.Now,
		ownerLocks:       make(map[string]*sync.Mutex),
		logger:           nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scheduling service...")

	// Initialize components
	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.tracker == nil {
		s.tracker = dialogue.NewInMemoryTracker(
			dialogue.WithIdleTimeout(s.conversationTTL),
			dialogue.WithClock(s.now),
		)
	}
	if s.searcher == nil {
		s.searcher = similarity.NewMemorySearcher()
		s.logger.Info(ctx, "using in-memory similarity searcher")
	}
	if s.extractor == nil {
		s.logger.Warn(ctx, "no intent extractor configured; only structured turns will be accepted")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.finder = slot.NewFinder(
		slot.WithHorizonDays(s.horizonDays),
		slot.WithNow(s.now),
	)
	s.planner = reschedule.NewPlanner(s.finder, reschedule.WithMaxVictims(s.maxVictims))

	// Background refresh pipeline: calendar mutations enqueue the owner so
	// goal progress is recomputed off the request path.
	var queueOpts []queue.Option
	if s.refreshCapacity > 0 {
		queueOpts = append(queueOpts, queue.WithCapacity(s.refreshCapacity))
	}
	s.refreshQueue = queue.NewInMemoryQueue(queueOpts...)
	s.refreshPool = worker.NewPool(s.refreshWorkers, s.refreshQueue, worker.ProcessorFunc(s.processRefresh))
	s.refreshPool.Start(ctx)

	// Background jobs: conversation expiry sweep and weekly goal resync.
	s.jobs = cron.New()
	if _, err := s.jobs.AddFunc(s.sweepSpec, func() { s.sweepConversations(context.Background()) }); err != nil {
		return err
	}
	if _, err := s.jobs.AddFunc(s.goalResyncSpec, func() { s.resyncGoals(context.Background()) }); err != nil {
		return err
	}
	s.jobs.Start()

	s.started = true
	s.logger.Info(ctx, "scheduling service started",
		logger.Int("horizonDays", s.horizonDays),
		logger.Duration("conversationTTL", s.conversationTTL),
		logger.Int("maxVictims", s.maxVictims),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping scheduling service...")

	if s.jobs != nil {
		<-s.jobs.Stop().Done()
	}

	if s.refreshPool != nil {
		_ = s.refreshPool.Shutdown(context.Background())
	}

	if s.store != nil {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "scheduling service stopped")
}

// ownerLock returns the mutex serializing turns for one owner.
func (s *Service) ownerLock(owner string) *sync.Mutex {
	s.ownerMu.Lock()
	defer s.ownerMu.Unlock()

	lock, ok := s.ownerLocks[owner]
	if !ok {
		lock = &sync.Mutex{}
		s.ownerLocks[owner] = lock
	}
	return lock
}

// sweepConversations discards idle conversations and refreshes gauges.
func (s *Service) sweepConversations(ctx context.Context) {
	dropped := s.tracker.Sweep(ctx)
	if dropped > 0 {
		s.logger.Info(ctx, "discarded idle conversations", logger.Int("dropped", dropped))
	}
	metrics.RecordConversationsExpired(dropped)
	metrics.UpdateConversationsOpen(s.tracker.Len(ctx))
}

// resyncGoals recomputes the current week's progress for every owner and
// persists the completed hours back onto the stored goal rows.
func (s *Service) resyncGoals(ctx context.Context) {
	owners, err := s.store.Owners(ctx)
	if err != nil {
		s.logger.Error(ctx, "goal resync: list owners", logger.Error(err))
		return
	}

	weekID := goal.WeekID(s.now())
	for _, owner := range owners {
		lock := s.ownerLock(owner)
		lock.Lock()
		if err := s.resyncOwnerGoals(ctx, owner, weekID); err != nil {
			s.logger.Warn(ctx, "goal resync failed",
				logger.String("owner", owner), logger.Error(err))
		}
		lock.Unlock()
	}
}

// enqueueRefresh schedules a background recompute for an owner. Drops are
// harmless: the hourly resync job covers whatever the queue sheds.
func (s *Service) enqueueRefresh(ctx context.Context, owner string) {
	if !s.refreshQueue.Enqueue(ctx, queue.Job{Owner: owner}) {
		s.logger.Debug(ctx, "refresh queue full; dropping job", logger.String("owner", owner))
	}
}

// processRefresh is the worker-side handler for one refresh job.
func (s *Service) processRefresh(ctx context.Context, j queue.Job) error {
	lock := s.ownerLock(j.Owner)
	lock.Lock()
	defer lock.Unlock()
	return s.resyncOwnerGoals(ctx, j.Owner, goal.WeekID(s.now()))
}

func (s *Service) resyncOwnerGoals(ctx context.Context, owner, weekID string) error {
	rows, err := s.store.GetGoals(ctx, owner)
	if err != nil {
		return err
	}

	targets := make(map[string]float64)
	for _, row := range rows {
		if row.WeekID == weekID {
			targets[row.Category] = row.TargetHours
		}
	}
	if len(targets) == 0 {
		return nil
	}

	events, err := s.store.ListEvents(ctx, owner)
	if err != nil {
		return err
	}

	progress, err := goal.Recompute(weekID, events, targets)
	if err != nil {
		return err
	}
	metrics.RecordGoalRecompute()

	for i := range rows {
		if rows[i].WeekID != weekID {
			continue
		}
		if p, ok := progress[rows[i].Category]; ok {
			rows[i].CompletedHours = p.CompletedHours
		}
	}
	return s.store.SetGoals(ctx, owner, rows)
}

// ListEvents returns the owner's active events overlapping [from, to).
// Zero bounds mean unbounded on that side.
func (s *Service) ListEvents(ctx context.Context, owner string, from, to time.Time) ([]model.Event, error) {
	events, err := s.store.ListEvents(ctx, owner)
	if err != nil {
		return nil, err
	}

	var out []model.Event
	for _, ev := range events {
		if !ev.Active() {
			continue
		}
		if !from.IsZero() && !ev.End.After(from) {
			continue
		}
		if !to.IsZero() && !ev.Start.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// GoalProgress computes the owner's weekly goal standing. Empty weekID
// means the current ISO week.
func (s *Service) GoalProgress(ctx context.Context, owner, weekID string) ([]goal.Progress, error) {
	if weekID == "" {
		weekID = goal.WeekID(s.now())
	}

	rows, err := s.store.GetGoals(ctx, owner)
	if err != nil {
		return nil, err
	}

	targets := make(map[string]float64)
	for _, row := range rows {
		if row.WeekID == weekID {
			targets[row.Category] = row.TargetHours
		}
	}
	// No goals set for this week: carry targets forward from the most
	// recently stored rows so progress stays visible.
	if len(targets) == 0 {
		for _, row := range rows {
			targets[row.Category] = row.TargetHours
		}
	}

	events, err := s.store.ListEvents(ctx, owner)
	if err != nil {
		return nil, err
	}

	progress, err := goal.Recompute(weekID, events, targets)
	if err != nil {
		return nil, err
	}
	metrics.RecordGoalRecompute()

	out := make([]goal.Progress, 0, len(progress))
	for _, p := range progress {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// SetGoals replaces the owner's targets for the weeks the given rows name.
// Targets stored for other weeks are kept as they are.
func (s *Service) SetGoals(ctx context.Context, owner string, goals []model.WeeklyGoal) error {
	lock := s.ownerLock(owner)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.store.GetGoals(ctx, owner)
	if err != nil {
		return err
	}

	replaced := make(map[string]bool, len(goals))
	for _, g := range goals {
		replaced[g.WeekID] = true
	}

	merged := make([]model.WeeklyGoal, 0, len(existing)+len(goals))
	for _, g := range existing {
		if !replaced[g.WeekID] {
			merged = append(merged, g)
		}
	}
	merged = append(merged, goals...)

	return s.store.SetGoals(ctx, owner, merged)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"horizonDays":     s.horizonDays,
		"maxVictims":      s.maxVictims,
		"conversationTTL": s.conversationTTL.String(),
	}

	if s.started {
		open := s.tracker.Len(ctx)
		events := s.store.Count(ctx)

		stats["openConversations"] = open
		stats["totalEvents"] = events
		stats["refreshQueueDepth"] = s.refreshQueue.Len(ctx)
		stats["seenTurnIDs"] = s.deduper.Size()

		// Update metrics
		metrics.UpdateConversationsOpen(open)
		metrics.UpdateStoreEventsTotal(events)
	}

	return stats
}
