package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"scheddy/internal/adapters/repository"
	"scheddy/internal/domain/dialogue"
	"scheddy/internal/domain/goal"
	"scheddy/internal/domain/intent"
	"scheddy/internal/domain/model"
	"scheddy/internal/domain/pattern"
	"scheddy/internal/domain/reschedule"
	"scheddy/internal/domain/slot"
	"scheddy/internal/domain/types"
	"scheddy/pkg/logger"
	"scheddy/pkg/metrics"
)

// Stable machine-readable failure reasons carried on TurnResult.Reason.
const (
	ReasonExtractionFailed       = "extraction_failed"
	ReasonUnknownAction          = "unknown_action"
	ReasonUnknownConversation    = "unknown_conversation"
	ReasonConversationExpired    = "conversation_expired"
	ReasonAutoRescheduleDisabled = "auto_reschedule_disabled"
	ReasonProtectedConflicts     = "protected_conflicts"
	ReasonNoSlot                 = "no_slot"
	ReasonEventNotFound          = "event_not_found"
	ReasonDuplicateTurn          = "duplicate_turn"
	ReasonInvalidField           = "invalid_field"
	ReasonBadWeek                = "bad_week"
	ReasonInternal               = "internal"
)

// TurnRequest is one conversational turn from one owner. Either Text (to be
// run through the extractor) or Fields (a pre-extracted payload) must be
// set; Fields wins when both are.
type TurnRequest struct {
	Owner          string
	Text           string
	ConversationID string
	Fields         map[string]any

	// TurnID is an optional client-chosen idempotency key. Retries carrying
	// the same id are rejected instead of booking twice.
	TurnID string
}

// HandleTurn processes one turn end to end and returns the engine's answer.
// Failures the user can act on come back as OutcomeFailed results, not
// errors; the error return is for infrastructure trouble only.
func (s *Service) HandleTurn(ctx context.Context, req TurnRequest) (types.TurnResult, error) {
	started := time.Now()
	defer func() {
		metrics.RecordTurnLatency(float64(time.Since(started).Milliseconds()))
	}()

	if !s.isStarted() {
		return types.TurnResult{}, ErrNotStarted
	}
	if req.Owner == "" {
		return types.TurnResult{}, ErrMissingOwner
	}

	// One turn at a time per owner. Conversation merges and read-plan-write
	// cycles both rely on this.
	lock := s.ownerLock(req.Owner)
	lock.Lock()
	defer lock.Unlock()

	if req.TurnID != "" && s.deduper.SeenAndRecord(ctx, req.TurnID) {
		metrics.RecordTurn("duplicate", string(types.OutcomeFailed))
		return failure(ReasonDuplicateTurn,
			"That request was already processed.",
			"Use a fresh turn id to submit it again."), nil
	}

	fields := req.Fields
	if fields == nil {
		var res types.TurnResult
		var ok bool
		fields, res, ok = s.extractFields(ctx, req)
		if !ok {
			return res, nil
		}
	}

	pref, err := s.store.GetPreference(ctx, req.Owner)
	if err != nil {
		s.unrecordTurn(ctx, req.TurnID)
		return types.TurnResult{}, err
	}
	now := s.now().In(pref.Location())

	parsed, err := intent.Parse(fields, now, pref.Location())
	if err != nil {
		metrics.RecordTurn("unknown", string(types.OutcomeFailed))
		return failure(ReasonUnknownAction,
			"I didn't understand what you want to do.",
			"Try asking to schedule, update, delete, or query events."), nil
	}

	action := string(parsed.Action())
	result, err := s.dispatch(ctx, req, pref, now, parsed)
	if err != nil {
		// Infrastructure failure: forget the turn id so the client can
		// retry the same request.
		s.unrecordTurn(ctx, req.TurnID)
		metrics.RecordTurn(action, string(types.OutcomeFailed))
		return types.TurnResult{}, err
	}

	metrics.RecordTurn(action, string(result.Outcome))
	return result, nil
}

func (s *Service) unrecordTurn(ctx context.Context, turnID string) {
	if turnID != "" {
		s.deduper.Unrecord(ctx, turnID)
	}
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// extractFields runs the extractor over raw text. The bool is false when
// the returned TurnResult should go straight back to the caller.
func (s *Service) extractFields(ctx context.Context, req TurnRequest) (map[string]any, types.TurnResult, bool) {
	if s.extractor == nil {
		metrics.RecordTurn("unknown", string(types.OutcomeFailed))
		return nil, failure(ReasonExtractionFailed,
			"Natural language understanding is not configured.",
			"Send a structured turn instead."), false
	}

	started := time.Now()
	fields, err := s.extractor.Extract(ctx, req.Text, nil)
	metrics.RecordExtractorLatency(float64(time.Since(started).Milliseconds()))
	if err != nil {
		metrics.RecordExtractorError()
		s.logger.Warn(ctx, "intent extraction failed",
			logger.String("owner", req.Owner), logger.Error(err))
		metrics.RecordTurn("unknown", string(types.OutcomeFailed))
		return nil, failure(ReasonExtractionFailed,
			"I couldn't understand that.",
			"Try rephrasing, e.g. \"schedule a 30 minute review tomorrow\"."), false
	}
	return fields, types.TurnResult{}, true
}

func (s *Service) dispatch(ctx context.Context, req TurnRequest, pref model.AvailabilityPreference, now time.Time, parsed intent.Intent) (types.TurnResult, error) {
	switch v := parsed.(type) {
	case intent.CreateEvent:
		return s.handleCreate(ctx, req.Owner, pref, req.ConversationID, v)
	case intent.UpdateEvent:
		return s.handleUpdate(ctx, req.Owner, v)
	case intent.DeleteEvent:
		return s.handleDelete(ctx, req.Owner, v)
	case intent.QueryRange:
		return s.handleQuery(ctx, req.Owner, pref, now, v)
	case intent.CheckGoals:
		return s.handleGoals(ctx, req.Owner, now, v)
	case intent.Clarify:
		return s.handleClarify(ctx, req.Owner, v)
	default:
		return failure(ReasonUnknownAction, "Unsupported action.", ""), nil
	}
}

// handleCreate runs the clarification loop and, once the intent is
// complete, places the event.
func (s *Service) handleCreate(ctx context.Context, owner string, pref model.AvailabilityPreference, conversationID string, ce intent.CreateEvent) (types.TurnResult, error) {
	var conv dialogue.Conversation
	if conversationID != "" {
		var err error
		conv, err = s.tracker.Continue(ctx, owner, conversationID, ce)
		switch {
		case errors.Is(err, dialogue.ErrConversationExpired):
			return failure(ReasonConversationExpired,
				"That conversation timed out.",
				"Start over with the full request."), nil
		case errors.Is(err, dialogue.ErrUnknownConversation):
			return failure(ReasonUnknownConversation,
				"I don't have that conversation anymore.",
				"Start over with the full request."), nil
		case err != nil:
			return types.TurnResult{}, err
		}
	} else {
		conv = s.tracker.Begin(ctx, owner, ce)
	}

	if conv.State == dialogue.StateAwaitingInput {
		metrics.RecordClarificationAsked()
		metrics.UpdateConversationsOpen(s.tracker.Len(ctx))
		return types.TurnResult{
			Outcome:        types.OutcomeNeedsInput,
			Message:        conv.NextQuestion(),
			ConversationID: conv.ID,
			Question:       conv.NextQuestion(),
			Missing:        conv.Missing,
		}, nil
	}

	complete, err := s.tracker.Consume(ctx, conv.ID)
	if err != nil {
		return types.TurnResult{}, err
	}

	result, err := s.place(ctx, owner, pref, complete)
	if err != nil {
		// Persistence failed; put the conversation back so the caller can
		// retry the same turn.
		s.tracker.Release(ctx, owner, conv.ID, complete)
		return types.TurnResult{}, err
	}
	return result, nil
}

// place finds a slot for a complete create intent, displacing lower
// priority events when it has to, and persists the outcome.
func (s *Service) place(ctx context.Context, owner string, pref model.AvailabilityPreference, ce intent.CreateEvent) (types.TurnResult, error) {
	events, err := s.store.ListEvents(ctx, owner)
	if err != nil {
		return types.TurnResult{}, err
	}

	category := ce.Category
	if category == "" || category == "general" {
		category = goal.Categorize(ce.Title, ce.Description)
	}
	tag := ce.Tag
	if tag == "" {
		tag = model.TagFromPriority(ce.Priority)
	}

	searchStart := time.Now()
	iv, found := s.finder.FindSlot(events, pref, slot.Request{
		DurationMinutes: ce.DurationMinutes,
		Priority:        ce.Priority,
		When:            ce.When,
	})
	metrics.RecordSlotSearchLatency(float64(time.Since(searchStart).Milliseconds()))

	var moved []types.MovedEvent
	var applied []model.Event
	if !found {
		metrics.RecordSlotSearchMiss()

		plan, planErr := s.planner.Resolve(events, pref, reschedule.Request{
			Title:           ce.Title,
			DurationMinutes: ce.DurationMinutes,
			Priority:        ce.Priority,
			When:            ce.When,
			ForceToday:      ce.ForceToday,
		})
		if planErr != nil {
			return rescheduleFailure(planErr), nil
		}

		// The plan is all-or-nothing: a failure on any write puts every
		// already-moved victim back before the error surfaces.
		for _, mv := range plan.Moved {
			relocated := mv.Event
			relocated.Start = mv.New.Start
			relocated.End = mv.New.End
			if _, err := s.store.UpdateEvent(ctx, owner, relocated); err != nil {
				s.unwindMoves(ctx, owner, applied)
				return types.TurnResult{}, err
			}
			applied = append(applied, mv.Event)
			moved = append(moved, types.MovedEvent{
				Event:         types.NewEvent(relocated),
				PreviousStart: mv.Old.Start,
				PreviousEnd:   mv.Old.End,
			})
		}
		metrics.RecordDisplacedEvents(len(plan.Moved))
		iv = plan.Placement
	}

	ev := model.Event{
		Title:       ce.Title,
		Description: ce.Description,
		Start:       iv.Start,
		End:         iv.End,
		Priority:    ce.Priority,
		Tag:         tag,
		Category:    category,
		Status:      model.StatusScheduled,
	}
	if err := ev.Validate(); err != nil {
		s.unwindMoves(ctx, owner, applied)
		return failure(ReasonInvalidField, err.Error(), ""), nil
	}

	stored, err := s.store.CreateEvent(ctx, owner, ev)
	if err != nil {
		s.unwindMoves(ctx, owner, applied)
		return types.TurnResult{}, err
	}
	metrics.RecordPlacement()
	s.enqueueRefresh(ctx, owner)

	// Summarize lookalikes before indexing the new request so the digest
	// reflects history, not the turn itself.
	suggestion := s.recurringSuggestion(ctx, owner, ce.Title)
	if err := s.searcher.Index(ctx, owner, pattern.Item{
		Text:            ce.Title,
		Category:        category,
		Priority:        ce.Priority,
		DurationMinutes: ce.DurationMinutes,
		WhenScheduled:   stored.Start,
	}); err != nil {
		s.logger.Warn(ctx, "similarity index failed", logger.Error(err))
	}

	outcome := types.OutcomeScheduled
	msg := fmt.Sprintf("Scheduled %q for %s.", stored.Title, formatSlot(stored.Interval()))
	if len(moved) > 0 {
		outcome = types.OutcomeRescheduled
		msg = fmt.Sprintf("Scheduled %q for %s; moved %d lower-priority event(s) to make room.",
			stored.Title, formatSlot(stored.Interval()), len(moved))
	}
	if suggestion != "" {
		msg += " " + suggestion
	}

	wire := types.NewEvent(stored)
	return types.TurnResult{
		Outcome: outcome,
		Message: msg,
		Event:   &wire,
		Moved:   moved,
	}, nil
}

// unwindMoves restores displaced victims to their original slots after a
// partially applied plan failed. The originals were mutually
// non-overlapping, so restoring in reverse order is always admissible.
func (s *Service) unwindMoves(ctx context.Context, owner string, applied []model.Event) {
	for i := len(applied) - 1; i >= 0; i-- {
		if _, err := s.store.UpdateEvent(ctx, owner, applied[i]); err != nil {
			s.logger.Error(ctx, "failed to restore displaced event",
				logger.String("owner", owner),
				logger.String("event", applied[i].ID),
				logger.Error(err))
		}
	}
}

// recurringSuggestion checks past lookalikes and phrases a habit hint when
// the task shows up repeatedly.
func (s *Service) recurringSuggestion(ctx context.Context, owner, title string) string {
	items, err := s.searcher.Search(ctx, owner, title, s.patternLimit)
	if err != nil {
		s.logger.Debug(ctx, "similarity search failed", logger.Error(err))
		return ""
	}

	digest := pattern.Summarize(items, s.similarityCutoff)
	if !digest.Recurring {
		return ""
	}
	return fmt.Sprintf("You've scheduled this %d times recently (usually %d minutes); want to make it a recurring habit?",
		digest.OccurrenceCount, digest.AverageDurationMinutes)
}

func (s *Service) handleUpdate(ctx context.Context, owner string, u intent.UpdateEvent) (types.TurnResult, error) {
	ev, err := s.store.GetEvent(ctx, owner, u.EventID)
	if errors.Is(err, repository.ErrNotFound) {
		return failure(ReasonEventNotFound,
			"I couldn't find that event.",
			"Query your schedule to get the right event id."), nil
	}
	if err != nil {
		return types.TurnResult{}, err
	}

	if u.Title != nil && *u.Title != "" {
		ev.Title = *u.Title
	}
	if u.Description != nil {
		ev.Description = *u.Description
	}
	if u.Priority != nil {
		ev.Priority = *u.Priority
		ev.Tag = u.Tag
	}
	if err := ev.Validate(); err != nil {
		return failure(ReasonInvalidField, err.Error(), ""), nil
	}

	stored, err := s.store.UpdateEvent(ctx, owner, ev)
	if err != nil {
		return types.TurnResult{}, err
	}
	s.enqueueRefresh(ctx, owner)

	wire := types.NewEvent(stored)
	return types.TurnResult{
		Outcome: types.OutcomeUpdated,
		Message: fmt.Sprintf("Updated %q.", stored.Title),
		Event:   &wire,
	}, nil
}

func (s *Service) handleDelete(ctx context.Context, owner string, d intent.DeleteEvent) (types.TurnResult, error) {
	err := s.store.DeleteEvent(ctx, owner, d.EventID)
	if errors.Is(err, repository.ErrNotFound) {
		return failure(ReasonEventNotFound,
			"I couldn't find that event.",
			"Query your schedule to get the right event id."), nil
	}
	if err != nil {
		return types.TurnResult{}, err
	}
	s.enqueueRefresh(ctx, owner)

	return types.TurnResult{
		Outcome: types.OutcomeDeleted,
		Message: "Deleted the event.",
	}, nil
}

func (s *Service) handleQuery(ctx context.Context, owner string, pref model.AvailabilityPreference, now time.Time, q intent.QueryRange) (types.TurnResult, error) {
	from, to := queryWindow(q.When, now)

	events, err := s.ListEvents(ctx, owner, from, to)
	if err != nil {
		return types.TurnResult{}, err
	}

	msg := fmt.Sprintf("You have %d event(s) %s.", len(events), describeWindow(q.When))
	if len(events) == 0 {
		msg = fmt.Sprintf("Nothing scheduled %s.", describeWindow(q.When))
	}

	return types.TurnResult{
		Outcome: types.OutcomeQuery,
		Message: msg,
		Events:  types.NewEvents(events),
	}, nil
}

func (s *Service) handleGoals(ctx context.Context, owner string, now time.Time, g intent.CheckGoals) (types.TurnResult, error) {
	weekID := g.WeekID
	if weekID == "" {
		weekID = goal.WeekID(now)
	}

	progress, err := s.GoalProgress(ctx, owner, weekID)
	if errors.Is(err, goal.ErrBadWeekID) {
		return failure(ReasonBadWeek,
			fmt.Sprintf("%q is not a week I understand.", weekID),
			"Use the YYYY-Wnn form, e.g. 2026-W10."), nil
	}
	if err != nil {
		return types.TurnResult{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Goal progress for %s:", weekID)
	if len(progress) == 0 {
		b.Reset()
		fmt.Fprintf(&b, "No goals set for %s.", weekID)
	}
	for _, p := range progress {
		fmt.Fprintf(&b, " %s %.1fh/%.1fh (%d%%).", p.Category, p.CompletedHours, p.TargetHours, p.Percent)
	}

	return types.TurnResult{
		Outcome: types.OutcomeGoals,
		Message: b.String(),
		Goals:   types.NewGoalProgress(progress),
	}, nil
}

// handleClarify relays the extractor's own question and opens a
// conversation to collect the answers.
func (s *Service) handleClarify(ctx context.Context, owner string, c intent.Clarify) (types.TurnResult, error) {
	conv := s.tracker.Begin(ctx, owner, intent.CreateEvent{Priority: 5, Tag: model.TagMedium})

	question := c.Question
	if question == "" {
		question = conv.NextQuestion()
	}
	missing := c.Missing
	if len(missing) == 0 {
		missing = conv.Missing
	}

	metrics.RecordClarificationAsked()
	return types.TurnResult{
		Outcome:        types.OutcomeNeedsInput,
		Message:        question,
		ConversationID: conv.ID,
		Question:       question,
		Missing:        missing,
	}, nil
}

// rescheduleFailure maps planner errors onto user-facing failure results.
func rescheduleFailure(err error) types.TurnResult {
	switch {
	case errors.Is(err, reschedule.ErrAutoRescheduleDisabled):
		return failure(ReasonAutoRescheduleDisabled,
			"No free slot, and automatic rescheduling is off.",
			"Say it must happen today, or pick another day.")
	case errors.Is(err, reschedule.ErrOnlyProtectedConflicts):
		return failure(ReasonProtectedConflicts,
			"The only conflicting events are protected and cannot be moved.",
			"Pick another day or shorten the task.")
	case errors.Is(err, reschedule.ErrNoSlotEvenAfterDisplacement):
		return failure(ReasonNoSlot,
			"Your calendar is too full, even after moving lower-priority events.",
			"Try a shorter duration or a later week.")
	default:
		return failure(ReasonInternal, "Scheduling failed.", "")
	}
}

func failure(reason, message, suggestion string) types.TurnResult {
	return types.TurnResult{
		Outcome:    types.OutcomeFailed,
		Message:    message,
		Reason:     reason,
		Suggestion: suggestion,
	}
}

// queryWindow resolves a date hint to a concrete half-open range.
func queryWindow(w intent.When, now time.Time) (time.Time, time.Time) {
	day := startOfDay(now)
	switch w.Kind {
	case intent.WhenToday:
		return day, day.AddDate(0, 0, 1)
	case intent.WhenTomorrow:
		return day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)
	case intent.WhenWeekend:
		sat := day
		for sat.Weekday() != time.Saturday {
			sat = sat.AddDate(0, 0, 1)
		}
		return sat, sat.AddDate(0, 0, 2)
	case intent.WhenThisWeek:
		monday := day
		for monday.Weekday() != time.Monday {
			monday = monday.AddDate(0, 0, -1)
		}
		return monday, monday.AddDate(0, 0, 7)
	case intent.WhenDate:
		d := startOfDay(w.Date)
		return d, d.AddDate(0, 0, 1)
	default:
		return now, day.AddDate(0, 0, 7)
	}
}

func describeWindow(w intent.When) string {
	switch w.Kind {
	case intent.WhenToday:
		return "today"
	case intent.WhenTomorrow:
		return "tomorrow"
	case intent.WhenWeekend:
		return "this weekend"
	case intent.WhenThisWeek:
		return "this week"
	case intent.WhenDate:
		return "on " + w.Date.Format("Mon, Jan 2")
	default:
		return "in the next seven days"
	}
}

func formatSlot(iv model.Interval) string {
	return fmt.Sprintf("%s, %s-%s",
		iv.Start.Format("Mon Jan 2"),
		iv.Start.Format("15:04"),
		iv.End.Format("15:04"))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
