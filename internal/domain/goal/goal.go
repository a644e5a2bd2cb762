// Package goal tracks weekly category targets against scheduled events.
package goal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"scheddy/internal/domain/model"
)

const (
	hoursPerWeekDay = 24
	daysPerWeek     = 7
	maxPercent      = 100
)

// Progress is the computed standing of one category for one week.
type Progress struct {
	Category       string  `json:"category"`
	TargetHours    float64 `json:"target_hours"`
	CompletedHours float64 `json:"completed_hours"`
	RemainingHours float64 `json:"remaining_hours"`
	Percent        int     `json:"percent"`
}

// Complete reports whether the target has been met.
func (p Progress) Complete() bool {
	return p.TargetHours > 0 && p.CompletedHours >= p.TargetHours
}

// WeekID formats the ISO year-week identifier for an instant, e.g.
// "2026-W10".
func WeekID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekBounds returns the UTC [Monday 00:00, next Monday 00:00) range for a
// week identifier.
func WeekBounds(weekID string) (time.Time, time.Time, error) {
	parts := strings.SplitN(weekID, "-W", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrBadWeekID, weekID)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrBadWeekID, weekID)
	}
	week, err := strconv.Atoi(parts[1])
	if err != nil || week < 1 || week > 53 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrBadWeekID, weekID)
	}

	// January 4th always falls in ISO week 1.
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.UTC)
	week1Monday := jan4.AddDate(0, 0, -(int(jan4.Weekday())+6)%daysPerWeek)
	start := week1Monday.AddDate(0, 0, (week-1)*daysPerWeek)
	return start, start.AddDate(0, 0, daysPerWeek), nil
}

// Recompute folds the event set into per-category progress for one week.
// Events are clipped to the week's boundaries and cancelled events are
// ignored. It is pure; callers own persistence of the result.
func Recompute(weekID string, events []model.Event, targets map[string]float64) (map[string]Progress, error) {
	start, end, err := WeekBounds(weekID)
	if err != nil {
		return nil, err
	}

	completed := make(map[string]float64)
	for _, e := range events {
		if !e.Active() {
			continue
		}
		s, t := e.Start, e.End
		if s.Before(start) {
			s = start
		}
		if t.After(end) {
			t = end
		}
		if !t.After(s) {
			continue
		}

		category := e.Category
		if category == "" || category == "general" {
			category = Categorize(e.Title, e.Description)
		}
		completed[category] += t.Sub(s).Hours()
	}

	out := make(map[string]Progress, len(targets))
	for category, target := range targets {
		done := completed[category]
		out[category] = Progress{
			Category:       category,
			TargetHours:    target,
			CompletedHours: done,
			RemainingHours: math.Max(0, target-done),
			Percent:        percent(done, target),
		}
	}
	return out, nil
}

// percent is capped at 100; a zero target reads as 0%, not a division
// fault.
func percent(completed, target float64) int {
	if target <= 0 {
		return 0
	}
	p := int(math.Round(completed / target * maxPercent))
	if p > maxPercent {
		return maxPercent
	}
	return p
}

// categoryKeywords drives keyword-based auto-categorization for tasks whose
// intent carried no category.
var categoryKeywords = map[string][]string{
	"learning": {"learn", "study", "course", "tutorial", "read", "book", "education"},
	"exercise": {"gym", "workout", "exercise", "run", "yoga", "fitness"},
	"meetings": {"meeting", "call", "standup", "sync", "discussion"},
	"coding":   {"code", "develop", "programming", "debug", "implement"},
	"planning": {"plan", "organize", "strategy", "roadmap"},
	"personal": {"personal", "family", "friends", "hobby"},
}

// categoryOrder keeps categorization deterministic when keywords from
// several categories appear.
var categoryOrder = []string{"learning", "exercise", "meetings", "coding", "planning", "personal"}

// Categorize guesses a goal category from a task's text. Unknown tasks fall
// into "general".
func Categorize(title, description string) string {
	text := strings.ToLower(title + " " + description)
	for _, category := range categoryOrder {
		for _, kw := range categoryKeywords[category] {
			if strings.Contains(text, kw) {
				return category
			}
		}
	}
	return "general"
}
