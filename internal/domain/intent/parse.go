package intent

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"scheddy/internal/domain/model"
)

// DefaultDurationMinutes is assumed when a duration string cannot be parsed
// at all. Missing durations are a clarification, not a default.
const DefaultDurationMinutes = 30

// Parse converts a raw extractor payload into a typed Intent. The fields map
// is the decoded JSON object the language model produced; unknown actions
// are an error.
func Parse(fields map[string]any, now time.Time, loc *time.Location) (Intent, error) {
	action := Action(strings.ToLower(asString(fields["action"])))

	switch action {
	case ActionCreateEvent:
		return parseCreate(fields, now, loc), nil
	case ActionUpdateEvent:
		return parseUpdate(fields), nil
	case ActionDeleteEvent:
		return DeleteEvent{EventID: asString(fields["event_id"])}, nil
	case ActionQueryRange, "list_events":
		return QueryRange{When: ParseWhen(asString(fields["when"]), now, loc)}, nil
	case ActionCheckGoals:
		return CheckGoals{WeekID: asString(fields["week"])}, nil
	case ActionClarify:
		return Clarify{
			Question: asString(fields["question"]),
			Missing:  asStrings(fields["missing_info"]),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

func parseCreate(fields map[string]any, now time.Time, loc *time.Location) CreateEvent {
	c := CreateEvent{
		Title:       strings.TrimSpace(asString(fields["title"])),
		Description: asString(fields["description"]),
		Category:    strings.ToLower(asString(fields["category"])),
	}

	if raw, ok := fields["duration"]; ok {
		c.DurationMinutes = ParseDuration(asString(raw))
	}

	c.Priority, c.Tag = model.PriorityFromTag(asString(fields["priority"]))

	c.When = ParseWhen(asString(fields["when"]), now, loc)
	if c.When.Kind == WhenToday {
		c.ForceToday = asBool(fields["force_today"]) || asBool(fields["must_happen_today"])
	}

	return c
}

func parseUpdate(fields map[string]any) UpdateEvent {
	u := UpdateEvent{EventID: asString(fields["event_id"])}

	if raw, ok := fields["title"]; ok {
		s := asString(raw)
		u.Title = &s
	}
	if raw, ok := fields["description"]; ok {
		s := asString(raw)
		u.Description = &s
	}
	if raw, ok := fields["priority"]; ok {
		p, tag := model.PriorityFromTag(asString(raw))
		u.Priority = &p
		u.Tag = tag
	}
	return u
}

// ParseDuration turns strings like "2h", "30m" or "1h30m" into minutes.
// Unparseable input falls back to DefaultDurationMinutes.
func ParseDuration(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}

	total := 0
	if i := strings.Index(s, "h"); i >= 0 {
		if hours, err := strconv.Atoi(strings.TrimSpace(s[:i])); err == nil {
			total += hours * 60
		}
		s = s[i+1:]
	}
	if i := strings.Index(s, "m"); i >= 0 {
		if mins, err := strconv.Atoi(strings.TrimSpace(s[:i])); err == nil {
			total += mins
		}
	} else if s != "" {
		// Bare number means minutes.
		if mins, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			total += mins
		}
	}

	if total <= 0 {
		return DefaultDurationMinutes
	}
	return total
}

// ParseWhen interprets a date hint. Explicit dates accept YYYY-MM-DD.
func ParseWhen(s string, now time.Time, loc *time.Location) When {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return When{Kind: WhenUnspecified}
	case "today", "now":
		return When{Kind: WhenToday}
	case "tomorrow":
		return When{Kind: WhenTomorrow}
	case "weekend", "this weekend", "this_weekend":
		return When{Kind: WhenWeekend}
	case "this_week", "this week":
		return When{Kind: WhenThisWeek}
	}
	if d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc); err == nil {
		return When{Kind: WhenDate, Date: d}
	}
	return When{Kind: WhenUnspecified}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true") || strings.EqualFold(b, "yes")
	default:
		return false
	}
}

func asStrings(v any) []string {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, item := range vs {
			out = append(out, asString(item))
		}
		return out
	default:
		return nil
	}
}
