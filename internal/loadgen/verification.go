package loadgen

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strconv"
	"time"
)

// verificationWindowDays bounds the /events query around the test run.
const verificationWindowDays = 30

// verifyCalendars fetches every owner's calendar and checks that no two
// booked entries overlap.
func verifyCalendars(ctx context.Context, config *Config, stats *Stats) error {
	log.Printf("🔍 Verifying calendars for %d owners...", config.NumOwners)

	client := newHTTPClient(config.Timeout)

	from := time.Now().AddDate(0, 0, -1)
	to := time.Now().AddDate(0, 0, verificationWindowDays)

	totalEvents := 0
	totalOverlaps := 0

	for i := 0; i < config.NumOwners; i++ {
		owner := "owner-" + strconv.Itoa(i+1)

		events, err := fetchOwnerEvents(ctx, client, config.BaseURL, owner, from, to)
		if err != nil {
			log.Printf("⚠️  Failed to fetch events for %s: %v", owner, err)
			continue
		}

		overlaps := countOverlaps(events)
		totalEvents += len(events)
		totalOverlaps += overlaps

		if config.Verbose {
			log.Printf("📅 %s: %d events, %d overlaps", owner, len(events), overlaps)
		}
		if overlaps > 0 {
			log.Printf("⚠️  Overlapping bookings detected for %s: %d", owner, overlaps)
		}
	}

	stats.EventsVerified = totalEvents
	stats.OverlapsFound = totalOverlaps

	if totalOverlaps > 0 {
		return fmt.Errorf("found %d overlapping bookings across %d events", totalOverlaps, totalEvents)
	}

	log.Printf("✅ Verified %d events, no overlaps", totalEvents)
	return nil
}

// fetchOwnerEvents retrieves one owner's bookings in the given window.
func fetchOwnerEvents(ctx context.Context, client *HTTPClient, baseURL, owner string, from, to time.Time) ([]Event, error) {
	q := url.Values{}
	q.Set("owner", owner)
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", to.Format(time.RFC3339))

	resp, err := client.Get(ctx, baseURL+"/events?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var envelope EventsResponse
	if err := unmarshalJSON(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return envelope.Events, nil
}

// countOverlaps counts adjacent pairs that intersect once sorted by start.
func countOverlaps(events []Event) int {
	if len(events) < 2 {
		return 0
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	overlaps := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start.Before(sorted[i-1].End) {
			overlaps++
		}
	}
	return overlaps
}

// fetchServiceStats retrieves and logs the engine's internal counters.
func fetchServiceStats(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/stats")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var counters map[string]interface{}
	if err := unmarshalJSON(body, &counters); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	log.Printf("📊 Service stats: %v", counters)
	return nil
}
