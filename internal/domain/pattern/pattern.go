// Package pattern condenses similar past tasks into scheduling defaults.
// The similarity ranking itself comes from an external service; this
// package only aggregates what it returns.
package pattern

import (
	"math"
	"time"
)

const (
	// durationGranularity rounds suggested durations to friendly values.
	durationGranularity = 5
	// recurringThreshold is the minimum number of similar items before a
	// task counts as recurring.
	recurringThreshold = 2
	// DefaultSimilarityCutoff filters weak matches out of the digest.
	DefaultSimilarityCutoff = 0.8
)

// Item is one past task as reported by the similarity service, ordered
// most-similar first.
type Item struct {
	Text            string
	Category        string
	Priority        int
	DurationMinutes int
	WhenScheduled   time.Time
	Similarity      float64
}

// Digest is the compact statistical summary used to pre-fill defaults.
// Explicit user-stated values always win over a digest.
type Digest struct {
	OccurrenceCount        int
	AverageDurationMinutes int
	ModalPriority          int
	Recurring              bool
	LastScheduled          time.Time
}

// Summarize aggregates similar items above the cutoff: occurrence count,
// mean duration rounded to the nearest five minutes, and the modal
// priority with ties broken toward the most recent item.
func Summarize(items []Item, cutoff float64) Digest {
	if cutoff <= 0 {
		cutoff = DefaultSimilarityCutoff
	}

	var kept []Item
	for _, it := range items {
		if it.Similarity >= cutoff {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		return Digest{}
	}

	totalMinutes := 0
	counts := make(map[int]int)
	latestByPriority := make(map[int]time.Time)
	var last time.Time
	for _, it := range kept {
		totalMinutes += it.DurationMinutes
		counts[it.Priority]++
		if it.WhenScheduled.After(latestByPriority[it.Priority]) {
			latestByPriority[it.Priority] = it.WhenScheduled
		}
		if it.WhenScheduled.After(last) {
			last = it.WhenScheduled
		}
	}

	mean := float64(totalMinutes) / float64(len(kept))
	rounded := int(math.Round(mean/durationGranularity)) * durationGranularity

	modal, best := 0, -1
	for priority, n := range counts {
		switch {
		case n > best:
			modal, best = priority, n
		case n == best && latestByPriority[priority].After(latestByPriority[modal]):
			modal = priority
		}
	}

	return Digest{
		OccurrenceCount:        len(kept),
		AverageDurationMinutes: rounded,
		ModalPriority:          modal,
		Recurring:              len(kept) >= recurringThreshold,
		LastScheduled:          last,
	}
}
