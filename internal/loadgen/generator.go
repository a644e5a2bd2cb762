package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"

	"scheddy/pkg/logger"
)

// Constants for random number generation.
const (
	workloadTypeDivisor = 8
)

// Constants for workload type cases.
const (
	caseShortMeeting  = 0
	caseDeepWork      = 1
	caseQuickErrand   = 2
	caseUrgentToday   = 3
	caseWeekendChore  = 4
	caseLearningBlock = 5
	caseLowPriority   = 6
	caseRecurringHint = 7
)

// Pools of synthetic turn material. Titles repeat across owners so the
// engine has a chance to spot recurring items.
var (
	titles = []string{
		"team standup",
		"review pull requests",
		"write weekly report",
		"call with accountant",
		"plan sprint backlog",
		"prepare slides",
		"gym workout",
		"grocery run",
		"study spanish",
		"read research paper",
	}
	categories = []string{"work", "learning", "health", "errands", "social"}
	durations  = []string{"15m", "30m", "45m", "1h", "1h30m", "2h"}
)

// pick returns a random element of the pool using crypto/rand.
func pick(pool []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	return pool[n.Int64()]
}

// generateTurns creates the specified number of turns spread across owners.
func generateTurns(ctx context.Context, config *Config, stats *Stats) ([]Turn, error) {
	logger.Get().Info(ctx, "generating turns",
		logger.Int("numTurns", config.NumTurns),
		logger.Int("numOwners", config.NumOwners))

	turns := make([]Turn, config.NumTurns)

	// Pre-allocate the owner pool so turns cluster on a fixed population
	owners := make([]string, config.NumOwners)
	for i := 0; i < config.NumOwners; i++ {
		owners[i] = "owner-" + strconv.Itoa(i+1)
	}

	// Generate turns concurrently
	type turnResult struct {
		index int
		turn  Turn
		err   error
	}

	resultChan := make(chan turnResult, config.NumTurns)

	// Use worker pool for turn generation
	workerCount := minInt(config.Workers, config.NumTurns)
	turnsPerWorker := config.NumTurns / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * turnsPerWorker
		end := start + turnsPerWorker
		if worker == workerCount-1 {
			end = config.NumTurns // Last worker gets remaining turns
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- turnResult{index: i, err: ctx.Err()}
					return
				default:
					turn := generateSingleTurn(i, owners)
					resultChan <- turnResult{index: i, turn: turn, err: nil}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumTurns; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during turn generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate turn %d: %w", result.index, result.err)
			}
			turns[result.index] = result.turn
		}
	}

	stats.TurnsGenerated = len(turns)
	logger.Get().Info(ctx, "generated turns successfully", logger.Int("count", len(turns)))

	return turns, nil
}

// generateSingleTurn creates a single create_event turn for a random owner.
func generateSingleTurn(index int, owners []string) Turn {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(owners))))
	owner := owners[n.Int64()]

	fields := map[string]any{
		"action":   "create_event",
		"title":    pick(titles),
		"duration": pick(durations),
	}

	// Varied workload mix so placements exercise different engine paths
	kind, _ := rand.Int(rand.Reader, big.NewInt(workloadTypeDivisor))
	switch kind.Int64() {
	case caseShortMeeting:
		// Plain medium-priority booking, most common shape
		fields["duration"] = "30m"
		fields["category"] = pick(categories)
	case caseDeepWork:
		fields["duration"] = "2h"
		fields["priority"] = "high"
	case caseQuickErrand:
		fields["duration"] = "15m"
		fields["category"] = "errands"
	case caseUrgentToday:
		// Urgent same-day work, may displace earlier bookings
		fields["priority"] = "urgent"
		fields["when"] = "today"
		fields["force_today"] = "true"
	case caseWeekendChore:
		fields["when"] = "weekend"
		fields["priority"] = "low"
	case caseLearningBlock:
		fields["category"] = "learning"
		fields["duration"] = "1h"
		fields["when"] = "this_week"
	case caseLowPriority:
		fields["priority"] = "optional"
	case caseRecurringHint:
		// Reuse a fixed title so the same owner accumulates lookalikes
		fields["title"] = titles[index%len(titles)]
	}

	return Turn{
		Owner:  owner,
		Fields: fields,
		TurnID: "turn_" + strconv.Itoa(index) + "_" + uuid.New().String(),
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
