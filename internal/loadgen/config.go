package loadgen

import "time"

// Config holds configuration for the scheduling load test
type Config struct {
	BaseURL    string        // Base URL of the service
	NumTurns   int           // Number of turns to generate
	NumOwners  int           // Number of distinct owners to spread turns across
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for generated turns
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Turn represents one conversational turn to be submitted
type Turn struct {
	Owner  string         `json:"owner"`
	Fields map[string]any `json:"fields"`
	TurnID string         `json:"turn_id"`
}

// TurnResult represents the engine's answer to a submitted turn
type TurnResult struct {
	Outcome string `json:"outcome"`
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// Event represents one booked calendar entry returned by /events
type Event struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Priority int       `json:"priority"`
}

// EventsResponse is the envelope returned by the /events endpoint
type EventsResponse struct {
	Owner  string  `json:"owner"`
	Count  int     `json:"count"`
	Events []Event `json:"events"`
}

// Stats holds test statistics
type Stats struct {
	TurnsGenerated   int
	TurnsSubmitted   int
	TurnsScheduled   int
	TurnsRescheduled int
	TurnsNeedsInput  int
	TurnsFailed      int
	EventsVerified   int
	OverlapsFound    int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
