// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// SearchHorizonDays bounds how far ahead slot search looks.
	SearchHorizonDays int `koanf:"search_horizon_days"`

	// ConversationTTLMinutes discards clarification conversations idle
	// for this long.
	ConversationTTLMinutes int `koanf:"conversation_ttl_minutes"`

	// RescheduleMaxVictims caps how many events one placement may displace.
	RescheduleMaxVictims int `koanf:"reschedule_max_victims"`

	// SweepSpec is the cron spec for the conversation expiry sweep.
	SweepSpec string `koanf:"sweep_spec"`

	// GoalResyncSpec is the cron spec for weekly goal progress resync.
	GoalResyncSpec string `koanf:"goal_resync_spec"`

	// NLPEndpoint is the chat-completions URL used for intent extraction.
	// Empty disables the HTTP extractor.
	NLPEndpoint string `koanf:"nlp_endpoint"`

	// NLPAPIKey authenticates against the extraction endpoint.
	NLPAPIKey string `koanf:"nlp_api_key"`

	// NLPModel names the completion model.
	NLPModel string `koanf:"nlp_model"`

	// SimilarityEndpoint is the vector search sidecar URL. Empty falls back
	// to the in-memory word-overlap searcher.
	SimilarityEndpoint string `koanf:"similarity_endpoint"`

	// SimilarityAPIKey authenticates against the similarity sidecar.
	SimilarityAPIKey string `koanf:"similarity_api_key"`

	// SimilarityCutoff is the minimum score for a match to count toward
	// the recurring-pattern digest.
	SimilarityCutoff float64 `koanf:"similarity_cutoff"`

	// PatternSearchLimit caps how many lookalikes feed the digest.
	PatternSearchLimit int `koanf:"pattern_search_limit"`

	// DedupeSize bounds how many turn ids are remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`

	// RefreshWorkerCount sets how many workers drain the background
	// refresh queue.
	RefreshWorkerCount int `koanf:"refresh_worker_count"`

	// RefreshQueueCapacity bounds the background refresh queue.
	RefreshQueueCapacity int `koanf:"refresh_queue_capacity"`
}

// New creates a Config using defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		SearchHorizonDays:      14,
		ConversationTTLMinutes: 30,
		RescheduleMaxVictims:   16,
		SweepSpec:              "* * * * *",
		GoalResyncSpec:         "0 * * * *",
		NLPModel:               "meta-llama/llama-3.2-3b-instruct:free",
		SimilarityCutoff:       0.8,
		PatternSearchLimit:     10,
		DedupeSize:             50000,
		RefreshWorkerCount:     4,
		RefreshQueueCapacity:   4096,
	}
}
