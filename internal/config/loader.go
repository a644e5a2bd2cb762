package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if SCHEDDY_CONFIG is set
//  3. env (prefix SCHEDDY_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("SCHEDDY_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: SCHEDDY_ADDR, SCHEDDY_SEARCH_HORIZON_DAYS, ...
	// Map env keys like SCHEDDY_SEARCH_HORIZON_DAYS -> search_horizon_days.
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("SCHEDDY_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "scheddy_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.SearchHorizonDays <= 0 {
		return fmt.Errorf("%w: search_horizon_days must be positive", ErrInvalidConfig)
	}
	if cfg.ConversationTTLMinutes <= 0 {
		return fmt.Errorf("%w: conversation_ttl_minutes must be positive", ErrInvalidConfig)
	}
	if cfg.RescheduleMaxVictims <= 0 {
		return fmt.Errorf("%w: reschedule_max_victims must be positive", ErrInvalidConfig)
	}
	if cfg.SimilarityCutoff < 0 || cfg.SimilarityCutoff > 1 {
		return fmt.Errorf("%w: similarity_cutoff must be in [0,1]", ErrInvalidConfig)
	}
	if cfg.RefreshWorkerCount <= 0 {
		return fmt.Errorf("%w: refresh_worker_count must be positive", ErrInvalidConfig)
	}
	if cfg.RefreshQueueCapacity <= 0 {
		return fmt.Errorf("%w: refresh_queue_capacity must be positive", ErrInvalidConfig)
	}
	return nil
}
