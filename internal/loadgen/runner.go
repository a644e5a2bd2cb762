package loadgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"scheddy/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete scheduling load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting scheddy load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("turns", config.NumTurns),
		logger.Int("owners", config.NumOwners),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate turns
	turns, err := generateTurns(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("turn generation failed: %w", err)
	}

	// Step 3: Submit turns concurrently
	if err := submitTurns(ctx, config, turns, stats); err != nil {
		return fmt.Errorf("turn submission failed: %w", err)
	}

	// Step 4: Wait for background refresh to settle
	logger.Get().Info(ctx, "waiting for background refresh to settle")
	time.Sleep(ProcessingDelay)

	// Step 5: Verify calendars have no overlapping bookings
	if err := verifyCalendars(ctx, config, stats); err != nil {
		return fmt.Errorf("calendar verification failed: %w", err)
	}

	// Step 6: Fetch service counters
	if err := fetchServiceStats(ctx, config); err != nil {
		logger.Get().Warn(ctx, "failed to fetch service stats", logger.Error(err))
	}

	// Step 7: Save turns to file
	if err := saveTurnsToFile(ctx, config, turns); err != nil {
		logger.Get().Warn(ctx, "failed to save turns to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the endpoint returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveTurnsToFile saves the generated turns to a JSON file.
func saveTurnsToFile(ctx context.Context, config *Config, turns []Turn) error {
	if len(turns) == 0 {
		return fmt.Errorf("no turns to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_turns_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write turns to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, turn := range turns {
		jsonData, err := marshalJSON(turn)
		if err != nil {
			return fmt.Errorf("failed to marshal turn %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write turn %d: %w", i, err)
		}

		// Add comma except for last turn
		if i < len(turns)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "turns saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, turnsPerSecond float64

	if stats.TurnsSubmitted > 0 {
		booked := stats.TurnsScheduled + stats.TurnsRescheduled
		successRate = float64(booked) / float64(stats.TurnsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		turnsPerSecond = float64(stats.TurnsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("turnsGenerated", stats.TurnsGenerated),
		logger.Int("turnsSubmitted", stats.TurnsSubmitted),
		logger.Int("turnsScheduled", stats.TurnsScheduled),
		logger.Int("turnsRescheduled", stats.TurnsRescheduled),
		logger.Int("turnsNeedsInput", stats.TurnsNeedsInput),
		logger.Int("turnsFailed", stats.TurnsFailed),
		logger.Int("eventsVerified", stats.EventsVerified),
		logger.Int("overlapsFound", stats.OverlapsFound),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("turnsPerSecond", turnsPerSecond))
}
