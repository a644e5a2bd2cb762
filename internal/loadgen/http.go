package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitTurns submits turns concurrently using worker pools
func submitTurns(ctx context.Context, config *Config, turns []Turn, stats *Stats) error {
	log.Printf("📤 Submitting %d turns with %d workers...", len(turns), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/turns"

	// Counters for statistics
	var (
		scheduled   int64
		rescheduled int64
		needsInput  int64
		failed      int64
		submitted   int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	turnChan := make(chan Turn, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for turn := range turnChan {
				select {
				case <-ctx.Done():
					return
				default:
					outcome := submitSingleTurn(ctx, client, url, turn)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch outcome {
					case "scheduled":
						atomic.AddInt64(&scheduled, 1)
					case "rescheduled":
						atomic.AddInt64(&rescheduled, 1)
					case "needs_input":
						atomic.AddInt64(&needsInput, 1)
					default:
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						sched := atomic.LoadInt64(&scheduled)
						resched := atomic.LoadInt64(&rescheduled)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d submitted (scheduled: %d, rescheduled: %d, failed: %d)",
								total, len(turns), sched, resched, fail)
						} else {
							fmt.Printf("\r📤 Submitted: %d/%d (scheduled: %d, rescheduled: %d, failed: %d)",
								total, len(turns), sched, resched, fail)
						}
					}
				}
			}
		}()
	}

	// Send turns to workers
	go func() {
		defer close(turnChan)
		for _, turn := range turns {
			select {
			case <-ctx.Done():
				return
			case turnChan <- turn:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.TurnsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.TurnsScheduled = int(atomic.LoadInt64(&scheduled))
	stats.TurnsRescheduled = int(atomic.LoadInt64(&rescheduled))
	stats.TurnsNeedsInput = int(atomic.LoadInt64(&needsInput))
	stats.TurnsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Turn submission completed:
   Scheduled: %d
   Rescheduled: %d
   Needs input: %d
   Failed: %d
`, stats.TurnsScheduled, stats.TurnsRescheduled, stats.TurnsNeedsInput, stats.TurnsFailed)

	return nil
}

// submitSingleTurn submits a single turn and returns its outcome
func submitSingleTurn(ctx context.Context, client *HTTPClient, url string, turn Turn) string {
	resp, err := client.Post(ctx, url, turn)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	if resp.StatusCode != StatusOK {
		return "failed"
	}

	var result TurnResult
	if err := unmarshalJSON(body, &result); err != nil {
		return "failed"
	}
	if result.Outcome == "" {
		return "failed"
	}

	return result.Outcome
}
