package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scheddy/pkg/logger"
)

// maxResponseBytes bounds how much of a completion response is read.
const maxResponseBytes = 64 * 1024

const systemPrompt = `You are a scheduling assistant. Respond only in valid JSON with keys:
"action" (create_event, update_event, delete_event, query_schedule, check_goals, ask_clarification),
"title", "duration" (like "1h", "30m", "1h30m"),
"priority" (urgent, high, medium, low, optional),
"when" (today, tomorrow, weekend, this_week, a YYYY-MM-DD date, or null),
"force_today" (boolean), "category", "description", "event_id", "query".
For ask_clarification also set "question" and "missing_info".
For check_goals optionally set "week" as "YYYY-Wnn".
Return only JSON, no markdown, no extra text.`

// Client is a chat-completions intent extractor. It makes a single request
// per turn; retries are the caller's business.
type Client struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithModel sets the completion model name.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ClientOption {
	return func(c *Client) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithHTTPClient injects a custom HTTP client, mostly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient constructs an extractor talking to a chat-completions endpoint.
// The API key may be empty for unauthenticated local models.
func NewClient(endpoint, apiKey string, opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		return nil, ErrNotConfigured
	}

	c := &Client{
		endpoint:    strings.TrimSuffix(endpoint, "/"),
		apiKey:      apiKey,
		model:       "meta-llama/llama-3.2-3b-instruct:free",
		temperature: 0.2,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract implements Extractor.
func (c *Client) Extract(ctx context.Context, text string, history []Message) (map[string]any, error) {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: text})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read extraction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.Get().Warn(ctx, "extractor returned non-200",
			logger.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	return decodeFields(parsed.Choices[0].Message.Content)
}

// decodeFields parses the model's JSON answer, tolerating markdown fences
// some models wrap around their output.
func decodeFields(content string) (map[string]any, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return fields, nil
}
