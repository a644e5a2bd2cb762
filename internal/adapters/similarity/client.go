package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scheddy/internal/domain/pattern"
)

// maxResponseBytes bounds how much of a search response is read.
const maxResponseBytes = 256 * 1024

// Client talks to a vector search sidecar over HTTP. The sidecar owns
// embeddings; this client only ships text and payloads back and forth.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithHTTPClient injects a custom HTTP client, mostly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient constructs a searcher backed by a vector search service.
func NewClient(endpoint, apiKey string, opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		return nil, ErrNotConfigured
	}

	c := &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type indexRequest struct {
	Owner           string    `json:"owner"`
	Text            string    `json:"text"`
	Category        string    `json:"category,omitempty"`
	Priority        int       `json:"priority"`
	DurationMinutes int       `json:"duration_minutes"`
	WhenScheduled   time.Time `json:"when_scheduled"`
}

type searchRequest struct {
	Owner string `json:"owner"`
	Text  string `json:"text"`
	Limit int    `json:"limit"`
}

type searchMatch struct {
	Text            string    `json:"text"`
	Category        string    `json:"category"`
	Priority        int       `json:"priority"`
	DurationMinutes int       `json:"duration_minutes"`
	WhenScheduled   time.Time `json:"when_scheduled"`
	Score           float64   `json:"score"`
}

type searchResponse struct {
	Matches []searchMatch `json:"matches"`
}

// Index implements Searcher.
func (c *Client) Index(ctx context.Context, owner string, item pattern.Item) error {
	body := indexRequest{
		Owner:           owner,
		Text:            item.Text,
		Category:        item.Category,
		Priority:        item.Priority,
		DurationMinutes: item.DurationMinutes,
		WhenScheduled:   item.WhenScheduled,
	}
	return c.post(ctx, "/index", body, nil)
}

// Search implements Searcher.
func (c *Client) Search(ctx context.Context, owner, text string, limit int) ([]pattern.Item, error) {
	if limit <= 0 {
		limit = 10
	}

	var parsed searchResponse
	if err := c.post(ctx, "/search", searchRequest{Owner: owner, Text: text, Limit: limit}, &parsed); err != nil {
		return nil, err
	}

	out := make([]pattern.Item, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		out = append(out, pattern.Item{
			Text:            m.Text,
			Category:        m.Category,
			Priority:        m.Priority,
			DurationMinutes: m.DurationMinutes,
			WhenScheduled:   m.WhenScheduled,
			Similarity:      m.Score,
		})
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal similarity request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build similarity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("similarity request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read similarity response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
	}
	return nil
}
