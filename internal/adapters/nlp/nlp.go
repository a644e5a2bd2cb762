// Package nlp turns natural-language turns into structured intent fields.
// The extractor is the only component that sees raw user text; everything
// downstream works on the parsed field map.
package nlp

import "context"

// Message is one entry of the conversation history passed for context.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Extractor produces the raw intent field map for one turn. Keys follow the
// extraction contract: action, title, duration, priority, when, force_today,
// category, description, event_id, query, question, missing.
type Extractor interface {
	Extract(ctx context.Context, text string, history []Message) (map[string]any, error)
}
