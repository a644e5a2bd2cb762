package similarity

import (
	"context"
	"sort"
	"sync"

	"scheddy/internal/domain/pattern"
	"scheddy/internal/domain/scoring"
)

// DefaultMaxRecords caps how many requests the in-memory searcher remembers
// per owner. The oldest entries fall off first.
const DefaultMaxRecords = 512

// MemoryOption applies a configuration option to the memory searcher.
type MemoryOption func(*memorySearcher)

// WithMaxRecords sets the per-owner retention cap.
func WithMaxRecords(n int) MemoryOption {
	return func(s *memorySearcher) {
		if n > 0 {
			s.maxRecords = n
		}
	}
}

// WithScorer replaces the text scorer.
func WithScorer(scorer scoring.Scorer) MemoryOption {
	return func(s *memorySearcher) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// memorySearcher scores matches by word overlap. It is the fallback when no
// vector search service is configured; good enough for near-verbatim
// repeats like "gym workout" week after week.
type memorySearcher struct {
	mu         sync.RWMutex
	byOwner    map[string][]pattern.Item
	maxRecords int
	scorer     scoring.Scorer
}

// NewMemorySearcher creates an in-memory searcher with configuration options.
func NewMemorySearcher(opts ...MemoryOption) Searcher {
	s := &memorySearcher{
		byOwner:    make(map[string][]pattern.Item),
		maxRecords: DefaultMaxRecords,
		scorer:     scoring.NewJaccardScorer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *memorySearcher) Index(ctx context.Context, owner string, item pattern.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := append(s.byOwner[owner], item)
	if len(items) > s.maxRecords {
		items = items[len(items)-s.maxRecords:]
	}
	s.byOwner[owner] = items
	return nil
}

func (s *memorySearcher) Search(ctx context.Context, owner, text string, limit int) ([]pattern.Item, error) {
	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []pattern.Item
	for _, item := range s.byOwner[owner] {
		score := s.scorer.Score(text, item.Text)
		if score == 0 {
			continue
		}
		item.Similarity = score
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
