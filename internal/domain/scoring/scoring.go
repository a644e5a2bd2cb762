// Package scoring defines the contract for computing text similarity scores.
package scoring

import "strings"

// Default scoring configuration constants.
const (
	minScoreValue = 0.0
	maxScoreValue = 1.0
)

// stopwords are connective words stripped before comparison so that
// "session at the gym" and "gym session" come out close.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "at": {}, "in": {}, "on": {},
	"for": {}, "to": {}, "of": {}, "with": {}, "my": {}, "and": {},
}

// Option applies a configuration option to the JaccardScorer.
type Option func(*JaccardScorer)

// WithStopwords replaces the filtered word set.
func WithStopwords(words []string) Option {
	return func(s *JaccardScorer) {
		s.stopwords = make(map[string]struct{}, len(words))
		for _, w := range words {
			s.stopwords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// Scorer computes how alike two pieces of free text are, on a 0 to 1 scale
// where 1 means identical vocabulary.
type Scorer interface {
	Score(a, b string) float64
}

// JaccardScorer implements Scorer as intersection over union of the two
// word sets. It is deliberately cheap; vector embeddings live behind the
// remote search service, not here.
type JaccardScorer struct {
	stopwords map[string]struct{}
}

// NewJaccardScorer creates a new scorer with configuration options.
func NewJaccardScorer(opts ...Option) *JaccardScorer {
	s := &JaccardScorer{
		stopwords: stopwords,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the similarity of two texts.
func (s *JaccardScorer) Score(a, b string) float64 {
	ta := s.Tokenize(a)
	tb := s.Tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return minScoreValue
	}

	common := 0
	for w := range ta {
		if _, ok := tb[w]; ok {
			common++
		}
	}
	union := len(ta) + len(tb) - common
	if union == 0 {
		return minScoreValue
	}

	score := float64(common) / float64(union)
	if score > maxScoreValue {
		return maxScoreValue
	}
	return score
}

// Tokenize lowercases, strips punctuation and stopwords, and returns the
// remaining word set.
func (s *JaccardScorer) Tokenize(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,!?:;\"'")
		if w == "" {
			continue
		}
		if _, skip := s.stopwords[w]; skip {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}
