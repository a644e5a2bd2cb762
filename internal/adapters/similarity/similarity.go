// Package similarity finds previously scheduled requests that resemble the
// current one. Matches feed the pattern digest that suggests recurring
// habits.
package similarity

import (
	"context"

	"scheddy/internal/domain/pattern"
)

// Searcher indexes past requests and retrieves lookalikes. Returned items
// carry a Similarity score in [0,1], best first.
type Searcher interface {
	// Index remembers one scheduled request for future lookups.
	Index(ctx context.Context, owner string, item pattern.Item) error

	// Search returns up to limit items resembling the text, best first.
	Search(ctx context.Context, owner, text string, limit int) ([]pattern.Item, error)
}
