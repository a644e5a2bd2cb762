package similarity

import "errors"

// Sentinel kinds for searcher errors.
var (
	ErrNotConfigured = errors.New("similarity endpoint not configured")
	ErrBadResponse   = errors.New("malformed similarity response")
)
