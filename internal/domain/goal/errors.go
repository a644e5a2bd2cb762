package goal

import "errors"

// Sentinel kinds for goal tracking errors.
var (
	ErrBadWeekID = errors.New("malformed week identifier")
)
