package intent

import "errors"

// Sentinel kinds for intent parsing errors.
var (
	ErrUnknownAction = errors.New("unknown action")
)
