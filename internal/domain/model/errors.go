package model

import "errors"

// Sentinel kinds for domain validation errors.
var (
	ErrInvalidField = errors.New("invalid field")
)
