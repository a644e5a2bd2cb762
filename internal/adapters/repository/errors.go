package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound    = errors.New("event not found")
	ErrDuplicateID = errors.New("duplicate event id")
)
