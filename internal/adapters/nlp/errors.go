package nlp

import "errors"

// Sentinel kinds for extractor errors.
var (
	ErrNotConfigured = errors.New("extractor endpoint not configured")
	ErrBadResponse   = errors.New("malformed extractor response")
	ErrEmptyResponse = errors.New("empty extractor response")
)
