package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrMemberNotFound    = errors.New("member not found")
	ErrItemNotFound      = errors.New("work item not found")
	ErrInvalidRoster     = errors.New("invalid roster")
	ErrUnsupportedFormat = errors.New("unsupported fixture format")
)
