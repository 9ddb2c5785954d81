package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrNoPicker = errors.New("automatic assignment not configured")
)
