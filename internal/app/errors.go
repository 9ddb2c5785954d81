package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted          = errors.New("service not started")
	ErrInvalidTopN         = errors.New("invalid top")
	ErrNoEligibleCandidate = errors.New("no eligible candidate")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrBackpressure        = errors.New("assignment queue full")
	ErrAssignmentNotFound  = errors.New("assignment not found")
)
