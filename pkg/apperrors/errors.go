package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks request validation failures that are reported to
	// the caller as-is (4xx).
	ErrInvalidInput = errors.New("invalid input")

	// ErrSecurityViolation marks SQL that must not be executed.
	ErrSecurityViolation = errors.New("security violation")

	// ErrUnavailable is returned by an answer strategy that cannot serve the
	// request right now; the orchestrator moves on to the next strategy.
	ErrUnavailable = errors.New("capability unavailable")

	ErrUnclassifiedIntent = errors.New("unclassified intent")
)
