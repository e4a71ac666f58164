package domain

import "errors"

// Reservation engine error taxonomy. All of these are recoverable,
// caller-surfaced conditions; handlers map them to specific responses.
var (
	// ErrInvalidInterval: end not after start, or the interval is in the past.
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrPolicyViolation: quantity or duration outside the resource's bounds.
	ErrPolicyViolation = errors.New("policy violation")

	// ErrResourceUnavailable: capacity exhausted or resource inactive.
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrCancellationNotAllowed: terminal state or inside the lock-out window.
	ErrCancellationNotAllowed = errors.New("cancellation not allowed")

	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition: illegal booking/payment state machine move.
	ErrInvalidTransition = errors.New("invalid status transition")
)
