package domain

import "errors"

// Sentinel errors separating terminal outcomes from transient ones.
// Anything a repo or service returns that does not match one of these
// is treated as a transient infrastructure failure and surfaced as
// retryable to the caller.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflicting purchase already exists")
	ErrNotEnrolled  = errors.New("user is not enrolled in this course")
	ErrBadSignature = errors.New("webhook signature verification failed")
)
