package services

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared by the service layer. Controllers map these to HTTP
// statuses; anything unrecognized is treated as an unexpected fault.
var (
	// ErrNotFound covers both "does not exist" and "not owned by the
	// caller" so that ownership never leaks through error responses.
	ErrNotFound = errors.New("not found")

	// ErrGoalConflict means a goal already exists for the target date; the
	// caller must update the existing one instead.
	ErrGoalConflict = errors.New("a goal for that date already exists")

	// ErrGoalImmutable means the goal's effective date is today or earlier
	// and it may already back a computed progress summary.
	ErrGoalImmutable = errors.New("goal is already in effect and can no longer be edited")

	// ErrEstimationNotReady means a meal referenced an estimation that is
	// not in completed status.
	ErrEstimationNotReady = errors.New("estimation is not completed")

	// ErrEstimationInUse means the estimation is already linked to a meal.
	ErrEstimationInUse = errors.New("estimation is already linked to a meal")
)

// ValidationError reports a single malformed or out-of-range input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RateLimitedError carries how long the caller should wait before retrying.
type RateLimitedError struct {
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit of %d requests exceeded, retry in %s", e.Limit, e.RetryAfter)
}
