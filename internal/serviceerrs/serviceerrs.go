package serviceerrs

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound covers a missing catalog item and an unavailable one:
	// both reject a redemption before anything is written.
	ErrNotFound = errors.New("item not found")

	// ErrConflict is a uniqueness violation on (userID, sourceRef):
	// a duplicate earn event or a replayed redemption idempotency key.
	ErrConflict = errors.New("duplicate source reference")

	// ErrInsufficientFunds is raised at the atomic balance check inside
	// the redemption transaction.
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrNoContent = errors.New("no content")
)

// ValidationError rejects malformed input before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TooManyRequestsError carries rate-limit data from a polite external
// service: how long to back off and the allowed requests per minute.
type TooManyRequestsError struct {
	RetryAfter time.Duration
	RPM        uint64
}

func (e *TooManyRequestsError) Error() string {
	return "too many requests"
}

func (e *TooManyRequestsError) Is(target error) bool {
	_, ok := target.(*TooManyRequestsError)
	return ok
}
