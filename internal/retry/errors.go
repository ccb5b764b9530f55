package retry

import (
	"errors"
	"fmt"
	"time"
)

// OpenCircuitError is returned when an operation is attempted against a
// breaker currently in the open state. It is never retried internally and
// must be surfaced to the caller, who may skip the unit of work or try an
// alternate key/provider.
type OpenCircuitError struct {
	API          string
	KeyIndex     int
	RecoveryTime time.Time
}

func (e *OpenCircuitError) Error() string {
	return fmt.Sprintf("circuit breaker open for %s (recovers at %s)",
		BreakerKey(e.API, e.KeyIndex), e.RecoveryTime.Format(time.RFC3339))
}

// QuotaError is the terminal classification of an upstream quota/rate-limit
// failure. It is never retried; the breaker has already recorded the failure
// by the time the caller sees it.
type QuotaError struct {
	API      string
	KeyIndex int
	Err      error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: %v", BreakerKey(e.API, e.KeyIndex), e.Err)
}

func (e *QuotaError) Unwrap() error { return e.Err }

// ExhaustedError is returned after every allowed attempt of a retryable
// operation failed. It wraps the last underlying error for diagnostics.
type ExhaustedError struct {
	API      string
	KeyIndex int
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted for %s after %d attempts: %v",
		BreakerKey(e.API, e.KeyIndex), e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// errorClass is the closed set of failure classes the retry policy
// dispatches on. Unknown errors default to terminal so that unclassified
// failure modes never produce retry storms.
type errorClass int

const (
	classTerminal errorClass = iota
	classTransient
	classQuota
)

// classifiedError tags an underlying error with its failure class. API
// clients wrap raw provider errors with Transient or Quota at the call
// boundary; the policy reads the tag back with errors.As, never by
// substring-matching error messages.
type classifiedError struct {
	class errorClass
	err   error
}

func (e *classifiedError) Error() string { return e.err.Error() }

func (e *classifiedError) Unwrap() error { return e.err }

// Transient marks err as retryable (timeouts, connection failures,
// temporary upstream unavailability). Returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{class: classTransient, err: err}
}

// Quota marks err as a terminal quota/rate-limit failure. Returns nil for
// a nil err.
func Quota(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{class: classQuota, err: err}
}

// IsTransient reports whether err was classified as retryable.
func IsTransient(err error) bool { return classOf(err) == classTransient }

// IsQuota reports whether err was classified as a quota failure.
func IsQuota(err error) bool { return classOf(err) == classQuota }

func classOf(err error) errorClass {
	var ce *classifiedError
	if errors.As(err, &ce) {
		return ce.class
	}
	return classTerminal
}
