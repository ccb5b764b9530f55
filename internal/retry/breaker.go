// Package retry provides the circuit-breaker registry and bounded-retry
// policy that guard Castgraph's calls to flaky external APIs (LLM
// providers, the speech API). Breaker state is persisted through a
// StateStore so open circuits survive process restarts.
package retry

import (
	"sync"
	"time"
)

// Backoff windows applied when a breaker opens. The window grows with each
// consecutive opening and caps at two hours.
const (
	firstOpenWindow  = 30 * time.Minute
	secondOpenWindow = 60 * time.Minute
	maxOpenWindow    = 120 * time.Minute

	// openCountForgiveness is how long a breaker must stay reset before
	// its open count is forgiven back to zero.
	openCountForgiveness = 24 * time.Hour
)

// breaker holds the live state of one circuit breaker. Each breaker has its
// own mutex so concurrent callers mutating different keys never contend,
// and concurrent callers on the same key cannot race the
// failure-count check-then-act sequence.
type breaker struct {
	mu sync.Mutex

	failureCount int
	isOpen       bool
	lastFailure  time.Time // zero means no failure recorded
	recoveryTime time.Time // zero unless open
	openCount    int       // consecutive openings, drives the backoff window
	lastReset    time.Time // zero means never reset
}

// openWindow returns the recovery window for the n-th consecutive opening.
func openWindow(openCount int) time.Duration {
	switch {
	case openCount <= 1:
		return firstOpenWindow
	case openCount == 2:
		return secondOpenWindow
	default:
		return maxOpenWindow
	}
}

// canAttempt reports whether a call may proceed. An open breaker whose
// recovery time has passed flips closed and resets its failure count:
// optimistic half-open, the next call is simply allowed and a failure
// reopens the breaker through the normal threshold rule.
func (b *breaker) canAttempt(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.isOpen {
		return true
	}
	if !now.Before(b.recoveryTime) {
		b.isOpen = false
		b.failureCount = 0
		b.recoveryTime = time.Time{}
		return true
	}
	return false
}

// recordFailure increments the failure count and opens the breaker once the
// threshold is reached. Returns true if this call opened the breaker.
func (b *breaker) recordFailure(now time.Time, threshold int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailure = now

	if b.failureCount >= threshold && !b.isOpen {
		b.isOpen = true
		b.openCount++
		b.recoveryTime = now.Add(openWindow(b.openCount))
		return true
	}
	return false
}

// recordSuccess resets the failure count and closes the breaker. A success
// after more than 24 hours of stability also forgives the open count, so
// long-recovered APIs return to the shortest backoff window.
func (b *breaker) recordSuccess(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	b.isOpen = false
	b.recoveryTime = time.Time{}

	if b.lastReset.IsZero() || now.Sub(b.lastReset) > openCountForgiveness {
		b.openCount = 0
	}
	b.lastReset = now
}

// reset clears the breaker entirely. Used for operator intervention.
func (b *breaker) reset(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	b.isOpen = false
	b.recoveryTime = time.Time{}
	b.openCount = 0
	b.lastReset = now
}

// snapshot returns the persistable view of the breaker. Only the fields in
// the on-disk schema are included; openCount and lastReset are in-memory
// only and reset on process restart.
func (b *breaker) snapshot() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := BreakerState{
		FailureCount: b.failureCount,
		IsOpen:       b.isOpen,
	}
	if !b.lastFailure.IsZero() {
		t := b.lastFailure
		state.LastFailure = &t
	}
	if !b.recoveryTime.IsZero() {
		t := b.recoveryTime
		state.RecoveryTime = &t
	}
	return state
}

// restore loads persisted state into the breaker. If the persisted recovery
// time has already passed the breaker is restored closed with a zeroed
// failure count, so stale open state never survives a long restart.
func (b *breaker) restore(state BreakerState, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = state.FailureCount
	b.isOpen = state.IsOpen
	if state.LastFailure != nil {
		b.lastFailure = *state.LastFailure
	}
	if state.RecoveryTime != nil {
		b.recoveryTime = *state.RecoveryTime
	}

	if b.isOpen && (b.recoveryTime.IsZero() || !now.Before(b.recoveryTime)) {
		b.isOpen = false
		b.failureCount = 0
		b.recoveryTime = time.Time{}
	}
}
