package retry

import (
	"context"
	"time"
)

// Policy bounds the retry loop around one external call.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3
	MaxAttempts int

	// BaseDelay is the delay before the second attempt; each further
	// attempt doubles it. Default: 1s
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay. Default: 30s
	MaxDelay time.Duration
}

// DefaultPolicy is the policy used when a zero Policy is passed to Do.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
	MaxDelay:    30 * time.Second,
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultPolicy.MaxDelay
	}
	return p
}

// delay returns the backoff before the given retry attempt (1-based over
// the retries, so attempt 1 waits BaseDelay).
func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs fn under the breaker for (api, keyIndex) with bounded retries.
//
// The breaker is consulted before the first attempt; if it is open an
// *OpenCircuitError propagates immediately and fn is never called. Errors
// classified Transient are retried with exponential backoff; errors
// classified Quota stop immediately and surface as *QuotaError; anything
// else fails fast. Success records on the breaker before returning; quota,
// terminal, and exhausted outcomes each record one failure.
func Do[T any](ctx context.Context, m *Manager, api string, keyIndex int, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := m.CheckCircuit(api, keyIndex); err != nil {
		return zero, err
	}

	p = p.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, p.delay(attempt-1)); err != nil {
				return zero, err
			}
		}

		result, err := fn(ctx)
		if err == nil {
			m.RecordSuccess(api, keyIndex)
			return result, nil
		}
		lastErr = err

		switch classOf(err) {
		case classQuota:
			m.RecordFailure(api, keyIndex)
			return zero, &QuotaError{API: api, KeyIndex: keyIndex, Err: err}
		case classTransient:
			// retry
		default:
			m.RecordFailure(api, keyIndex)
			return zero, err
		}
	}

	m.RecordFailure(api, keyIndex)
	return zero, &ExhaustedError{API: api, KeyIndex: keyIndex, Attempts: p.MaxAttempts, Err: lastErr}
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
