package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(NewMemoryStateStore())
	require.NoError(t, err)
	return m
}

// fastPolicy keeps backoff negligible so tests run quickly.
var fastPolicy = Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func TestDoSuccessRecordsSuccess(t *testing.T) {
	m := testManager(t)
	m.RecordFailure("gemini", 0)
	m.RecordFailure("gemini", 0)

	calls := 0
	got, err := Do(context.Background(), m, "gemini", 0, fastPolicy, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, 1, calls)

	// Success resets the failure count accumulated before the call.
	require.Equal(t, 0, m.States()["gemini_key_0"].FailureCount)
}

func TestDoTransientRetriesThenSucceeds(t *testing.T) {
	m := testManager(t)

	calls := 0
	got, err := Do(context.Background(), m, "gemini", 0, fastPolicy, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, Transient(errors.New("connection reset"))
		}
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, got)
	require.Equal(t, 3, calls)
}

func TestDoTransientExhausts(t *testing.T) {
	m := testManager(t)

	underlying := errors.New("upstream timeout")
	calls := 0
	_, err := Do(context.Background(), m, "gemini", 0, fastPolicy, func(ctx context.Context) (string, error) {
		calls++
		return "", Transient(underlying)
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, exhausted.Attempts)
	require.ErrorIs(t, err, underlying)
	require.Equal(t, 3, calls)

	// Exhaustion records exactly one failure on the breaker.
	require.Equal(t, 1, m.States()["gemini_key_0"].FailureCount)
}

func TestDoQuotaIsTerminal(t *testing.T) {
	m := testManager(t)

	calls := 0
	_, err := Do(context.Background(), m, "gemini", 0, fastPolicy, func(ctx context.Context) (string, error) {
		calls++
		return "", Quota(errors.New("429 resource exhausted"))
	})

	var quota *QuotaError
	require.ErrorAs(t, err, &quota)
	require.Equal(t, 1, calls, "quota errors must not be retried")
	require.Equal(t, 1, m.States()["gemini_key_0"].FailureCount)
}

func TestDoUnknownErrorFailsFast(t *testing.T) {
	m := testManager(t)

	boom := errors.New("invalid request body")
	calls := 0
	_, err := Do(context.Background(), m, "gemini", 0, fastPolicy, func(ctx context.Context) (string, error) {
		calls++
		return "", boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls, "unclassified errors default to non-retryable")
}

func TestDoOpenCircuitSkipsCall(t *testing.T) {
	m := testManager(t)
	for i := 0; i < 3; i++ {
		m.RecordFailure("gemini", 0)
	}

	calls := 0
	_, err := Do(context.Background(), m, "gemini", 0, fastPolicy, func(ctx context.Context) (string, error) {
		calls++
		return "", nil
	})

	var open *OpenCircuitError
	require.ErrorAs(t, err, &open)
	require.Equal(t, 0, calls, "no attempt may be made against an open breaker")
}

func TestDoContextCancelledDuringBackoff(t *testing.T) {
	m := testManager(t)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	slow := Policy{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, m, "gemini", 0, slow, func(ctx context.Context) (string, error) {
		calls++
		return "", Transient(errors.New("flaky"))
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestPolicyDelayCaps(t *testing.T) {
	p := Policy{MaxAttempts: 6, BaseDelay: time.Second, MaxDelay: 5 * time.Second}.withDefaults()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second}, // capped
		{5, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := p.delay(tt.attempt); got != tt.want {
			t.Errorf("delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestClassification(t *testing.T) {
	base := errors.New("boom")

	require.True(t, IsTransient(Transient(base)))
	require.False(t, IsTransient(base))
	require.True(t, IsQuota(Quota(base)))
	require.False(t, IsQuota(Transient(base)))

	// Classification wrappers stay transparent to errors.Is.
	require.ErrorIs(t, Transient(base), base)
	require.ErrorIs(t, Quota(base), base)

	require.Nil(t, Transient(nil))
	require.Nil(t, Quota(nil))
}
