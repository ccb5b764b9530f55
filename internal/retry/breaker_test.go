package retry

import (
	"testing"
	"time"
)

func TestOpenWindowEscalation(t *testing.T) {
	tests := []struct {
		openCount int
		want      time.Duration
	}{
		{1, 30 * time.Minute},
		{2, 60 * time.Minute},
		{3, 120 * time.Minute},
		{4, 120 * time.Minute}, // caps at two hours
		{10, 120 * time.Minute},
	}

	for _, tt := range tests {
		if got := openWindow(tt.openCount); got != tt.want {
			t.Errorf("openWindow(%d) = %v, want %v", tt.openCount, got, tt.want)
		}
	}
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := &breaker{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if opened := b.recordFailure(now, 3); opened {
		t.Fatal("breaker opened after 1 failure")
	}
	if opened := b.recordFailure(now, 3); opened {
		t.Fatal("breaker opened after 2 failures")
	}
	if opened := b.recordFailure(now, 3); !opened {
		t.Fatal("breaker did not open after 3 failures")
	}

	if !b.isOpen {
		t.Error("isOpen = false after threshold reached")
	}
	if b.canAttempt(now.Add(time.Minute)) {
		t.Error("canAttempt = true immediately after opening")
	}
	if got, want := b.recoveryTime, now.Add(30*time.Minute); !got.Equal(want) {
		t.Errorf("recoveryTime = %v, want %v", got, want)
	}
}

func TestBreakerRecoversAfterWindow(t *testing.T) {
	b := &breaker{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		b.recordFailure(now, 3)
	}

	// Still inside the window.
	if b.canAttempt(now.Add(29 * time.Minute)) {
		t.Fatal("canAttempt = true before the recovery window elapsed")
	}

	// Past the window: breaker flips closed and zeroes the failure count.
	if !b.canAttempt(now.Add(31 * time.Minute)) {
		t.Fatal("canAttempt = false after the recovery window elapsed")
	}
	if b.isOpen {
		t.Error("isOpen = true after recovery")
	}
	if b.failureCount != 0 {
		t.Errorf("failureCount = %d after recovery, want 0", b.failureCount)
	}
}

func TestBreakerReopensWithLongerWindow(t *testing.T) {
	b := &breaker{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		b.recordFailure(now, 3)
	}

	// Recover, then fail straight through the threshold again.
	now = now.Add(31 * time.Minute)
	if !b.canAttempt(now) {
		t.Fatal("expected recovery")
	}
	for i := 0; i < 3; i++ {
		b.recordFailure(now, 3)
	}

	if got, want := b.recoveryTime, now.Add(60*time.Minute); !got.Equal(want) {
		t.Errorf("second opening recoveryTime = %v, want %v (60m window)", got, want)
	}
}

func TestRecordSuccessResets(t *testing.T) {
	b := &breaker{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	b.recordFailure(now, 3)
	b.recordFailure(now, 3)
	b.recordSuccess(now)

	if b.failureCount != 0 {
		t.Errorf("failureCount = %d after success, want 0", b.failureCount)
	}
	if b.isOpen {
		t.Error("isOpen = true after success")
	}
}

func TestOpenCountForgivenAfter24Hours(t *testing.T) {
	b := &breaker{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		b.recordFailure(now, 3)
	}
	if b.openCount != 1 {
		t.Fatalf("openCount = %d, want 1", b.openCount)
	}

	// Success shortly after keeps the open count (the 24h window since the
	// previous reset has not elapsed).
	b.recordSuccess(now.Add(time.Hour))
	b.recordSuccess(now.Add(2 * time.Hour))
	if b.openCount != 1 {
		t.Fatalf("openCount = %d after recent success, want 1", b.openCount)
	}

	// A success more than 24h after the last reset forgives the history.
	b.recordSuccess(now.Add(2*time.Hour + 25*time.Hour))
	if b.openCount != 0 {
		t.Errorf("openCount = %d after 24h of stability, want 0", b.openCount)
	}
}

func TestRestoreClosesExpiredBreaker(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-10 * time.Minute)

	b := &breaker{}
	b.restore(BreakerState{
		FailureCount: 3,
		IsOpen:       true,
		RecoveryTime: &past,
	}, now)

	if b.isOpen {
		t.Error("restored breaker with expired recovery time is still open")
	}
	if b.failureCount != 0 {
		t.Errorf("failureCount = %d after catch-up, want 0", b.failureCount)
	}
}

func TestRestoreKeepsFutureOpenBreaker(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(20 * time.Minute)

	b := &breaker{}
	b.restore(BreakerState{
		FailureCount: 3,
		IsOpen:       true,
		RecoveryTime: &future,
	}, now)

	if !b.isOpen {
		t.Error("restored breaker with future recovery time should stay open")
	}
	if b.canAttempt(now) {
		t.Error("canAttempt = true on a restored open breaker")
	}
}
