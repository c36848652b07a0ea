package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestBreaker_OpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker("test", 3, time.Minute)

	for i := 0; i < 3; i++ {
		_ = b.Do(func() error { return errBoom })
	}

	if b.CurrentState() != StateOpen {
		t.Errorf("Expected open state after 3 failures, got %v", b.CurrentState())
	}

	err := b.Do(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen while open, got %v", err)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", 3, time.Minute)

	_ = b.Do(func() error { return errBoom })
	_ = b.Do(func() error { return errBoom })
	_ = b.Do(func() error { return nil })
	_ = b.Do(func() error { return errBoom })
	_ = b.Do(func() error { return errBoom })

	if b.CurrentState() != StateClosed {
		t.Errorf("Expected closed state, got %v", b.CurrentState())
	}
}

func TestBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	b := NewBreaker("test", 1, 10*time.Millisecond)

	_ = b.Do(func() error { return errBoom })
	if b.CurrentState() != StateOpen {
		t.Fatalf("Expected open state, got %v", b.CurrentState())
	}

	time.Sleep(20 * time.Millisecond)

	// First call after the timeout is a probe
	if err := b.Do(func() error { return nil }); err != nil {
		t.Errorf("Expected probe call to pass, got %v", err)
	}
	if b.CurrentState() != StateHalfOpen {
		t.Errorf("Expected half-open state after one probe, got %v", b.CurrentState())
	}

	// Enough probe successes close the circuit
	_ = b.Do(func() error { return nil })
	_ = b.Do(func() error { return nil })
	if b.CurrentState() != StateClosed {
		t.Errorf("Expected closed state after probe quota, got %v", b.CurrentState())
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b := NewBreaker("test", 1, 10*time.Millisecond)

	_ = b.Do(func() error { return errBoom })
	time.Sleep(20 * time.Millisecond)

	_ = b.Do(func() error { return errBoom })
	if b.CurrentState() != StateOpen {
		t.Errorf("Expected reopened circuit after failed probe, got %v", b.CurrentState())
	}
}

func TestBreaker_Reset(t *testing.T) {
	b := NewBreaker("test", 1, time.Minute)

	_ = b.Do(func() error { return errBoom })
	b.Reset()

	if b.CurrentState() != StateClosed {
		t.Errorf("Expected closed state after Reset, got %v", b.CurrentState())
	}
}
