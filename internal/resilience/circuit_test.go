package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestBreaker(threshold int, coolDown time.Duration) (*CircuitBreaker, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("mx.example.com", CircuitBreakerConfig{FailureThreshold: threshold, CoolDown: coolDown})
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := cb.Allow(); err != nil {
			t.Fatalf("attempt %d rejected: %v", i, err)
		}
		cb.Record(true)
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	for _, failed := range []bool{true, true, false, true, true} {
		_ = cb.Allow()
		cb.Record(failed)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenTrial(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)

	_ = cb.Allow()
	cb.Record(true)
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	*now = now.Add(2 * time.Minute)
	if err := cb.Allow(); err != nil {
		t.Fatalf("trial should be allowed: %v", err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}
	// Only one trial at a time.
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second trial should be rejected, got %v", err)
	}

	cb.Record(false)
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed after successful trial, got %s", cb.State())
	}
}

func TestCircuitBreaker_FailedTrialReopens(t *testing.T) {
	cb, now := newTestBreaker(2, time.Minute)

	for i := 0; i < 2; i++ {
		_ = cb.Allow()
		cb.Record(true)
	}
	*now = now.Add(time.Minute)
	if err := cb.Allow(); err != nil {
		t.Fatalf("trial should be allowed: %v", err)
	}
	cb.Record(true)
	if cb.State() != CircuitOpen {
		t.Errorf("expected open after failed trial, got %s", cb.State())
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen during new cool-down, got %v", err)
	}
}

func TestCircuitState_String(t *testing.T) {
	tests := map[CircuitState]string{
		CircuitClosed:    "closed",
		CircuitOpen:      "open",
		CircuitHalfOpen:  "half-open",
		CircuitState(42): "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("%d: got %q, want %q", state, got, want)
		}
	}
}

func TestBreakers_PerHost(t *testing.T) {
	b := NewBreakers(CircuitBreakerConfig{FailureThreshold: 1, CoolDown: time.Hour})

	a := b.Get("mx1.example.com")
	if a != b.Get("mx1.example.com") {
		t.Fatal("expected the same breaker for the same host")
	}
	_ = a.Allow()
	a.Record(true)

	if err := b.Get("mx2.example.com").Allow(); err != nil {
		t.Errorf("other hosts must be unaffected: %v", err)
	}
	states := b.States()
	if states["mx1.example.com"] != CircuitOpen || states["mx2.example.com"] != CircuitClosed {
		t.Errorf("unexpected states: %v", states)
	}
}

func TestBreakers_ConcurrentGet(t *testing.T) {
	b := NewBreakers(CircuitBreakerConfig{})
	var wg sync.WaitGroup
	got := make([]*CircuitBreaker, 20)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = b.Get("mx.example.com")
		}(i)
	}
	wg.Wait()
	for _, cb := range got[1:] {
		if cb != got[0] {
			t.Fatal("concurrent Get returned different breakers")
		}
	}
}
