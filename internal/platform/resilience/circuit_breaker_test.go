package resilience

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(threshold int, openTimeout time.Duration) (*CircuitBreaker, *time.Time) {
	b := NewCircuitBreaker("test", CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: threshold,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   1,
	})
	now := time.Date(2026, 10, 3, 18, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestCircuitBreaker_OpensAfterThresholdAndRecovers(t *testing.T) {
	t.Parallel()

	b, now := newTestBreaker(2, 30*time.Second)

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}
	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	*now = now.Add(31 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second probe to be rejected while first is in flight, got %v", err)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got %s", state)
	}
}

func TestCircuitBreaker_ExecuteClassifiesFailures(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(1, time.Minute)
	errNotFound := errors.New("not found")

	err := b.Execute(func() error { return errNotFound }, func(err error) bool { return !errors.Is(err, errNotFound) })
	if !errors.Is(err, errNotFound) {
		t.Fatalf("unexpected error: got=%v want=%v", err, errNotFound)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("non-dependency error must not trip the breaker, got %s", state)
	}

	_ = b.Execute(func() error { return errors.New("timeout") }, nil)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after counted failure, got %s", state)
	}

	called := false
	err = b.Execute(func() error { called = true; return nil }, nil)
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("expected rejected call without running fn, err=%v called=%v", err, called)
	}
}

func TestCircuitBreaker_NotifiesTransitions(t *testing.T) {
	t.Parallel()

	var transitions []string
	b := NewCircuitBreaker("footballdata", CircuitBreakerConfig{
		FailureThreshold: 1,
		OpenTimeout:      time.Second,
		OnStateChange: func(name string, from, to CircuitState) {
			transitions = append(transitions, name+":"+string(from)+"->"+string(to))
		},
	})

	b.RecordFailure()
	b.RecordFailure()

	if len(transitions) != 1 || transitions[0] != "footballdata:closed->open" {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
}
