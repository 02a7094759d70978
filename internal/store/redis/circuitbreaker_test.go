package redis

import (
	"errors"
	"testing"
	"time"
)

var errProbe = errors.New("redis unavailable")

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return errProbe }); !errors.Is(err, errProbe) {
			t.Fatalf("call %d: expected probe error, got %v", i, err)
		}
	}
	if cb.CurrentState() != StateOpen {
		t.Fatalf("expected open after 3 failures, got %s", cb.CurrentState())
	}

	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen while open, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	cb.Execute(func() error { return errProbe })
	cb.Execute(func() error { return errProbe })
	cb.Execute(func() error { return nil })
	cb.Execute(func() error { return errProbe })
	cb.Execute(func() error { return errProbe })

	if cb.CurrentState() != StateClosed {
		t.Fatalf("expected closed (streak broken), got %s", cb.CurrentState())
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)

	cb.Execute(func() error { return errProbe })
	if cb.CurrentState() != StateOpen {
		t.Fatalf("expected open, got %s", cb.CurrentState())
	}

	time.Sleep(20 * time.Millisecond)

	// Failed probe re-opens immediately.
	if err := cb.Execute(func() error { return errProbe }); !errors.Is(err, errProbe) {
		t.Fatalf("expected probe to run, got %v", err)
	}
	if cb.CurrentState() != StateOpen {
		t.Fatalf("expected re-open after failed probe, got %s", cb.CurrentState())
	}

	time.Sleep(20 * time.Millisecond)

	// Successful probe closes the breaker.
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected probe success, got %v", err)
	}
	if cb.CurrentState() != StateClosed {
		t.Fatalf("expected closed after successful probe, got %s", cb.CurrentState())
	}
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)

	var transitions []State
	cb.OnStateChange = func(from, to State) {
		transitions = append(transitions, to)
	}

	cb.Execute(func() error { return errProbe })
	time.Sleep(20 * time.Millisecond)
	cb.Execute(func() error { return nil })

	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("expected %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transition %d: expected %s, got %s", i, want[i], transitions[i])
		}
	}
}
