package retry

import (
	"testing"
	"time"
)

func TestDefaultPolicyIsSingleAttempt(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()
	if p.MaxRetries != 0 {
		t.Fatalf("expected no retries by default, got %d", p.MaxRetries)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
}

func TestNewPolicyClampsInitialToMax(t *testing.T) {
	t.Parallel()
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second, 3)
	if p.Initial != 2*time.Second || p.Max != 2*time.Second {
		t.Fatalf("expected clamped 2s/2s, got %v/%v", p.Initial, p.Max)
	}
	if p.Mode != BackoffFixed || p.MaxRetries != 3 {
		t.Fatalf("unexpected policy %+v", p)
	}
}

func TestNewPolicyUnknownModeKeepsDefault(t *testing.T) {
	t.Parallel()
	if p := NewPolicy("bogus", 0, 0, 0); p.Mode != BackoffLinear {
		t.Fatalf("expected linear fallback, got %s", p.Mode)
	}
}

func TestDelayModes(t *testing.T) {
	t.Parallel()
	fixed := NewPolicy(BackoffFixed, 100*time.Millisecond, time.Second, 3)
	linear := NewPolicy(BackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 3)
	exp := NewPolicy(BackoffExponential, 100*time.Millisecond, 300*time.Millisecond, 3)

	if d := fixed.Delay(3); d != 100*time.Millisecond {
		t.Fatalf("fixed: got %v", d)
	}
	if d := linear.Delay(2); d != 200*time.Millisecond {
		t.Fatalf("linear: got %v", d)
	}
	if d := linear.Delay(3); d != 250*time.Millisecond {
		t.Fatalf("linear cap: got %v", d)
	}
	if d := exp.Delay(2); d != 200*time.Millisecond {
		t.Fatalf("exponential: got %v", d)
	}
	if d := exp.Delay(3); d != 300*time.Millisecond {
		t.Fatalf("exponential cap: got %v", d)
	}
	if d := exp.Delay(0); d != 0 {
		t.Fatalf("zero retry: got %v", d)
	}
}

func TestDelayCapsLargeInitialWithoutOverflow(t *testing.T) {
	t.Parallel()
	exp := NewPolicy(BackoffExponential, time.Hour, 2*time.Hour, 40)
	linear := NewPolicy(BackoffLinear, time.Hour, 2*time.Hour, 40)
	for _, n := range []int{2, 30, 31, 40, 64, 200} {
		if d := exp.Delay(n); d != 2*time.Hour {
			t.Fatalf("exponential retry %d: got %v", n, d)
		}
	}
	for _, n := range []int{3, 1 << 20, 1 << 30} {
		if d := linear.Delay(n); d != 2*time.Hour {
			t.Fatalf("linear retry %d: got %v", n, d)
		}
	}
	huge := Policy{Mode: BackoffExponential, Initial: time.Duration(1) << 60, Max: time.Duration(1<<63 - 1)}
	if d := huge.Delay(10); d != huge.Max {
		t.Fatalf("overflowing shift: got %v", d)
	}
}
