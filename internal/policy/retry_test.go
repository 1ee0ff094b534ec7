package policy

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyShouldRetry(t *testing.T) {
	policy := NewRetryPolicy(true, 3, BackoffExponential, 10*time.Millisecond)
	errTest := errors.New("test error")

	for attempt := 0; attempt < 3; attempt++ {
		if !policy.ShouldRetry(attempt, errTest) {
			t.Fatalf("expected retry after attempt %d", attempt)
		}
	}
	if policy.ShouldRetry(3, errTest) {
		t.Fatalf("expected no retry when at max retries")
	}
	if policy.ShouldRetry(0, nil) {
		t.Fatalf("expected no retry without an error")
	}

	disabled := NewRetryPolicy(false, 3, BackoffExponential, 10*time.Millisecond)
	if disabled.ShouldRetry(0, errTest) {
		t.Fatalf("expected no retry when disabled")
	}
	if NoRetry().ShouldRetry(0, errTest) {
		t.Fatalf("expected NoRetry to never retry")
	}
}

func TestRetryPolicyBackoff(t *testing.T) {
	tests := []struct {
		backoff string
		want    []time.Duration
	}{
		{BackoffExponential, []time.Duration{0, 10, 20, 40}},
		{BackoffLinear, []time.Duration{0, 10, 20, 30}},
		{BackoffConstant, []time.Duration{0, 10, 10, 10}},
		{"unknown", []time.Duration{0, 10, 20, 40}},
	}

	for _, tt := range tests {
		t.Run(tt.backoff, func(t *testing.T) {
			policy := NewRetryPolicy(true, 3, tt.backoff, 10*time.Millisecond)
			for attempt, want := range tt.want {
				got := policy.GetBackoffDuration(attempt)
				if got != want*time.Millisecond {
					t.Fatalf("attempt %d: expected %v, got %v", attempt, want*time.Millisecond, got)
				}
			}
		})
	}
}

func TestRetryPolicyDisabledHasNoBackoff(t *testing.T) {
	policy := NewRetryPolicy(false, 3, BackoffConstant, time.Second)
	if d := policy.GetBackoffDuration(2); d != 0 {
		t.Fatalf("expected no backoff when disabled, got %v", d)
	}
}

func TestRetryPolicyNegativeMaxRetries(t *testing.T) {
	policy := NewRetryPolicy(true, -1, BackoffConstant, time.Millisecond)
	if policy.GetMaxRetries() != 0 {
		t.Fatalf("expected max retries 0, got %d", policy.GetMaxRetries())
	}
}

func TestWait(t *testing.T) {
	policy := NewRetryPolicy(true, 3, BackoffConstant, time.Millisecond)
	if err := Wait(context.Background(), policy, 1); err != nil {
		t.Fatalf("expected wait to finish, got %v", err)
	}

	slow := NewRetryPolicy(true, 3, BackoffConstant, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Wait(ctx, slow, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
