// Package policy holds delivery policies shared by the evolution service.
package policy

import (
	"context"
	"time"
)

// Backoff strategies.
const (
	BackoffExponential = "exponential"
	BackoffLinear      = "linear"
	BackoffConstant    = "constant"
)

// RetryPolicy decides whether and when a failed attempt is retried.
type RetryPolicy interface {
	Enabled() bool
	ShouldRetry(attempt int, err error) bool
	GetBackoffDuration(attempt int) time.Duration
	GetMaxRetries() int
}

type retryPolicy struct {
	enabled    bool
	maxRetries int
	backoff    string
	base       time.Duration
}

// NewRetryPolicy creates a retry policy. An unknown backoff is treated as
// exponential.
func NewRetryPolicy(enabled bool, maxRetries int, backoff string, base time.Duration) RetryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &retryPolicy{
		enabled:    enabled,
		maxRetries: maxRetries,
		backoff:    backoff,
		base:       base,
	}
}

// NoRetry never retries.
func NoRetry() RetryPolicy {
	return &retryPolicy{}
}

func (p *retryPolicy) Enabled() bool {
	return p.enabled
}

// ShouldRetry reports whether attempt (0 for the first try) may be followed
// by another one after failing with err.
func (p *retryPolicy) ShouldRetry(attempt int, err error) bool {
	if !p.enabled || err == nil {
		return false
	}
	return attempt < p.maxRetries
}

// GetBackoffDuration returns how long to wait before retry number attempt
// (1 for the first retry).
func (p *retryPolicy) GetBackoffDuration(attempt int) time.Duration {
	if !p.enabled || attempt <= 0 {
		return 0
	}

	switch p.backoff {
	case BackoffLinear:
		return p.base * time.Duration(attempt)
	case BackoffConstant:
		return p.base
	default:
		return p.base * time.Duration(1<<uint(attempt-1))
	}
}

func (p *retryPolicy) GetMaxRetries() int {
	return p.maxRetries
}

// Wait sleeps for the backoff of attempt or until ctx is done.
func Wait(ctx context.Context, p RetryPolicy, attempt int) error {
	d := p.GetBackoffDuration(attempt)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
