package domain

import (
	"math"
	"time"
)

// RetryPolicy governs how the inference client retries transient failures.
// Read-only for the lifetime of a client.
type RetryPolicy struct {
	MaxRetries    int
	BaseDelay     time.Duration
	BackoffFactor float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    3,
		BaseDelay:     time.Second,
		BackoffFactor: 2,
	}
}

// Delay returns the pause before the retry that follows the given zero-based
// attempt: BaseDelay * BackoffFactor^attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(factor, float64(attempt)))
}
