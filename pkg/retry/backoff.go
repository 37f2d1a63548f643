package retry

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	errs "webscraper/pkg/errors"
)

// BackoffStrategy decides how long to wait before the next attempt
type BackoffStrategy interface {
	// NextDelay returns the delay after the given failed attempt (1-based)
	NextDelay(attempt int, err error) time.Duration
}

// RetryAfterBackoff waits Retry-After + Padding seconds, as announced by the
// server on a 429. When the header is absent or unparsable the next attempt
// is immediate. It has no jitter, so delays are deterministic.
type RetryAfterBackoff struct {
	Padding time.Duration
}

// DefaultRetryAfterBackoff pads the announced delay by one second
func DefaultRetryAfterBackoff() *RetryAfterBackoff {
	return &RetryAfterBackoff{Padding: time.Second}
}

// NextDelay implements BackoffStrategy
func (rb *RetryAfterBackoff) NextDelay(attempt int, err error) time.Duration {
	apiErr, ok := errs.As(err)
	if !ok {
		return 0
	}
	seconds, ok := ParseRetryAfter(apiErr.RetryAfter)
	if !ok {
		return 0
	}
	return time.Duration(seconds)*time.Second + rb.Padding
}

// ParseRetryAfter parses a Retry-After header given in whole seconds
func ParseRetryAfter(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return seconds, true
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	// BaseDelay is the initial delay duration
	BaseDelay time.Duration
	// MaxDelay is the maximum delay duration
	MaxDelay time.Duration
	// Multiplier is the factor by which delay increases
	Multiplier float64
	// JitterFactor adds randomness (0.0 to 1.0)
	JitterFactor float64
}

// DefaultExponentialBackoff returns a backoff with sensible defaults
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int, _ error) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int, _ error) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
