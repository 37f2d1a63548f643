package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "webscraper/pkg/errors"
	"webscraper/pkg/logger"
)

// recordingSleep records requested delays without waiting
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func rateLimited(retryAfter string) error {
	err := errs.NewStatusError(429)
	err.RetryAfter = retryAfter
	return err
}

func TestRetryAfterBackoff(t *testing.T) {
	backoff := DefaultRetryAfterBackoff()

	tests := []struct {
		name     string
		err      error
		expected time.Duration
	}{
		{"header of one second", rateLimited("1"), 2 * time.Second},
		{"header of zero", rateLimited("0"), 1 * time.Second},
		{"header with spaces", rateLimited(" 5 "), 6 * time.Second},
		{"absent header", rateLimited(""), 0},
		{"http date is not supported", rateLimited("Wed, 21 Oct 2015 07:28:00 GMT"), 0},
		{"negative header", rateLimited("-3"), 0},
		{"non api error", errors.New("plain"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, backoff.NextDelay(1, tt.err))
		})
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0,
	}

	expected := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1 * time.Second,
		1 * time.Second,
	}

	assert.Equal(t, time.Duration(0), backoff.NextDelay(0, nil))
	for i, want := range expected {
		assert.Equal(t, want, backoff.NextDelay(i+1, nil), "attempt %d", i+1)
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 50; i++ {
		delay := backoff.NextDelay(2, nil)
		assert.GreaterOrEqual(t, delay, 140*time.Millisecond)
		assert.LessOrEqual(t, delay, 260*time.Millisecond)
	}
}

func TestConstantBackoff(t *testing.T) {
	backoff := &ConstantBackoff{Delay: 50 * time.Millisecond}
	assert.Equal(t, time.Duration(0), backoff.NextDelay(0, nil))
	assert.Equal(t, 50*time.Millisecond, backoff.NextDelay(1, nil))
	assert.Equal(t, 50*time.Millisecond, backoff.NextDelay(7, nil))
}

func TestDoSucceedsAfterRateLimit(t *testing.T) {
	sleeper := &recordingSleep{}
	testLogger := logger.NewTestLogger()

	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts == 1 {
			return rateLimited("1")
		}
		return nil
	}, &Config{
		MaxAttempts: 3,
		Backoff:     DefaultRetryAfterBackoff(),
		Sleep:       sleeper.Sleep,
		Context:     context.Background(),
		Logger:      testLogger,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeper.delays)
	assert.True(t, testLogger.HasMessage("retrying operation"))
	assert.True(t, testLogger.HasMessage("operation succeeded after retry"))
}

func TestDoExhaustsAttempts(t *testing.T) {
	sleeper := &recordingSleep{}
	testLogger := logger.NewTestLogger()

	attempts := 0
	err := Do(func() error {
		attempts++
		return rateLimited("")
	}, &Config{
		MaxAttempts: 3,
		Backoff:     DefaultRetryAfterBackoff(),
		Sleep:       sleeper.Sleep,
		Logger:      testLogger,
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, sleeper.delays, 2)
	assert.True(t, errs.IsRateLimited(err))
	assert.True(t, testLogger.HasMessage("max retry attempts exceeded"))
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	sleeper := &recordingSleep{}

	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts == 1 {
			return rateLimited("")
		}
		return errs.NewStatusError(500)
	}, &Config{
		MaxAttempts: 3,
		Backoff:     DefaultRetryAfterBackoff(),
		Sleep:       sleeper.Sleep,
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 500, errs.StatusCode(err))
	assert.Len(t, sleeper.delays, 1)
}

func TestDoSingleAttempt(t *testing.T) {
	sleeper := &recordingSleep{}

	attempts := 0
	err := Do(func() error {
		attempts++
		return rateLimited("30")
	}, &Config{
		MaxAttempts: 1,
		Backoff:     DefaultRetryAfterBackoff(),
		Sleep:       sleeper.Sleep,
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, sleeper.delays)
	assert.True(t, errs.IsRateLimited(err))
}

func TestDoContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(func() error {
		attempts++
		return rateLimited("1")
	}, &Config{
		MaxAttempts: 3,
		Backoff:     DefaultRetryAfterBackoff(),
		Context:     ctx,
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoOnRetryCallback(t *testing.T) {
	var calls []int
	attempts := 0

	err := Do(func() error {
		attempts++
		if attempts < 3 {
			return errors.New("flaky")
		}
		return nil
	}, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(error) bool { return true },
		OnRetry: func(attempt int, err error, delay time.Duration) {
			calls = append(calls, attempt)
			assert.Equal(t, time.Millisecond, delay)
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, calls)
}

func TestDoWithResult(t *testing.T) {
	sleeper := &recordingSleep{}
	attempts := 0

	result, err := DoWithResult(func() (string, error) {
		attempts++
		if attempts == 1 {
			return "", rateLimited("0")
		}
		return "payload", nil
	}, &Config{
		MaxAttempts: 3,
		Backoff:     DefaultRetryAfterBackoff(),
		Sleep:       sleeper.Sleep,
	})

	require.NoError(t, err)
	assert.Equal(t, "payload", result)
	assert.Equal(t, []time.Duration{time.Second}, sleeper.delays)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.True(t, DefaultRetryIf(rateLimited("")))
	assert.False(t, DefaultRetryIf(errs.NewStatusError(503)))
	assert.False(t, DefaultRetryIf(errs.New(errs.ErrorTypeNetwork, 0, "refused")))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(errors.New("unknown")))
}

func TestIsNetworkError(t *testing.T) {
	assert.True(t, IsNetworkError(errs.New(errs.ErrorTypeNetwork, 0, "refused")))
	assert.False(t, IsNetworkError(errs.NewStatusError(500)))
	assert.False(t, IsNetworkError(context.Canceled))
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
