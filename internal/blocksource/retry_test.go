package blocksource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPermanent = errors.New("permanent")

func TestRetryWithConfig_StopsOnPermanentError(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := RetryWithConfig(context.Background(), RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		func() (int, error) {
			calls++
			return 0, errPermanent
		})
	require.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, calls)
}

func TestRetryWithConfig_RecoversAfterRetryable(t *testing.T) {
	t.Parallel()
	calls := 0
	v, err := RetryWithConfig(context.Background(), RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		func() (int, error) {
			calls++
			if calls < 3 {
				return 0, WrapRetryable(errPermanent)
			}
			return 7, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 3, calls)
}

func TestRetryWithConfig_ContextCanceledDuringBackoff(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := RetryWithConfig(ctx, RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour},
		func() (int, error) {
			calls++
			cancel()
			return 0, WrapRetryable(errPermanent)
		})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestCalculateDelay_Capped(t *testing.T) {
	t.Parallel()
	for attempt := range 6 {
		d := calculateDelay(attempt, time.Second, 4*time.Second)
		assert.LessOrEqual(t, d, 4*time.Second)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errPermanent))
	assert.True(t, IsRetryable(WrapRetryable(errPermanent)))
	assert.True(t, IsRetryable(ErrRateLimited))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.Nil(t, WrapRetryable(nil))
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()
	limiter := NewRateLimiter(1, 2)
	assert.True(t, limiter.Allow("/v1/latest"))
	assert.True(t, limiter.Allow("/v1/latest"))
	assert.False(t, limiter.Allow("/v1/latest"))
	assert.True(t, limiter.Allow("/v1/blocks"), "endpoints are limited independently")

	unlimited := NewRateLimiter(0, 0)
	for range 100 {
		assert.True(t, unlimited.Allow("x"))
	}
}
