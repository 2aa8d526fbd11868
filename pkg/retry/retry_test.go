package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient failure")

func fastRetrier(maxAttempts int) *Retrier {
	return New(Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1.0,
	})
}

func TestRetrier_SucceedsAfterRetryableFailure(t *testing.T) {
	attempts := 0
	err := fastRetrier(3).Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errTransient)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetrier_PermanentStopsImmediately(t *testing.T) {
	sentinel := errors.New("bad input")
	attempts := 0
	err := fastRetrier(5).Do(context.Background(), func(context.Context) error {
		attempts++
		return Permanent(sentinel)
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, attempts)
}

func TestRetrier_UnclassifiedErrorIsNotRetried(t *testing.T) {
	attempts := 0
	err := fastRetrier(5).Do(context.Background(), func(context.Context) error {
		attempts++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, attempts)
}

func TestRetrier_ExhaustionReturnsUnderlyingError(t *testing.T) {
	attempts := 0
	err := fastRetrier(2).Do(context.Background(), func(context.Context) error {
		attempts++
		return Retryable(errTransient)
	})

	// The classification wrapper is stripped so callers can match the
	// sentinel directly.
	assert.Equal(t, errTransient, err)
	assert.Equal(t, 2, attempts)
}

func TestRetrier_CancelledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := fastRetrier(3).Do(ctx, func(context.Context) error {
		attempts++
		return Retryable(errTransient)
	})

	assert.Error(t, err)
	assert.Zero(t, attempts)
}

func TestConflictRetrier_AllowsOneExtraAttempt(t *testing.T) {
	attempts := 0
	err := ConflictRetrier().Do(context.Background(), func(context.Context) error {
		attempts++
		return Retryable(errTransient)
	})

	assert.Equal(t, errTransient, err)
	assert.Equal(t, 2, attempts)
}

func TestClassificationHelpers(t *testing.T) {
	assert.True(t, IsRetryable(Retryable(errTransient)))
	assert.True(t, IsPermanent(Permanent(errTransient)))
	assert.False(t, IsRetryable(errTransient))
	assert.False(t, IsPermanent(errTransient))
	assert.NoError(t, Retryable(nil))
	assert.NoError(t, Permanent(nil))
}
