package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "fleetstream/pkg/errors"
)

func testPolicy() Policy {
	return Policy{
		MaxAttempts:     4,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), testPolicy(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("store unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), testPolicy(), func() error {
		attempts++
		return errors.New("store unavailable")
	})

	require.Error(t, err)
	assert.Equal(t, 4, attempts)
}

func TestFatalErrorStopsAfterFirstAttempt(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), testPolicy(), func() error {
		attempts++
		return pkgerrors.NewFatalError(errors.New("bad user name or password"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, pkgerrors.IsFatal(err))
}

func TestRetryCallbackReportsNextDelay(t *testing.T) {
	var delays []time.Duration
	err := RetryWithCallback(context.Background(), testPolicy(), func() error {
		return errors.New("store unavailable")
	}, func(_ int, _ error, nextDelay time.Duration) {
		delays = append(delays, nextDelay)
	})

	require.Error(t, err)
	require.Len(t, delays, 3)
	assert.Equal(t, 2*time.Millisecond, delays[0])
	assert.Equal(t, 4*time.Millisecond, delays[1])
}

func TestCalculateBackoffDurationCapsAtMaxInterval(t *testing.T) {
	assert.Equal(t, time.Second,
		CalculateBackoffDuration(0, time.Second, 2.0, 30*time.Second))
	assert.Equal(t, 4*time.Second,
		CalculateBackoffDuration(2, time.Second, 2.0, 30*time.Second))
	assert.Equal(t, 30*time.Second,
		CalculateBackoffDuration(10, time.Second, 2.0, 30*time.Second))
}
