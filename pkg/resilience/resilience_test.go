package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("connection refused")

func TestRetry(t *testing.T) {
	fast := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), "ping", fast, func() error {
			calls++
			if calls < 3 {
				return errDown
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), "ping", fast, func() error {
			calls++
			return errDown
		})
		require.ErrorIs(t, err, errDown)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), "ping", fast, func() error {
			calls++
			return Permanent(errDown)
		})
		require.ErrorIs(t, err, errDown)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := Retry(ctx, "ping", fast, func() error { return errDown })
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestCircuitBreaker(t *testing.T) {
	now := time.Unix(0, 0)
	var transitions []State
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		OnStateChange: func(_ string, _, to State) {
			transitions = append(transitions, to)
		},
		now: func() time.Time { return now },
	})

	fail := func() error { return errDown }
	ok := func() error { return nil }

	assert.ErrorIs(t, cb.Execute(fail), errDown)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.ErrorIs(t, cb.Execute(fail), errDown)
	assert.Equal(t, StateOpen, cb.GetState())

	assert.ErrorIs(t, cb.Execute(ok), ErrCircuitOpen)

	now = now.Add(time.Minute)
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestCircuitBreaker_IgnoredErrors(t *testing.T) {
	errMiss := errors.New("miss")
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{FailureThreshold: 1})
	isMiss := func(err error) bool { return errors.Is(err, errMiss) }

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errMiss }, isMiss), errMiss)
	}
	assert.Equal(t, StateClosed, cb.GetState())
}
