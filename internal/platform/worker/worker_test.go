package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsOncePerInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())

	defer cancel()

	var calls atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- Loop(ctx, Config{
			Name:     "test",
			Interval: time.Hour,
			Clock:    clock,
			Process: func(context.Context) error {
				calls.Add(1)
				return nil
			},
		})
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, int32(1), calls.Load())

	clock.Advance(time.Hour)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, int32(2), calls.Load())

	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoop_MaxIterations(t *testing.T) {
	var calls int

	err := Loop(context.Background(), Config{
		Name:          "bounded",
		MaxIterations: 3,
		Process: func(context.Context) error {
			calls++
			return nil
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestLoop_ErrorPolicy(t *testing.T) {
	errBoom := errors.New("boom")

	t.Run("logged and continued by default", func(t *testing.T) {
		var calls int

		err := Loop(context.Background(), Config{
			MaxIterations: 2,
			Process: func(context.Context) error {
				calls++
				return errBoom
			},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("OnError stops the loop", func(t *testing.T) {
		err := Loop(context.Background(), Config{
			MaxIterations: 5,
			Process:       func(context.Context) error { return errBoom },
			OnError:       func(error) bool { return false },
		})

		require.ErrorIs(t, err, errBoom)
	})

	t.Run("panic becomes an error", func(t *testing.T) {
		var got error

		err := Loop(context.Background(), Config{
			MaxIterations: 1,
			Process:       func(context.Context) error { panic("bad") },
			OnError: func(err error) bool {
				got = err
				return true
			},
		})

		require.NoError(t, err)
		require.Error(t, got)
		assert.Contains(t, got.Error(), "panicked")
	})
}

func TestLoop_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Loop(ctx, Config{Process: func(context.Context) error {
		called = true
		return nil
	}})

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestWait(t *testing.T) {
	clock := clockwork.NewFakeClock()

	require.NoError(t, Wait(context.Background(), clock, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Wait(ctx, clock, time.Minute), context.Canceled)
}
