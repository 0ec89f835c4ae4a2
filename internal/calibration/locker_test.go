package calibration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("second writer times out with conflict", func(t *testing.T) {
		l := newKeyedLocker()
		unlock, err := l.Lock(ctx, 1, time.Second)
		require.NoError(t, err)
		defer unlock()

		_, err = l.Lock(ctx, 1, 10*time.Millisecond)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("keys are independent", func(t *testing.T) {
		l := newKeyedLocker()
		unlockA, err := l.Lock(ctx, 1, time.Second)
		require.NoError(t, err)
		defer unlockA()

		unlockB, err := l.Lock(ctx, 2, 10*time.Millisecond)
		require.NoError(t, err)
		unlockB()
	})

	t.Run("waiter acquires after release", func(t *testing.T) {
		l := newKeyedLocker()
		unlock, err := l.Lock(ctx, 1, time.Second)
		require.NoError(t, err)

		acquired := make(chan error, 1)
		go func() {
			u, err := l.Lock(ctx, 1, time.Second)
			if err == nil {
				u()
			}
			acquired <- err
		}()

		time.Sleep(10 * time.Millisecond)
		unlock()
		assert.NoError(t, <-acquired)
	})

	t.Run("cancelled context", func(t *testing.T) {
		l := newKeyedLocker()
		unlock, err := l.Lock(ctx, 1, time.Second)
		require.NoError(t, err)
		defer unlock()

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err = l.Lock(cctx, 1, time.Second)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("slots are released", func(t *testing.T) {
		l := newKeyedLocker()
		unlock, err := l.Lock(ctx, 7, time.Second)
		require.NoError(t, err)
		unlock()
		unlock()

		l.mu.Lock()
		defer l.mu.Unlock()
		assert.Empty(t, l.slots)
	})
}
