package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAndIncrementCountsDown(t *testing.T) {
	l := NewMemoryLedger(3, clockwork.NewFakeClock())
	ctx := context.Background()

	for want := 2; want >= 0; want-- {
		remaining, err := l.CheckAndIncrement(ctx, "u", "a")
		require.NoError(t, err)
		assert.Equal(t, want, remaining)
	}

	_, err := l.CheckAndIncrement(ctx, "u", "a")
	assert.ErrorIs(t, err, ErrLimitExhausted)
}

func TestRejectionDoesNotConsume(t *testing.T) {
	l := NewMemoryLedger(1, clockwork.NewFakeClock())
	ctx := context.Background()

	_, err := l.CheckAndIncrement(ctx, "u", "a")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = l.CheckAndIncrement(ctx, "u", "a")
		assert.ErrorIs(t, err, ErrLimitExhausted)
	}

	remaining, err := l.Remaining(ctx, "u", "a")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestKeysAreIndependent(t *testing.T) {
	l := NewMemoryLedger(1, clockwork.NewFakeClock())
	ctx := context.Background()

	_, err := l.CheckAndIncrement(ctx, "u1", "a1")
	require.NoError(t, err)

	_, err = l.CheckAndIncrement(ctx, "u2", "a1")
	assert.NoError(t, err, "another user has their own window")

	_, err = l.CheckAndIncrement(ctx, "u1", "a2")
	assert.NoError(t, err, "another article has its own window")

	_, err = l.CheckAndIncrement(ctx, "u1", "a1")
	assert.ErrorIs(t, err, ErrLimitExhausted)
}

func TestWindowResetsAfter24Hours(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewMemoryLedger(3, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := l.CheckAndIncrement(ctx, "u", "a")
		require.NoError(t, err)
	}
	_, err := l.CheckAndIncrement(ctx, "u", "a")
	require.ErrorIs(t, err, ErrLimitExhausted)

	clock.Advance(Window - time.Minute)
	_, err = l.CheckAndIncrement(ctx, "u", "a")
	assert.ErrorIs(t, err, ErrLimitExhausted, "window has not elapsed yet")

	clock.Advance(time.Minute)
	remaining, err := l.CheckAndIncrement(ctx, "u", "a")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining, "window measured from the first accepted question")
}

func TestRemainingDoesNotConsume(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewMemoryLedger(3, clock)
	ctx := context.Background()

	remaining, err := l.Remaining(ctx, "u", "a")
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	_, err = l.CheckAndIncrement(ctx, "u", "a")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		remaining, err = l.Remaining(ctx, "u", "a")
		require.NoError(t, err)
		assert.Equal(t, 2, remaining)
	}

	clock.Advance(Window)
	remaining, err = l.Remaining(ctx, "u", "a")
	require.NoError(t, err)
	assert.Equal(t, 3, remaining, "expired window reads as a fresh one")
}

func TestConcurrentRequestsNeverOversell(t *testing.T) {
	l := NewMemoryLedger(3, clockwork.NewFakeClock())
	ctx := context.Background()

	const workers = 20
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.CheckAndIncrement(ctx, "u", "a")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	granted, rejected := 0, 0
	for err := range results {
		if err == nil {
			granted++
		} else {
			require.ErrorIs(t, err, ErrLimitExhausted)
			rejected++
		}
	}
	assert.Equal(t, 3, granted, "exactly the limit is granted under contention")
	assert.Equal(t, workers-3, rejected)
}
