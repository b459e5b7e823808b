package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle_FirstRequestIsImmediate(t *testing.T) {
	clock := newFakeClock()
	th := newThrottle(time.Second, clock)

	require.NoError(t, th.Wait(context.Background()))
	assert.Empty(t, clock.Sleeps())
}

func TestThrottle_DelaysByRemainder(t *testing.T) {
	clock := newFakeClock()
	th := newThrottle(time.Second, clock)

	require.NoError(t, th.Wait(context.Background()))
	clock.Advance(300 * time.Millisecond)
	require.NoError(t, th.Wait(context.Background()))

	assert.Equal(t, []time.Duration{700 * time.Millisecond}, clock.Sleeps())
}

func TestThrottle_NoDelayOnceIntervalElapsed(t *testing.T) {
	clock := newFakeClock()
	th := newThrottle(time.Second, clock)

	require.NoError(t, th.Wait(context.Background()))
	clock.Advance(2 * time.Second)
	require.NoError(t, th.Wait(context.Background()))

	assert.Empty(t, clock.Sleeps())
}

func TestThrottle_BackToBackCallsQueue(t *testing.T) {
	clock := newFakeClock()
	th := newThrottle(time.Second, clock)

	for i := 0; i < 3; i++ {
		require.NoError(t, th.Wait(context.Background()))
	}
	// Each sleep moves the fake clock, so every later caller waits a full interval.
	assert.Equal(t, []time.Duration{time.Second, time.Second}, clock.Sleeps())
}

func TestThrottle_Disabled(t *testing.T) {
	clock := newFakeClock()
	th := newThrottle(0, clock)

	for i := 0; i < 5; i++ {
		require.NoError(t, th.Wait(context.Background()))
	}
	assert.Empty(t, clock.Sleeps())
}

func TestThrottle_CanceledWhileWaiting(t *testing.T) {
	clock := newFakeClock()
	th := newThrottle(time.Second, clock)
	require.NoError(t, th.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, th.Wait(ctx), context.Canceled)
}

func TestRealClock_SleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := realClock{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, realClock{}.Sleep(context.Background(), time.Millisecond))
}
