package elexon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the limiter without real sleeping: sleep advances the
// clock by the requested duration.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) install(r *RateLimiter) {
	r.now = func() time.Time { return c.now }
	r.sleep = func(_ context.Context, d time.Duration) error {
		c.now = c.now.Add(d)
		return nil
	}
}

func TestRateLimiter_UnderBudget(t *testing.T) {
	r := NewRateLimiter(3, time.Second)
	clock := newFakeClock()
	clock.install(r)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, r.Wait(ctx))
	}
	assert.Zero(t, r.Waited())
}

func TestRateLimiter_SuspendsAtBudget(t *testing.T) {
	r := NewRateLimiter(2, time.Second)
	clock := newFakeClock()
	clock.install(r)

	ctx := context.Background()
	require.NoError(t, r.Wait(ctx))
	require.NoError(t, r.Wait(ctx))

	before := clock.now
	require.NoError(t, r.Wait(ctx))
	assert.Equal(t, int64(1), r.Waited())
	// the third call must wait until the first request ages out of the window
	assert.Equal(t, time.Second, clock.now.Sub(before))
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	r := NewRateLimiter(2, time.Second)
	clock := newFakeClock()
	clock.install(r)

	ctx := context.Background()
	require.NoError(t, r.Wait(ctx))
	require.NoError(t, r.Wait(ctx))

	// once the window has passed, the budget is fresh again
	clock.now = clock.now.Add(2 * time.Second)
	require.NoError(t, r.Wait(ctx))
	require.NoError(t, r.Wait(ctx))
	assert.Zero(t, r.Waited())
}

func TestRateLimiter_ContextCancelled(t *testing.T) {
	r := NewRateLimiter(1, time.Minute)
	clock := newFakeClock()
	r.now = func() time.Time { return clock.now }
	r.sleep = func(ctx context.Context, _ time.Duration) error {
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Wait(ctx))
	cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.Canceled)
}
