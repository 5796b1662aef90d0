package elexon

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/windwatts/curtailment-mining-watcher/common/utils"
)

// RateLimiter is a sliding-window request budget: at most limit requests per
// rolling window. Wait suspends the caller until the oldest request ages out.
// The window is process-lifetime state owned by one run; it must not be
// shared across independent runs.
type RateLimiter struct {
	mu     sync.Mutex
	sent   *utils.Deque
	limit  int
	window time.Duration

	waited atomic.Int64
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
}

// NewRateLimiter returns a limiter allowing limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		sent:   utils.NewDeque(),
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Wait blocks until the budget admits one more request or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := r.now()
		cutoff := now.Add(-r.window)
		for r.sent.Len() > 0 {
			head, _ := r.sent.Head()
			if head.(time.Time).After(cutoff) {
				break
			}
			r.sent.PopFront()
		}
		if int(r.sent.Len()) < r.limit {
			r.sent.PushBack(now)
			r.mu.Unlock()
			return nil
		}
		head, _ := r.sent.Head()
		wait := head.(time.Time).Sub(cutoff)
		r.mu.Unlock()

		r.waited.Inc()
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Waited returns how many times callers had to suspend for budget.
func (r *RateLimiter) Waited() int64 {
	return r.waited.Load()
}
