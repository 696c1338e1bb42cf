package examsession

import (
	"context"
	"time"
)

// Timer runs a tick callback on a fixed interval in its own goroutine until
// it is stopped, its context is cancelled, or the callback returns false.
type Timer struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartTimer launches the ticking goroutine.
func StartTimer(parent context.Context, interval time.Duration, tick func(ctx context.Context) bool) *Timer {
	ctx, cancel := context.WithCancel(parent)
	t := &Timer{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// A stop may race with a pending tick.
				if ctx.Err() != nil {
					return
				}
				if !tick(ctx) {
					return
				}
			}
		}
	}()

	return t
}

// Stop cancels the timer without waiting, so it may be called from inside
// the tick callback or while holding the session lock.
func (t *Timer) Stop() {
	t.cancel()
}

// Done is closed once the ticking goroutine has exited.
func (t *Timer) Done() <-chan struct{} {
	return t.done
}
