// Package schedule runs timed callbacks bound to a context lifetime.
package schedule

import (
	"context"
	"time"
)

// Stop cancels a scheduled callback. It is safe to call more than once and
// does not wait for a callback that is already running; that callback sees
// its context cancelled.
type Stop func()

// Every calls fn every interval until ctx is done or the returned Stop is
// called. The first call happens one interval after scheduling.
func Every(ctx context.Context, interval time.Duration, fn func(context.Context)) Stop {
	ctx, cancel := context.WithCancel(ctx)
	if interval <= 0 {
		cancel()
		return Stop(cancel)
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()
	return Stop(cancel)
}

// After calls fn once after d unless ctx is done or the returned Stop is
// called first.
func After(ctx context.Context, d time.Duration, fn func(context.Context)) Stop {
	ctx, cancel := context.WithCancel(ctx)
	timer := time.AfterFunc(d, func() {
		defer cancel()
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	})
	return func() {
		timer.Stop()
		cancel()
	}
}
