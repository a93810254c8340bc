// Package countdown runs a cancellable once-per-interval callback.
//
// A Countdown owns exactly one goroutine between Start and Stop. The
// callback returns false to end the countdown from inside (e.g. when the
// timer reaches zero); Stop may also be called from any goroutine except
// the callback itself.
package countdown

import (
	"context"
	"sync"
	"time"
)

// Countdown is a one-shot ticker task.
type Countdown struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start launches fn every interval until fn returns false, Stop is called,
// or ctx is cancelled.
func Start(ctx context.Context, interval time.Duration, fn func() bool) *Countdown {
	ctx, cancel := context.WithCancel(ctx)
	c := &Countdown{cancel: cancel, done: make(chan struct{})}
	go c.run(ctx, interval, fn)
	return c
}

func (c *Countdown) run(ctx context.Context, interval time.Duration, fn func() bool) {
	defer close(c.done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !fn() {
				return
			}
		}
	}
}

// Stop cancels the countdown and waits for its goroutine to exit.
// Safe to call more than once.
func (c *Countdown) Stop() {
	c.once.Do(c.cancel)
	<-c.done
}

// Cancel cancels without waiting. Use it from inside fn.
func (c *Countdown) Cancel() {
	c.once.Do(c.cancel)
}

// Done is closed once the countdown goroutine has exited.
func (c *Countdown) Done() <-chan struct{} { return c.done }
