// throttle.go serializes all external provider calls through a single slot
// with a minimum gap after each completion. This is deliberately not a
// rate-limited parallel pool: one provider call in flight at a time keeps
// covercache polite towards the Cover Art Archive and Deezer, trading
// latency for provider friendliness.
package artwork

import (
	"context"
	"sync"
	"time"

	"github.com/fennecbyte/covercache/internal/errors"
)

// ErrThrottleReset is returned to operations that were queued before a
// session reset; their work belongs to the previous library session and
// must not run against the new one.
var ErrThrottleReset = errors.NewStd("throttle reset while operation queued")

// Throttle admits queued operations one at a time, starting each no sooner
// than delay after the previous operation completed. A failing operation
// settles the chain like any other: the next queued operation still runs.
type Throttle struct {
	delay time.Duration

	slot chan struct{} // capacity-1 semaphore, FIFO-ish admission

	mu            sync.Mutex
	lastCompleted time.Time
	generation    uint64
}

// NewThrottle creates a Throttle with the given post-completion delay.
func NewThrottle(delay time.Duration) *Throttle {
	t := &Throttle{
		delay: delay,
		slot:  make(chan struct{}, 1),
	}
	t.slot <- struct{}{}
	return t
}

// Run executes op once the slot is free and the spacing from the previous
// completion has elapsed. The context only covers waiting; once op starts
// it runs to completion.
func (t *Throttle) Run(ctx context.Context, op func() error) error {
	gen := t.currentGeneration()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.slot:
	}

	if t.currentGeneration() != gen {
		// Queued before a session reset; do not run, just release.
		t.slot <- struct{}{}
		return ErrThrottleReset
	}

	if wait := t.spacing(); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			t.slot <- struct{}{}
			return ctx.Err()
		case <-timer.C:
		}
	}

	err := op()

	t.mu.Lock()
	t.lastCompleted = time.Now()
	t.mu.Unlock()
	t.slot <- struct{}{}

	return err
}

// Reset invalidates queued operations and forgets the completion cursor, so
// work enqueued for a previous session never executes and the next session
// starts without inherited spacing.
func (t *Throttle) Reset() {
	t.mu.Lock()
	t.generation++
	t.lastCompleted = time.Time{}
	t.mu.Unlock()
}

func (t *Throttle) currentGeneration() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

// spacing returns how long the caller must still wait to honor the
// post-completion delay, zero for the first operation.
func (t *Throttle) spacing() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastCompleted.IsZero() {
		return 0
	}
	wait := t.delay - time.Since(t.lastCompleted)
	if wait < 0 {
		return 0
	}
	return wait
}
