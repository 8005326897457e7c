// Package debounce collapses bursts of calls into a single trailing call.
//
// A [Debouncer] wraps a single-argument function. Every [Debouncer.Call]
// reschedules the wrapped function to run once the input has been quiet for
// the configured delay, using the argument of the last call only. At most one
// timer is alive per Debouncer at any time.
//
// # What this package must NOT do
//
//   - Keep process-wide timers. Each Debouncer owns its own timer handle.
//   - Fire a trailing call after Cancel or Stop.
package debounce

import (
	"sync"
	"time"

	"github.com/MrEthical07/authgate/clock"
)

// DefaultDelay is used when New receives a non-positive delay.
const DefaultDelay = 500 * time.Millisecond

// Option customises a Debouncer.
type Option func(*options)

type options struct {
	clock       clock.Clock
	onSupersede func()
}

// WithClock sets the time source. Defaults to [clock.Real].
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithSupersedeHook registers fn to run whenever a pending execution is
// replaced by a newer Call.
func WithSupersedeHook(fn func()) Option {
	return func(o *options) {
		o.onSupersede = fn
	}
}

// Debouncer delays fn until calls have stopped for the configured delay.
type Debouncer[T any] struct {
	mu          sync.Mutex
	delay       time.Duration
	fn          func(T)
	clock       clock.Clock
	onSupersede func()

	timer   clock.Timer
	gen     uint64
	stopped bool
}

// New wraps fn. Non-positive delays fall back to [DefaultDelay].
func New[T any](delay time.Duration, fn func(T), opts ...Option) *Debouncer[T] {
	o := options{clock: clock.Real()}
	for _, opt := range opts {
		opt(&o)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{
		delay:       delay,
		fn:          fn,
		clock:       o.clock,
		onSupersede: o.onSupersede,
	}
}

// Delay returns the quiet period.
func (d *Debouncer[T]) Delay() time.Duration {
	return d.delay
}

// Call schedules fn(arg) after the quiet period, cancelling any execution
// scheduled by an earlier Call. Calls after Stop are ignored.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	if d.stopped || d.fn == nil {
		d.mu.Unlock()
		return
	}

	superseded := d.cancelLocked()
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(gen, arg)
	})
	hook := d.onSupersede
	d.mu.Unlock()

	if superseded && hook != nil {
		hook()
	}
}

// Cancel drops the pending execution, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.gen++
}

// Stop cancels the pending execution and disables the Debouncer.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.gen++
	d.stopped = true
}

// Pending reports whether an execution is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer[T]) cancelLocked() bool {
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}

// fire runs fn only if no newer Call, Cancel, or Stop happened since the
// timer was armed. A real timer can fire concurrently with Stop returning
// false; the generation check covers that window.
func (d *Debouncer[T]) fire(gen uint64, arg T) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	fn := d.fn
	d.mu.Unlock()

	fn(arg)
}
