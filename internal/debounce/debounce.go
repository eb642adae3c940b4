// Package debounce collapses bursts of calls into one trailing call.
package debounce

import (
	"sync"
	"time"
)

// Timer is the handle returned by a Scheduler.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. time.AfterFunc satisfies it through
// AfterFunc.
type Scheduler func(d time.Duration, f func()) Timer

// AfterFunc schedules with the runtime timer.
func AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer delays handler until calls have stopped arriving for delay.
// Only the argument of the last call reaches handler.
type Debouncer[T any] struct {
	mu       sync.Mutex
	delay    time.Duration
	handler  func(T)
	schedule Scheduler
	timer    Timer
	gen      uint64
}

type Option func(*options)

type options struct {
	schedule Scheduler
}

// WithScheduler replaces time.AfterFunc, mainly for tests.
func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.schedule = s }
}

func New[T any](delay time.Duration, handler func(T), opts ...Option) *Debouncer[T] {
	o := options{schedule: AfterFunc}
	for _, opt := range opts {
		opt(&o)
	}
	return &Debouncer[T]{
		delay:    delay,
		handler:  handler,
		schedule: o.schedule,
	}
}

// Call cancels any pending invocation and schedules handler(arg) after the
// delay.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.schedule(d.delay, func() {
		d.mu.Lock()
		// A timer that lost the race with Stop must not fire.
		if gen != d.gen || d.timer == nil {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.handler(arg)
	})
}

// Stop cancels the pending invocation, if any. It reports whether one was
// cancelled.
func (d *Debouncer[T]) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// Pending reports whether an invocation is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Delay returns the quiet period.
func (d *Debouncer[T]) Delay() time.Duration {
	return d.delay
}
