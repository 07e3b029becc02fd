package schedule

import (
	"time"
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the callback was still pending.
	Stop() bool
}

// Scheduler runs callbacks serially.
type Scheduler interface {
	Now() time.Time
	// Post queues fn to run on the loop. Safe to call from any goroutine.
	Post(fn func())
	// AfterFunc runs fn on the loop once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Generation is a monotonically increasing token used to invalidate scheduled work.
// It must only be used from the loop.
type Generation struct {
	n uint64
}

// Current returns the active generation.
func (g *Generation) Current() uint64 {
	return g.n
}

// Next invalidates everything scheduled so far and returns the new generation.
func (g *Generation) Next() uint64 {
	g.n++
	return g.n
}

// Valid reports whether token is still the active generation.
func (g *Generation) Valid(token uint64) bool {
	return g.n == token
}

// Guard wraps fn so it only runs if the generation has not moved since Guard was called.
func (g *Generation) Guard(fn func()) func() {
	token := g.n
	return func() {
		if g.n == token {
			fn()
		}
	}
}

// Ticker repeatedly schedules fn every interval until stopped.
type Ticker struct {
	s        Scheduler
	interval time.Duration
	fn       func()
	timer    Timer
	stopped  bool
}

// Every starts a [Ticker]. The first call happens after one interval.
func Every(s Scheduler, interval time.Duration, fn func()) *Ticker {
	t := &Ticker{s: s, interval: interval, fn: fn}
	t.arm()
	return t
}

func (t *Ticker) arm() {
	t.timer = t.s.AfterFunc(t.interval, func() {
		if t.stopped {
			return
		}
		t.fn()
		if !t.stopped {
			t.arm()
		}
	})
}

// Stop ends the ticker. It reports whether the ticker was running.
func (t *Ticker) Stop() bool {
	if t == nil || t.stopped {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}
