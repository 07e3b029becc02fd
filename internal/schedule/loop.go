package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a wall-clock [Scheduler] whose callbacks run on the goroutine calling [Loop.Run].
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	closed  bool
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

// Post queues fn. Callbacks posted after the loop has stopped are discarded.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if lt.stopped.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return lt
}

// Run executes posted callbacks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.close()

	for {
		for _, fn := range l.drain() {
			fn()
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.pending
	l.pending = nil
	return batch
}

func (l *Loop) close() {
	l.mu.Lock()
	l.closed = true
	l.pending = nil
	l.mu.Unlock()
}

type loopTimer struct {
	t       *time.Timer
	stopped atomic.Bool
}

// Stop is exact when called on the loop: a fired timer whose callback has not yet run is
// still cancelled.
func (lt *loopTimer) Stop() bool {
	lt.t.Stop()
	return lt.stopped.CompareAndSwap(false, true)
}
