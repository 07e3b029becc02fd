package schedule

import (
	"sort"
	"sync"
	"time"
)

// Manual is a virtual-clock [Scheduler]. Time only moves on [Manual.Advance].
// Only Post may be called from other goroutines.
type Manual struct {
	now    time.Time
	seq    int
	timers []*manualTimer

	mu     sync.Mutex
	posted []func()
	notify chan struct{}
}

// NewManual starts a virtual clock at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, notify: make(chan struct{}, 1)}
}

func (m *Manual) Now() time.Time {
	return m.now
}

// Post queues fn until the next [Manual.Flush] or [Manual.Advance].
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.posted = append(m.posted, fn)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// WaitPosted blocks until a callback is queued or timeout elapses in real time.
func (m *Manual) WaitPosted(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		m.mu.Lock()
		n := len(m.posted)
		m.mu.Unlock()
		if n > 0 {
			return true
		}

		select {
		case <-m.notify:
		case <-deadline:
			return false
		}
	}
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{due: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Flush runs posted callbacks, including ones posted while flushing.
func (m *Manual) Flush() {
	for {
		m.mu.Lock()
		if len(m.posted) == 0 {
			m.mu.Unlock()
			return
		}
		fn := m.posted[0]
		m.posted = m.posted[1:]
		m.mu.Unlock()
		fn()
	}
}

// Advance moves the clock forward by d, running every timer that comes due in order of
// due time (then creation order). Timers created by callbacks run too if they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		m.Flush()
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.due
		t.stopped = true
		t.fn()
	}
	m.now = target
	m.Flush()
}

// Pending returns the number of timers that have not fired or been stopped.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (m *Manual) nextDue(target time.Time) *manualTimer {
	active := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			active = append(active, t)
		}
	}
	m.timers = active

	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].due.Equal(m.timers[j].due) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].due.Before(m.timers[j].due)
	})

	if len(m.timers) == 0 || m.timers[0].due.After(target) {
		return nil
	}
	return m.timers[0]
}

type manualTimer struct {
	due     time.Time
	seq     int
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}
