package audio

import (
	"sync"
	"time"

	"github.com/desertthunder/kiyi/internal/shared"
)

// EventKind identifies a media notification.
type EventKind int

const (
	EventEnded EventKind = iota
	EventSeeked
	EventDurationChanged
	EventReady
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventEnded:
		return "ended"
	case EventSeeked:
		return "seeked"
	case EventDurationChanged:
		return "duration_changed"
	case EventReady:
		return "ready"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a notification from a media handle.
type Event struct {
	Kind EventKind
	Err  error
}

// Media is a single playable recording.
type Media interface {
	Play() error
	Pause()
	Paused() bool
	Position() time.Duration
	// Duration reports the length once known.
	Duration() (time.Duration, bool)
	Seek(pos time.Duration) error
	SetVolume(v float64)
	// Subscribe registers fn for notifications, which may arrive on any goroutine.
	Subscribe(fn func(Event)) (cancel func())
	Close() error
}

// Failer is implemented by handles whose load can fail after they were handed out.
type Failer interface {
	Err() error
}

// listeners is a goroutine-safe subscription list shared by backends.
type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Event)
}

func (l *listeners) add(fn func(Event)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(Event))
	}
	l.next++
	id := l.next
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

func (l *listeners) emit(e Event) {
	l.mu.Lock()
	fns := make([]func(Event), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// pendingMedia stands in for a media whose load has not finished.
type pendingMedia struct {
	mu       sync.Mutex
	target   Media
	err      error
	closed   bool
	volume   *float64
	subs     listeners
	detached []func()
}

func newPending() *pendingMedia {
	return &pendingMedia{}
}

// resolve attaches the loaded media or records the failure, then notifies subscribers.
func (p *pendingMedia) resolve(m Media, err error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if m != nil {
			m.Close()
		}
		return
	}
	p.target, p.err = m, err
	if m != nil {
		if p.volume != nil {
			m.SetVolume(*p.volume)
		}
		p.detached = append(p.detached, m.Subscribe(p.subs.emit))
	}
	p.mu.Unlock()

	if err != nil {
		p.subs.emit(Event{Kind: EventError, Err: err})
		return
	}
	p.subs.emit(Event{Kind: EventReady})
	p.subs.emit(Event{Kind: EventDurationChanged})
}

func (p *pendingMedia) current() (Media, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	if p.target == nil {
		return nil, shared.ErrMediaNotReady
	}
	return p.target, nil
}

func (p *pendingMedia) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *pendingMedia) Play() error {
	m, err := p.current()
	if err != nil {
		return err
	}
	return m.Play()
}

func (p *pendingMedia) Pause() {
	if m, err := p.current(); err == nil {
		m.Pause()
	}
}

func (p *pendingMedia) Paused() bool {
	if m, err := p.current(); err == nil {
		return m.Paused()
	}
	return true
}

func (p *pendingMedia) Position() time.Duration {
	if m, err := p.current(); err == nil {
		return m.Position()
	}
	return 0
}

func (p *pendingMedia) Duration() (time.Duration, bool) {
	if m, err := p.current(); err == nil {
		return m.Duration()
	}
	return 0, false
}

func (p *pendingMedia) Seek(pos time.Duration) error {
	m, err := p.current()
	if err != nil {
		return err
	}
	return m.Seek(pos)
}

func (p *pendingMedia) SetVolume(v float64) {
	p.mu.Lock()
	p.volume = &v
	m := p.target
	p.mu.Unlock()
	if m != nil {
		m.SetVolume(v)
	}
}

func (p *pendingMedia) Subscribe(fn func(Event)) func() {
	return p.subs.add(fn)
}

func (p *pendingMedia) Close() error {
	p.mu.Lock()
	p.closed = true
	m := p.target
	for _, cancel := range p.detached {
		cancel()
	}
	p.detached = nil
	p.mu.Unlock()

	if m != nil {
		return m.Close()
	}
	return nil
}
