package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/kiyi/internal/audio"
	"github.com/desertthunder/kiyi/internal/shared"
	"github.com/desertthunder/kiyi/internal/typewriter"
)

// FakeMedia is an in-memory [audio.Media]. Events are delivered synchronously by Emit.
type FakeMedia struct {
	mu       sync.Mutex
	Ref      string
	PlayErr  error
	paused   bool
	position time.Duration
	duration time.Duration
	known    bool
	volume   float64
	plays    int
	seeks    []time.Duration
	closed   bool
	nextSub  int
	subs     map[int]func(audio.Event)
}

// NewFakeMedia returns a paused media. A zero duration means the duration is unknown.
func NewFakeMedia(ref string, d time.Duration) *FakeMedia {
	return &FakeMedia{Ref: ref, paused: true, duration: d, known: d > 0, subs: make(map[int]func(audio.Event))}
}

func (f *FakeMedia) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PlayErr != nil {
		return f.PlayErr
	}
	f.paused = false
	f.plays++
	return nil
}

func (f *FakeMedia) Pause() {
	f.mu.Lock()
	f.paused = true
	f.mu.Unlock()
}

func (f *FakeMedia) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *FakeMedia) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

func (f *FakeMedia) Duration() (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration, f.known
}

func (f *FakeMedia) Seek(pos time.Duration) error {
	f.mu.Lock()
	f.position = pos
	f.seeks = append(f.seeks, pos)
	f.mu.Unlock()
	return nil
}

func (f *FakeMedia) SetVolume(v float64) {
	f.mu.Lock()
	f.volume = v
	f.mu.Unlock()
}

func (f *FakeMedia) Subscribe(fn func(audio.Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSub++
	id := f.nextSub
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *FakeMedia) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Emit delivers an event to every subscriber.
func (f *FakeMedia) Emit(kind audio.EventKind) {
	f.mu.Lock()
	fns := make([]func(audio.Event), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(audio.Event{Kind: kind})
	}
}

// SetDuration makes the duration known.
func (f *FakeMedia) SetDuration(d time.Duration) {
	f.mu.Lock()
	f.duration, f.known = d, true
	f.mu.Unlock()
}

// SetPosition moves the playhead without a seek.
func (f *FakeMedia) SetPosition(p time.Duration) {
	f.mu.Lock()
	f.position = p
	f.mu.Unlock()
}

func (f *FakeMedia) Volume() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *FakeMedia) Plays() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

func (f *FakeMedia) Seeks() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.seeks...)
}

func (f *FakeMedia) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeLoader is an [audio.Loader] backed by a table of refs.
//
// Refs listed in Fail return an error, refs in Block wait until their channel is closed,
// and everything else loads a [FakeMedia] with Duration.
type FakeLoader struct {
	mu       sync.Mutex
	Duration time.Duration
	Fail     map[string]error
	Block    map[string]chan struct{}
	loaded   map[string]*FakeMedia
	calls    []string
}

// NewFakeLoader creates a loader whose media last d.
func NewFakeLoader(d time.Duration) *FakeLoader {
	return &FakeLoader{
		Duration: d,
		Fail:     make(map[string]error),
		Block:    make(map[string]chan struct{}),
		loaded:   make(map[string]*FakeMedia),
	}
}

func (l *FakeLoader) Load(ctx context.Context, ref string) (audio.Media, error) {
	l.mu.Lock()
	l.calls = append(l.calls, ref)
	failErr, fails := l.Fail[ref]
	block := l.Block[ref]
	l.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fails {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrMediaLoad, ref, failErr)
	}

	m := NewFakeMedia(ref, l.Duration)
	l.mu.Lock()
	l.loaded[ref] = m
	l.mu.Unlock()
	return m, nil
}

// Calls returns the refs requested so far, in order.
func (l *FakeLoader) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Media returns the media produced for ref.
func (l *FakeLoader) Media(ref string) *FakeMedia {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded[ref]
}

// RecordingTarget is a [typewriter.Target] that keeps the revealed text.
type RecordingTarget struct {
	text   strings.Builder
	Clears int
}

func (r *RecordingTarget) Clear() {
	r.Clears++
	r.text.Reset()
}

func (r *RecordingTarget) Append(c rune) {
	r.text.WriteRune(c)
}

func (r *RecordingTarget) String() string {
	return r.text.String()
}

// RecordingSurface records display instructions sent by the player.
type RecordingSurface struct {
	Images     []string
	Titles     []string
	Dots       []int
	Paragraphs []*RecordingTarget
	Verses     []*RecordingTarget
	Mounts     int
	Playing    []bool
	Progress   int
	Volume     float64
	Muted      bool
	Known      bool
	Position   time.Duration
	Length     time.Duration
}

func (s *RecordingSurface) SetImage(path string) {
	s.Images = append(s.Images, path)
}

func (s *RecordingSurface) SetTitle(index, total int, title string) {
	s.Titles = append(s.Titles, fmt.Sprintf("%s / %s %s", shared.PadIndex(index), shared.PadIndex(total), title))
}

func (s *RecordingSurface) SetActiveDot(index int) {
	s.Dots = append(s.Dots, index)
}

func (s *RecordingSurface) MountText(paragraphs, verses int) typewriter.Mount {
	s.Mounts++
	s.Paragraphs = make([]*RecordingTarget, paragraphs)
	s.Verses = make([]*RecordingTarget, verses)

	var m typewriter.Mount
	for i := range s.Paragraphs {
		s.Paragraphs[i] = &RecordingTarget{}
		m.Paragraphs = append(m.Paragraphs, s.Paragraphs[i])
	}
	for i := range s.Verses {
		s.Verses[i] = &RecordingTarget{}
		m.Verses = append(m.Verses, s.Verses[i])
	}
	return m
}

func (s *RecordingSurface) ShowPlaying(playing bool) {
	s.Playing = append(s.Playing, playing)
}

func (s *RecordingSurface) ShowProgress(position, duration time.Duration, known bool) {
	s.Progress++
	s.Position, s.Length, s.Known = position, duration, known
}

func (s *RecordingSurface) ShowVolume(volume float64, muted bool) {
	s.Volume, s.Muted = volume, muted
}

// LastTitle returns the most recent title line, or "".
func (s *RecordingSurface) LastTitle() string {
	if len(s.Titles) == 0 {
		return ""
	}
	return s.Titles[len(s.Titles)-1]
}

// IsPlaying reports the most recent playing state.
func (s *RecordingSurface) IsPlaying() bool {
	return len(s.Playing) > 0 && s.Playing[len(s.Playing)-1]
}
