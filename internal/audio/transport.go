package audio

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kiyi/internal/schedule"
	"github.com/desertthunder/kiyi/internal/shared"
)

const (
	// ProgressInterval is how often the position display refreshes.
	ProgressInterval = 250 * time.Millisecond
	// SeekFallback clears the seeking flag if the media never reports completion.
	SeekFallback = 200 * time.Millisecond
	// UnmuteVolume is used when unmuting from a zero level.
	UnmuteVolume = 0.7
)

// View renders transport state.
type View interface {
	ShowPlaying(playing bool)
	ShowProgress(position, duration time.Duration, known bool)
	ShowVolume(volume float64, muted bool)
}

// Outcome is the result of a play request.
type Outcome int

const (
	OutcomePlaying Outcome = iota
	OutcomePaused
	// OutcomeDeclined means playback did not start: no user interaction yet, or the media refused.
	OutcomeDeclined
	// OutcomeWaiting means the media is still loading and will start when ready.
	OutcomeWaiting
	OutcomeNoMedia
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlaying:
		return "playing"
	case OutcomePaused:
		return "paused"
	case OutcomeDeclined:
		return "declined"
	case OutcomeWaiting:
		return "waiting"
	case OutcomeNoMedia:
		return "no_media"
	default:
		return "unknown"
	}
}

// Lookup returns the audio reference for a track index.
type Lookup func(index int) (string, bool)

// TransportConfig wires a [Transport].
type TransportConfig struct {
	Scheduler schedule.Scheduler
	View      View
	Library   *Library
	Loader    Loader // nil disables on-demand loading
	Lookup    Lookup
	Volume    float64
	Logger    *log.Logger
	Context   context.Context
}

// Status is a snapshot of the transport.
type Status struct {
	Index         int
	Loaded        bool
	Playing       bool
	Interacted    bool
	Volume        float64
	Muted         bool
	Seeking       bool
	Position      time.Duration
	Duration      time.Duration
	DurationKnown bool
}

// Transport controls the single active media handle. All methods must run on the scheduler's loop.
type Transport struct {
	sched   schedule.Scheduler
	view    View
	library *Library
	loader  Loader
	lookup  Lookup
	logger  *log.Logger
	ctx     context.Context

	gen         schedule.Generation
	index       int
	current     Media
	unsubscribe func()
	ticker      *schedule.Ticker
	seekTimer   schedule.Timer

	interacted bool
	wantPlay   bool
	seeking    bool
	volume     float64
	muted      bool
	onEnded    func()
	onError    func(index int, err error)
}

// NewTransport creates a transport with no active media.
func NewTransport(cfg TransportConfig) *Transport {
	if cfg.Library == nil {
		cfg.Library = NewLibrary()
	}
	if cfg.Logger == nil {
		cfg.Logger = shared.NewLogger(nil)
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.View == nil {
		cfg.View = nopView{}
	}

	return &Transport{
		sched:   cfg.Scheduler,
		view:    cfg.View,
		library: cfg.Library,
		loader:  cfg.Loader,
		lookup:  cfg.Lookup,
		logger:  cfg.Logger,
		ctx:     cfg.Context,
		volume:  clamp(cfg.Volume),
	}
}

// OnEnded registers the callback run when the active media finishes.
func (t *Transport) OnEnded(fn func()) {
	t.onEnded = fn
}

// OnError registers the callback run when the active media fails to load.
func (t *Transport) OnError(fn func(index int, err error)) {
	t.onError = fn
}

// MarkInteraction records that the user has interacted, which allows autoplay.
func (t *Transport) MarkInteraction() {
	t.interacted = true
}

// Interacted reports whether the user has interacted.
func (t *Transport) Interacted() bool {
	return t.interacted
}

// Switch makes index the active track. The old handle is paused, rewound and returned to the library.
// Playback starts only if the user has interacted.
func (t *Transport) Switch(index int) Outcome {
	t.detach()
	token := t.gen.Next()
	t.index = index

	m, ok := t.library.Take(index)
	if !ok {
		m = t.loadOnDemand(index)
	}
	if m == nil {
		t.view.ShowPlaying(false)
		t.view.ShowProgress(0, 0, false)
		return OutcomeNoMedia
	}

	t.attach(m, token)

	if !t.interacted {
		t.logger.Debug("autoplay declined until user interaction", "track", index)
		t.view.ShowPlaying(false)
		return OutcomeDeclined
	}
	return t.Play()
}

// Play starts the active media.
func (t *Transport) Play() Outcome {
	if t.current == nil {
		return OutcomeNoMedia
	}

	if err := t.current.Play(); err != nil {
		t.view.ShowPlaying(false)
		if errors.Is(err, shared.ErrMediaNotReady) {
			t.wantPlay = true
			return OutcomeWaiting
		}
		t.logger.Warn("playback declined", "track", t.index, "error", err)
		t.wantPlay = false
		t.current.Pause()
		return OutcomeDeclined
	}

	t.wantPlay = false
	t.view.ShowPlaying(true)
	return OutcomePlaying
}

// Pause pauses the active media.
func (t *Transport) Pause() {
	t.wantPlay = false
	if t.current != nil {
		t.current.Pause()
	}
	t.view.ShowPlaying(false)
}

// Toggle plays when paused and pauses when playing.
func (t *Transport) Toggle() Outcome {
	if t.current == nil {
		return OutcomeNoMedia
	}
	if t.current.Paused() && !t.wantPlay {
		return t.Play()
	}
	t.Pause()
	return OutcomePaused
}

// Seek moves to fraction of the duration. It is a no-op returning false unless the duration is
// known and positive and fraction is within [0, 1].
func (t *Transport) Seek(fraction float64) bool {
	if t.current == nil || math.IsNaN(fraction) || fraction < 0 || fraction > 1 {
		return false
	}
	dur, ok := t.current.Duration()
	if !ok || dur <= 0 {
		t.logger.Debug("seek ignored, duration unknown", "track", t.index)
		return false
	}

	t.seeking = true
	if err := t.current.Seek(time.Duration(fraction * float64(dur))); err != nil {
		t.logger.Warn("seek failed", "track", t.index, "error", err)
		t.endSeek()
		return false
	}

	if t.seekTimer != nil {
		t.seekTimer.Stop()
	}
	t.seekTimer = t.sched.AfterFunc(SeekFallback, t.gen.Guard(func() {
		t.endSeek()
		t.refresh()
	}))
	return true
}

// SetVolume sets the level, clamped to [0, 1], and unmutes.
func (t *Transport) SetVolume(v float64) {
	t.volume = clamp(v)
	t.muted = false
	t.applyVolume()
}

// NudgeVolume changes the level by delta.
func (t *Transport) NudgeVolume(delta float64) {
	t.SetVolume(t.volume + delta)
}

// Mute silences output and remembers the level.
func (t *Transport) Mute() {
	if t.muted {
		return
	}
	t.muted = true
	t.applyVolume()
}

// Unmute restores the remembered level, or [UnmuteVolume] if it was zero.
func (t *Transport) Unmute() {
	if !t.muted && t.volume > 0 {
		return
	}
	t.muted = false
	if t.volume == 0 {
		t.volume = UnmuteVolume
	}
	t.applyVolume()
}

// ToggleMute mutes when audible and unmutes otherwise.
func (t *Transport) ToggleMute() {
	if t.muted || t.volume == 0 {
		t.Unmute()
		return
	}
	t.Mute()
}

// Status returns a snapshot.
func (t *Transport) Status() Status {
	s := Status{
		Index:      t.index,
		Interacted: t.interacted,
		Volume:     t.volume,
		Muted:      t.muted,
		Seeking:    t.seeking,
	}
	if t.current != nil {
		s.Loaded = true
		s.Playing = !t.current.Paused()
		s.Position = t.current.Position()
		s.Duration, s.DurationKnown = t.current.Duration()
	}
	return s
}

// Close stops the progress ticker and releases every handle.
func (t *Transport) Close() error {
	t.ticker.Stop()
	t.gen.Next()

	var errs []error
	if t.current != nil {
		if t.unsubscribe != nil {
			t.unsubscribe()
		}
		errs = append(errs, t.current.Close())
		t.current = nil
	}
	errs = append(errs, t.library.Close())
	return errors.Join(errs...)
}

func (t *Transport) attach(m Media, token uint64) {
	t.current = m
	m.SetVolume(t.effectiveVolume())
	t.unsubscribe = m.Subscribe(func(e Event) {
		t.sched.Post(func() {
			if t.gen.Valid(token) {
				t.handle(e)
			}
		})
	})

	t.refresh()
	if t.ticker == nil {
		t.ticker = schedule.Every(t.sched, ProgressInterval, t.tick)
	}
}

func (t *Transport) detach() {
	if t.current == nil {
		return
	}
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}

	old := t.current
	t.current = nil
	t.wantPlay = false
	t.endSeek()

	old.Pause()
	if f, ok := old.(Failer); ok && f.Err() != nil {
		old.Close()
		return
	}
	_ = old.Seek(0)
	t.library.Put(t.index, old)
}

func (t *Transport) loadOnDemand(index int) Media {
	if t.loader == nil || t.lookup == nil {
		return nil
	}
	ref, ok := t.lookup(index)
	if !ok {
		return nil
	}

	t.logger.Info("loading audio on demand", "track", index, "ref", ref)
	return Begin(t.ctx, t.loader, ref).Handle()
}

func (t *Transport) handle(e Event) {
	switch e.Kind {
	case EventEnded:
		t.logger.Debug("track ended", "track", t.index)
		t.view.ShowPlaying(false)
		t.refresh()
		if t.onEnded != nil {
			t.onEnded()
		}
	case EventSeeked:
		t.endSeek()
		t.refresh()
	case EventReady:
		if t.wantPlay {
			t.Play()
		}
		t.refresh()
	case EventDurationChanged:
		t.refresh()
	case EventError:
		t.logger.Warn("audio failed to load", "track", t.index, "error", e.Err)
		t.wantPlay = false
		t.view.ShowPlaying(false)
		if t.onError != nil {
			t.onError(t.index, e.Err)
		}
	}
}

func (t *Transport) tick() {
	if t.current == nil || t.seeking {
		return
	}
	t.refresh()
}

func (t *Transport) refresh() {
	if t.current == nil || t.seeking {
		return
	}
	dur, known := t.current.Duration()
	t.view.ShowProgress(t.current.Position(), dur, known && dur > 0)
}

func (t *Transport) endSeek() {
	t.seeking = false
	if t.seekTimer != nil {
		t.seekTimer.Stop()
		t.seekTimer = nil
	}
}

func (t *Transport) effectiveVolume() float64 {
	if t.muted {
		return 0
	}
	return t.volume
}

func (t *Transport) applyVolume() {
	if t.current != nil {
		t.current.SetVolume(t.effectiveVolume())
	}
	t.view.ShowVolume(t.volume, t.muted)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

type nopView struct{}

func (nopView) ShowPlaying(bool)                                {}
func (nopView) ShowProgress(time.Duration, time.Duration, bool) {}
func (nopView) ShowVolume(float64, bool)                        {}
