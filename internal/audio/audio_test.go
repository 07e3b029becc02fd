package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/kiyi/internal/schedule"
	"github.com/desertthunder/kiyi/internal/shared"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeMedia struct {
	mu       sync.Mutex
	playErr  error
	paused   bool
	position time.Duration
	duration time.Duration
	known    bool
	volume   float64
	seeks    []time.Duration
	closed   bool
	subs     listeners
}

func newFakeMedia(d time.Duration) *fakeMedia {
	return &fakeMedia{paused: true, duration: d, known: d > 0}
}

func (f *fakeMedia) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playErr != nil {
		return f.playErr
	}
	f.paused = false
	return nil
}

func (f *fakeMedia) Pause() {
	f.mu.Lock()
	f.paused = true
	f.mu.Unlock()
}

func (f *fakeMedia) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *fakeMedia) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

func (f *fakeMedia) Duration() (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration, f.known
}

func (f *fakeMedia) Seek(pos time.Duration) error {
	f.mu.Lock()
	f.position = pos
	f.seeks = append(f.seeks, pos)
	f.mu.Unlock()
	return nil
}

func (f *fakeMedia) SetVolume(v float64) {
	f.mu.Lock()
	f.volume = v
	f.mu.Unlock()
}

func (f *fakeMedia) Subscribe(fn func(Event)) func() { return f.subs.add(fn) }

func (f *fakeMedia) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeMedia) emit(kind EventKind) { f.subs.emit(Event{Kind: kind}) }

type progress struct {
	position, duration time.Duration
	known              bool
}

type recordingView struct {
	playing  []bool
	progress []progress
	volume   float64
	muted    bool
}

func (v *recordingView) ShowPlaying(p bool) { v.playing = append(v.playing, p) }

func (v *recordingView) ShowProgress(pos, dur time.Duration, known bool) {
	v.progress = append(v.progress, progress{pos, dur, known})
}

func (v *recordingView) ShowVolume(vol float64, muted bool) { v.volume, v.muted = vol, muted }

func (v *recordingView) lastPlaying() bool {
	if len(v.playing) == 0 {
		return false
	}
	return v.playing[len(v.playing)-1]
}

func TestBegin(t *testing.T) {
	t.Run("handle forwards once loaded", func(t *testing.T) {
		release := make(chan struct{})
		media := newFakeMedia(time.Minute)
		loader := LoaderFunc(func(ctx context.Context, ref string) (Media, error) {
			<-release
			return media, nil
		})

		ld := Begin(context.Background(), loader, "01.mp3")
		handle := ld.Handle()

		events := make(chan EventKind, 4)
		handle.Subscribe(func(e Event) { events <- e.Kind })
		handle.SetVolume(0.3)

		if err := handle.Play(); !errors.Is(err, shared.ErrMediaNotReady) {
			t.Errorf("expected ErrMediaNotReady, got %v", err)
		}
		if _, ok := handle.Duration(); ok {
			t.Error("duration should be unknown before load")
		}
		if !handle.Paused() {
			t.Error("pending handle should report paused")
		}

		close(release)
		<-ld.Done()

		if got := <-events; got != EventReady {
			t.Errorf("expected ready event, got %v", got)
		}
		if err := handle.Play(); err != nil {
			t.Errorf("expected play after load, got %v", err)
		}
		if media.volume != 0.3 {
			t.Errorf("queued volume should apply on load, got %v", media.volume)
		}
		if d, ok := handle.Duration(); !ok || d != time.Minute {
			t.Errorf("expected forwarded duration, got %v %v", d, ok)
		}
		if m, err := ld.Result(); err != nil || m != media {
			t.Error("Result should return the loaded media")
		}
	})

	t.Run("failure is reported", func(t *testing.T) {
		loader := LoaderFunc(func(ctx context.Context, ref string) (Media, error) {
			return nil, shared.ErrMediaLoad
		})
		ld := Begin(context.Background(), loader, "04.mp3")
		<-ld.Done()

		if _, err := ld.Result(); !errors.Is(err, shared.ErrMediaLoad) {
			t.Errorf("expected ErrMediaLoad, got %v", err)
		}
		f, ok := ld.Handle().(Failer)
		if !ok || f.Err() == nil {
			t.Error("handle should report the load error")
		}
		if err := ld.Handle().Play(); !errors.Is(err, shared.ErrMediaLoad) {
			t.Errorf("expected ErrMediaLoad from Play, got %v", err)
		}
	})

	t.Run("nil media without error is a failure", func(t *testing.T) {
		ld := Begin(context.Background(), LoaderFunc(func(context.Context, string) (Media, error) { return nil, nil }), "x")
		<-ld.Done()
		if _, err := ld.Result(); !errors.Is(err, shared.ErrMediaLoad) {
			t.Errorf("expected ErrMediaLoad, got %v", err)
		}
	})

	t.Run("closing before load closes the late media", func(t *testing.T) {
		release := make(chan struct{})
		media := newFakeMedia(time.Minute)
		ld := Begin(context.Background(), LoaderFunc(func(context.Context, string) (Media, error) {
			<-release
			return media, nil
		}), "x")

		ld.Handle().Close()
		close(release)
		<-ld.Done()

		if !media.closed {
			t.Error("late media should be closed")
		}
	})
}

type fakeFetcher map[string][]byte

func (f fakeFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	data, ok := f[ref]
	if !ok {
		return nil, shared.ErrServiceUnavailable
	}
	return data, nil
}

type fakeDecoder struct{}

func (fakeDecoder) Decode(ref string, data []byte) (Media, error) {
	if string(data) == "garbage" {
		return nil, shared.ErrUnsupportedFormat
	}
	return newFakeMedia(time.Second), nil
}

func TestFetchLoader(t *testing.T) {
	loader := NewFetchLoader(fakeFetcher{"ok.mp3": []byte("ID3"), "bad.mp3": []byte("garbage")}, fakeDecoder{})

	if _, err := loader.Load(context.Background(), "ok.mp3"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	_, err := loader.Load(context.Background(), "missing.mp3")
	if !errors.Is(err, shared.ErrMediaLoad) || !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("expected wrapped load error, got %v", err)
	}

	_, err = loader.Load(context.Background(), "bad.mp3")
	if !errors.Is(err, shared.ErrMediaLoad) || !errors.Is(err, shared.ErrUnsupportedFormat) {
		t.Errorf("expected wrapped decode error, got %v", err)
	}
}

func TestLibrary(t *testing.T) {
	lib := NewLibrary()
	a, b := newFakeMedia(time.Second), newFakeMedia(time.Second)

	lib.Put(3, a)
	lib.Put(1, b)
	if lib.Len() != 2 || !lib.Has(3) {
		t.Fatal("expected two stored handles")
	}
	if got := lib.Indices(); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("expected [1 3], got %v", got)
	}

	m, ok := lib.Take(3)
	if !ok || m != a {
		t.Fatal("Take should return the stored handle")
	}
	if lib.Has(3) {
		t.Error("Take should remove the handle")
	}
	if _, ok := lib.Take(3); ok {
		t.Error("second Take should miss")
	}

	replacement := newFakeMedia(time.Second)
	lib.Put(1, replacement)
	if !b.closed {
		t.Error("replaced handle should be closed")
	}

	if err := lib.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !replacement.closed || lib.Len() != 0 {
		t.Error("Close should close and remove every handle")
	}
}

func newTestTransport(t *testing.T, lib *Library) (*Transport, *schedule.Manual, *recordingView) {
	t.Helper()
	m := schedule.NewManual(epoch)
	view := &recordingView{}
	tr := NewTransport(TransportConfig{Scheduler: m, View: view, Library: lib, Volume: 0.5})
	return tr, m, view
}

func TestTransportSwitch(t *testing.T) {
	t.Run("autoplay declined without interaction", func(t *testing.T) {
		lib := NewLibrary()
		media := newFakeMedia(time.Minute)
		lib.Put(1, media)
		tr, _, view := newTestTransport(t, lib)

		if got := tr.Switch(1); got != OutcomeDeclined {
			t.Errorf("expected declined, got %v", got)
		}
		if !media.Paused() || view.lastPlaying() {
			t.Error("media should stay paused")
		}
		if media.volume != 0.5 {
			t.Errorf("volume should be applied on attach, got %v", media.volume)
		}
	})

	t.Run("plays after interaction", func(t *testing.T) {
		lib := NewLibrary()
		lib.Put(2, newFakeMedia(time.Minute))
		tr, _, view := newTestTransport(t, lib)
		tr.MarkInteraction()

		if got := tr.Switch(2); got != OutcomePlaying {
			t.Errorf("expected playing, got %v", got)
		}
		if !view.lastPlaying() || !tr.Status().Playing {
			t.Error("expected playing state")
		}
	})

	t.Run("play error yields declined and paused", func(t *testing.T) {
		lib := NewLibrary()
		media := newFakeMedia(time.Minute)
		media.playErr = errors.New("device busy")
		lib.Put(1, media)
		tr, _, view := newTestTransport(t, lib)
		tr.MarkInteraction()

		if got := tr.Switch(1); got != OutcomeDeclined {
			t.Errorf("expected declined, got %v", got)
		}
		if view.lastPlaying() {
			t.Error("view should show paused")
		}
	})

	t.Run("old handle paused rewound and returned", func(t *testing.T) {
		lib := NewLibrary()
		first, second := newFakeMedia(time.Minute), newFakeMedia(time.Minute)
		lib.Put(1, first)
		lib.Put(2, second)
		tr, _, _ := newTestTransport(t, lib)
		tr.MarkInteraction()

		tr.Switch(1)
		first.position = 30 * time.Second
		tr.Switch(2)

		if !first.Paused() {
			t.Error("old handle should be paused")
		}
		if first.Position() != 0 {
			t.Errorf("old handle should be rewound, at %v", first.Position())
		}
		if !lib.Has(1) || lib.Has(2) {
			t.Error("old handle should return to the library and the new one be taken")
		}
		if first.Paused() == second.Paused() {
			t.Error("only the new handle should be playing")
		}
	})

	t.Run("no media", func(t *testing.T) {
		tr, _, view := newTestTransport(t, NewLibrary())
		if got := tr.Switch(5); got != OutcomeNoMedia {
			t.Errorf("expected no media, got %v", got)
		}
		if len(view.progress) == 0 || view.progress[0].known {
			t.Error("progress should show unknown duration")
		}
		if tr.Toggle() != OutcomeNoMedia || tr.Seek(0.5) {
			t.Error("controls should be no-ops without media")
		}
	})

	t.Run("lazy load plays when ready", func(t *testing.T) {
		release := make(chan struct{})
		media := newFakeMedia(time.Minute)
		m := schedule.NewManual(epoch)
		view := &recordingView{}
		tr := NewTransport(TransportConfig{
			Scheduler: m,
			View:      view,
			Loader: LoaderFunc(func(context.Context, string) (Media, error) {
				<-release
				return media, nil
			}),
			Lookup: func(i int) (string, bool) { return "07.mp3", i == 7 },
		})
		tr.MarkInteraction()

		if got := tr.Switch(7); got != OutcomeWaiting {
			t.Fatalf("expected waiting, got %v", got)
		}
		close(release)
		if !m.WaitPosted(time.Second) {
			t.Fatal("load completion was never posted")
		}
		m.Flush()

		if media.Paused() {
			t.Error("media should start once ready")
		}
		if !view.lastPlaying() {
			t.Error("view should show playing")
		}
	})

	t.Run("stale lazy load is dropped", func(t *testing.T) {
		release := make(chan struct{})
		media := newFakeMedia(time.Minute)
		m := schedule.NewManual(epoch)
		lib := NewLibrary()
		lib.Put(2, newFakeMedia(time.Minute))
		tr := NewTransport(TransportConfig{
			Scheduler: m,
			Library:   lib,
			Loader: LoaderFunc(func(context.Context, string) (Media, error) {
				<-release
				return media, nil
			}),
			Lookup: func(int) (string, bool) { return "x.mp3", true },
		})
		tr.MarkInteraction()

		tr.Switch(7)
		tr.Switch(2)
		close(release)
		m.WaitPosted(100 * time.Millisecond)
		m.Flush()

		if !media.Paused() {
			t.Error("a load for an abandoned track must not start playback")
		}
		if tr.Status().Index != 2 {
			t.Errorf("expected track 2 active, got %d", tr.Status().Index)
		}
	})
}

func TestTransportSeek(t *testing.T) {
	lib := NewLibrary()
	media := newFakeMedia(0)
	lib.Put(1, media)
	tr, m, view := newTestTransport(t, lib)
	tr.Switch(1)

	t.Run("no-op until duration known", func(t *testing.T) {
		if tr.Seek(0.5) {
			t.Error("seek should be a no-op with unknown duration")
		}
		if len(media.seeks) != 0 {
			t.Error("media should not be seeked")
		}
	})

	media.duration, media.known = 100*time.Second, true
	media.emit(EventDurationChanged)
	m.Flush()

	t.Run("rejects out of range", func(t *testing.T) {
		for _, f := range []float64{-0.1, 1.1} {
			if tr.Seek(f) {
				t.Errorf("Seek(%v) should be rejected", f)
			}
		}
	})

	t.Run("suppresses progress until seeked", func(t *testing.T) {
		if !tr.Seek(0.25) {
			t.Fatal("seek should succeed")
		}
		if media.Position() != 25*time.Second {
			t.Errorf("expected 25s, got %v", media.Position())
		}
		if !tr.Status().Seeking {
			t.Error("seeking flag should be set")
		}

		before := len(view.progress)
		media.emit(EventDurationChanged)
		m.Flush()
		if len(view.progress) != before {
			t.Error("progress should be suppressed while seeking")
		}

		media.emit(EventSeeked)
		m.Flush()
		if tr.Status().Seeking {
			t.Error("seeked event should clear the flag")
		}
		if last := view.progress[len(view.progress)-1]; last.position != 25*time.Second {
			t.Errorf("expected refreshed position, got %v", last.position)
		}
	})

	t.Run("fallback clears flag", func(t *testing.T) {
		tr.Seek(0.5)
		m.Advance(SeekFallback)
		if tr.Status().Seeking {
			t.Error("fallback should clear the seeking flag")
		}
	})
}

func TestTransportVolume(t *testing.T) {
	lib := NewLibrary()
	media := newFakeMedia(time.Minute)
	lib.Put(1, media)
	tr, _, view := newTestTransport(t, lib)
	tr.Switch(1)

	tr.SetVolume(1.7)
	if tr.Status().Volume != 1 {
		t.Errorf("volume should clamp to 1, got %v", tr.Status().Volume)
	}
	tr.SetVolume(-1)
	if tr.Status().Volume != 0 {
		t.Errorf("volume should clamp to 0, got %v", tr.Status().Volume)
	}

	tr.SetVolume(0.4)
	tr.Mute()
	if media.volume != 0 || !view.muted {
		t.Error("mute should silence output")
	}
	tr.Unmute()
	if media.volume != 0.4 || view.muted {
		t.Errorf("unmute should restore 0.4, got %v", media.volume)
	}

	tr.SetVolume(0)
	tr.ToggleMute()
	if media.volume != UnmuteVolume {
		t.Errorf("unmute from zero should use %v, got %v", UnmuteVolume, media.volume)
	}

	tr.NudgeVolume(-0.2)
	if got := tr.Status().Volume; got < 0.49 || got > 0.51 {
		t.Errorf("expected 0.5 after nudge, got %v", got)
	}
}

func TestTransportEvents(t *testing.T) {
	lib := NewLibrary()
	media := newFakeMedia(time.Minute)
	lib.Put(1, media)
	tr, m, _ := newTestTransport(t, lib)

	ended := 0
	tr.OnEnded(func() { ended++ })
	tr.MarkInteraction()
	tr.Switch(1)

	media.emit(EventEnded)
	if ended != 0 {
		t.Error("events must run on the loop, not synchronously")
	}
	m.Flush()
	if ended != 1 {
		t.Errorf("expected one ended callback, got %d", ended)
	}

	t.Run("progress ticks", func(t *testing.T) {
		media.position = 10 * time.Second
		tr.Toggle()
		m.Advance(ProgressInterval)
		if s := tr.Status(); s.Position != 10*time.Second || !s.DurationKnown {
			t.Errorf("unexpected status %+v", s)
		}
	})

	t.Run("close releases handles", func(t *testing.T) {
		if err := tr.Close(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if !media.closed {
			t.Error("active media should be closed")
		}
		media.emit(EventEnded)
		m.Flush()
		if ended != 1 {
			t.Error("events after close should be ignored")
		}
	})
}
