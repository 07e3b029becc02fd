package audio

import (
	"bytes"
	"fmt"
	"math"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/desertthunder/kiyi/internal/shared"
)

// DefaultSampleRate is the output device rate. Recordings at other rates are resampled.
const DefaultSampleRate = 44100

// Format is a supported container.
type Format string

const (
	FormatMP3    Format = "mp3"
	FormatWAV    Format = "wav"
	FormatFLAC   Format = "flac"
	FormatVorbis Format = "vorbis"
)

// DetectFormat sniffs data, falling back to the extension of ref.
func DetectFormat(ref string, data []byte) (Format, bool) {
	switch {
	case bytes.HasPrefix(data, []byte("ID3")), len(data) > 1 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3, true
	case bytes.HasPrefix(data, []byte("RIFF")):
		return FormatWAV, true
	case bytes.HasPrefix(data, []byte("fLaC")):
		return FormatFLAC, true
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatVorbis, true
	}

	name := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		name = u.Path
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".mp3":
		return FormatMP3, true
	case ".wav":
		return FormatWAV, true
	case ".flac":
		return FormatFLAC, true
	case ".ogg", ".oga":
		return FormatVorbis, true
	}
	return "", false
}

// Speaker decodes recordings and plays them on the default output device.
type Speaker struct {
	rate    beep.SampleRate
	logger  *log.Logger
	once    sync.Once
	initErr error
	started bool
}

// NewSpeaker creates a speaker backend. The device opens on the first Play.
func NewSpeaker(sampleRate int, logger *log.Logger) *Speaker {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Speaker{rate: beep.SampleRate(sampleRate), logger: logger}
}

func (s *Speaker) init() error {
	s.once.Do(func() {
		s.initErr = speaker.Init(s.rate, s.rate.N(time.Second/10))
		if s.initErr != nil {
			s.logger.Error("failed to open audio device", "error", s.initErr)
			return
		}
		s.started = true
		s.logger.Debug("audio device opened", "rate", int(s.rate))
	})
	return s.initErr
}

// Close releases the output device.
func (s *Speaker) Close() {
	if s.started {
		speaker.Clear()
		speaker.Close()
	}
}

// Decode implements [Decoder].
func (s *Speaker) Decode(ref string, data []byte) (Media, error) {
	format, ok := DetectFormat(ref, data)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedFormat, ref)
	}

	src := &byteSource{Reader: bytes.NewReader(data)}
	var (
		stream  beep.StreamSeekCloser
		fmtInfo beep.Format
		err     error
	)
	switch format {
	case FormatMP3:
		stream, fmtInfo, err = mp3.Decode(src)
	case FormatWAV:
		stream, fmtInfo, err = wav.Decode(src)
	case FormatFLAC:
		stream, fmtInfo, err = flac.Decode(src)
	case FormatVorbis:
		stream, fmtInfo, err = vorbis.Decode(src)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s as %s: %w", ref, format, err)
	}

	return s.newMedia(ref, stream, fmtInfo), nil
}

func (s *Speaker) newMedia(ref string, stream beep.StreamSeekCloser, format beep.Format) *speakerMedia {
	ctrl := &beep.Ctrl{Streamer: stream, Paused: true}
	volume := &effects.Volume{Streamer: ctrl, Base: 2}

	var out beep.Streamer = volume
	if format.SampleRate != s.rate {
		out = beep.Resample(4, format.SampleRate, s.rate, volume)
	}

	return &speakerMedia{sp: s, ref: ref, stream: stream, format: format, ctrl: ctrl, volume: volume, out: out}
}

// speakerMedia fields other than subs are guarded by the speaker lock.
type speakerMedia struct {
	sp     *Speaker
	ref    string
	stream beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	volume *effects.Volume
	out    beep.Streamer
	queued bool
	closed bool
	subs   listeners
}

func (m *speakerMedia) Play() error {
	if err := m.sp.init(); err != nil {
		return fmt.Errorf("audio device unavailable: %w", err)
	}

	speaker.Lock()
	if m.closed {
		speaker.Unlock()
		return fmt.Errorf("%w: %s is closed", shared.ErrMediaNotReady, m.ref)
	}
	m.ctrl.Paused = false
	enqueue := !m.queued
	m.queued = true
	speaker.Unlock()

	if enqueue {
		speaker.Play(beep.Seq(m.out, beep.Callback(m.finished)))
	}
	return nil
}

// finished runs on the speaker goroutine with the lock held.
func (m *speakerMedia) finished() {
	m.queued = false
	m.ctrl.Paused = true
	if !m.closed {
		go m.subs.emit(Event{Kind: EventEnded})
	}
}

func (m *speakerMedia) Pause() {
	speaker.Lock()
	m.ctrl.Paused = true
	speaker.Unlock()
}

func (m *speakerMedia) Paused() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return m.ctrl.Paused || !m.queued
}

func (m *speakerMedia) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	if m.closed {
		return 0
	}
	return m.format.SampleRate.D(m.stream.Position())
}

func (m *speakerMedia) Duration() (time.Duration, bool) {
	speaker.Lock()
	defer speaker.Unlock()
	if m.closed {
		return 0, false
	}
	n := m.stream.Len()
	if n <= 0 {
		return 0, false
	}
	return m.format.SampleRate.D(n), true
}

func (m *speakerMedia) Seek(pos time.Duration) error {
	speaker.Lock()
	if m.closed {
		speaker.Unlock()
		return fmt.Errorf("%w: %s is closed", shared.ErrMediaNotReady, m.ref)
	}
	n := max(0, min(m.format.SampleRate.N(pos), m.stream.Len()))
	err := m.stream.Seek(n)
	speaker.Unlock()

	if err != nil {
		return fmt.Errorf("seek %s: %w", m.ref, err)
	}
	go m.subs.emit(Event{Kind: EventSeeked})
	return nil
}

// SetVolume maps the linear level onto the exponential gain of [effects.Volume].
func (m *speakerMedia) SetVolume(v float64) {
	speaker.Lock()
	defer speaker.Unlock()
	if v <= 0 {
		m.volume.Silent = true
		return
	}
	m.volume.Silent = false
	m.volume.Volume = math.Log2(math.Min(v, 1))
}

func (m *speakerMedia) Subscribe(fn func(Event)) func() {
	return m.subs.add(fn)
}

func (m *speakerMedia) Close() error {
	speaker.Lock()
	defer speaker.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.ctrl.Streamer = nil
	return m.stream.Close()
}

// byteSource lets decoders that need an io.ReadCloser (and seek when they can) read from memory.
type byteSource struct {
	*bytes.Reader
}

func (byteSource) Close() error { return nil }
