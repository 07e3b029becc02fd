package player

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/kiyi/internal/audio"
	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/schedule"
	"github.com/desertthunder/kiyi/internal/shared"
	"github.com/desertthunder/kiyi/internal/typewriter"
)

const (
	DefaultSettle      = 1500 * time.Millisecond
	DefaultTapCooldown = time.Second
	DefaultBeginDelay  = time.Second
)

// State is the controller's navigation state.
type State int

const (
	Idle State = iota
	Transitioning
)

func (s State) String() string {
	if s == Transitioning {
		return "transitioning"
	}
	return "idle"
}

// Surface receives display instructions.
type Surface interface {
	audio.View
	SetImage(path string)
	SetTitle(index, total int, title string)
	SetActiveDot(index int)
	// MountText replaces the text area with empty targets and returns them.
	MountText(paragraphs, verses int) typewriter.Mount
}

// Journal records player events. Errors are logged and otherwise ignored.
type Journal interface {
	RecordEvent(ctx context.Context, ev models.SessionEvent) error
}

// Config wires a [Controller].
type Config struct {
	Catalog     *models.Catalog
	Surface     Surface
	Scheduler   schedule.Scheduler
	Transport   *audio.Transport
	Animator    *typewriter.Animator
	Timing      typewriter.Timing
	Animate     bool
	Settle      time.Duration
	TapCooldown time.Duration
	BeginDelay  time.Duration
	Journal     Journal
	SessionID   string
	Logger      *log.Logger
	Context     context.Context
}

// Controller sequences track transitions.
type Controller struct {
	catalog   *models.Catalog
	surface   Surface
	sched     schedule.Scheduler
	transport *audio.Transport
	animator  *typewriter.Animator
	timing    typewriter.Timing
	animate   bool
	settle    time.Duration
	beginWait time.Duration
	tap       *rate.Limiter
	journal   Journal
	sessionID string
	logger    *log.Logger
	ctx       context.Context

	state       State
	current     int
	mount       typewriter.Mount
	started     bool
	begun       bool
	settleTimer schedule.Timer
	beginTimer  schedule.Timer
}

// New creates a controller. Zero durations fall back to the package defaults.
func New(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = shared.NewLogger(nil)
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Animator == nil {
		cfg.Animator = typewriter.NewAnimator(cfg.Scheduler)
	}
	if cfg.Timing == (typewriter.Timing{}) {
		cfg.Timing = typewriter.DefaultTiming()
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.TapCooldown <= 0 {
		cfg.TapCooldown = DefaultTapCooldown
	}
	if cfg.BeginDelay <= 0 {
		cfg.BeginDelay = DefaultBeginDelay
	}

	c := &Controller{
		catalog:   cfg.Catalog,
		surface:   cfg.Surface,
		sched:     cfg.Scheduler,
		transport: cfg.Transport,
		animator:  cfg.Animator,
		timing:    cfg.Timing,
		animate:   cfg.Animate,
		settle:    cfg.Settle,
		beginWait: cfg.BeginDelay,
		tap:       rate.NewLimiter(rate.Every(cfg.TapCooldown), 1),
		journal:   cfg.Journal,
		sessionID: cfg.SessionID,
		logger:    cfg.Logger,
		ctx:       cfg.Context,
	}

	if c.transport != nil {
		c.transport.OnEnded(c.trackEnded)
		c.transport.OnError(func(index int, err error) {
			detail := ""
			if err != nil {
				detail = err.Error()
			}
			c.record(models.EventLoadFailed, index, detail)
		})
	}
	return c
}

// Start shows the first track without animation, behind the title page.
func (c *Controller) Start() {
	if c.started {
		return
	}
	c.started = true
	c.current = 1
	c.show(1)
	c.switchAudio(1)
}

// Begin dismisses the title page: it records the interaction, reveals the current track and
// starts playback after the begin delay.
func (c *Controller) Begin() bool {
	if c.begun {
		return false
	}
	if !c.started {
		c.Start()
	}
	c.begun = true
	c.markInteraction()
	c.record(models.EventBegin, c.current, "")

	c.reveal(c.current)
	token := c.current
	c.beginTimer = c.sched.AfterFunc(c.beginWait, func() {
		c.beginTimer = nil
		if c.current != token || c.transport == nil {
			return
		}
		c.playOutcome(c.transport.Play())
	})
	return true
}

// GoTo transitions to track index. It returns false when the request is dropped: while
// transitioning, out of range, or already current.
func (c *Controller) GoTo(index int) bool {
	if c.state != Idle {
		c.logger.Debug("navigation dropped during transition", "requested", index, "current", c.current)
		return false
	}
	if !c.catalog.Has(index) {
		c.logger.Debug("navigation out of range", "requested", index, "tracks", c.catalog.Len())
		return false
	}
	if index == c.current {
		return false
	}

	if !c.started {
		c.started = true
	}
	if c.beginTimer != nil {
		c.beginTimer.Stop()
		c.beginTimer = nil
	}

	from := c.current
	c.state = Transitioning
	c.current = index
	c.show(index)
	c.switchAudio(index)
	c.reveal(index)
	c.record(models.EventTransition, index, fmt.Sprintf("from %d", from))

	c.settleTimer = c.sched.AfterFunc(c.settle, func() {
		c.settleTimer = nil
		c.state = Idle
	})
	return true
}

// Next goes to the following track, wrapping to the first.
func (c *Controller) Next() bool {
	return c.GoTo(c.catalog.Next(c.currentOrFirst()))
}

// Previous goes to the preceding track, wrapping to the last.
func (c *Controller) Previous() bool {
	return c.GoTo(c.catalog.Previous(c.currentOrFirst()))
}

// Current returns the active track index, 0 before Start.
func (c *Controller) Current() int {
	return c.current
}

// Mode returns the navigation state.
func (c *Controller) Mode() State {
	return c.state
}

// Begun reports whether the title page has been dismissed.
func (c *Controller) Begun() bool {
	return c.begun
}

// State returns a snapshot of the playback state.
func (c *Controller) State() models.PlaybackState {
	s := models.PlaybackState{
		CurrentIndex:    c.current,
		IsTransitioning: c.state == Transitioning,
	}
	if c.transport != nil {
		st := c.transport.Status()
		s.IsPlaying = st.Playing
		s.HasUserInteracted = st.Interacted
		s.Volume = st.Volume
		s.Muted = st.Muted
	}
	return s
}

// Close stops pending timers and the animator.
func (c *Controller) Close() {
	c.animator.Reset()
	if c.settleTimer != nil {
		c.settleTimer.Stop()
	}
	if c.beginTimer != nil {
		c.beginTimer.Stop()
	}
}

func (c *Controller) currentOrFirst() int {
	if c.current == 0 {
		return 1
	}
	return c.current
}

// show updates everything on the surface except the text content.
func (c *Controller) show(index int) {
	track, err := c.catalog.Track(index)
	if err != nil {
		c.logger.Error("track missing from catalog", "track", index, "error", err)
		return
	}

	c.surface.SetImage(track.Image)
	c.surface.SetTitle(index, c.catalog.Len(), track.Title)
	c.surface.SetActiveDot(index)

	c.animator.Reset()
	c.mount = c.surface.MountText(len(track.Content.Paragraphs), len(track.Content.Verses))
}

// reveal writes the track text into the mounted targets, animated or all at once.
func (c *Controller) reveal(index int) {
	track, err := c.catalog.Track(index)
	if err != nil {
		return
	}
	if c.animate {
		c.animator.Reset()
		c.animator.Compose(c.mount, track.Content, c.timing)
		return
	}
	fill(c.mount.Paragraphs, track.Content.Paragraphs)
	fill(c.mount.Verses, track.Content.Verses)
}

func (c *Controller) switchAudio(index int) {
	if c.transport == nil {
		return
	}
	c.playOutcome(c.transport.Switch(index))
}

func (c *Controller) playOutcome(o audio.Outcome) {
	switch o {
	case audio.OutcomeDeclined:
		c.record(models.EventAutoplayDeclined, c.current, "")
	case audio.OutcomePlaying:
		c.record(models.EventPlay, c.current, "")
	}
}

func (c *Controller) trackEnded() {
	c.record(models.EventTrackEnded, c.current, "")
	if !c.Next() {
		c.logger.Debug("auto-advance dropped", "track", c.current, "state", c.state)
	}
}

func (c *Controller) markInteraction() {
	if c.transport != nil {
		c.transport.MarkInteraction()
	}
}

func (c *Controller) record(kind models.EventKind, track int, detail string) {
	if c.journal == nil || c.sessionID == "" {
		return
	}
	ev := models.SessionEvent{
		SessionID:  c.sessionID,
		Kind:       kind,
		TrackIndex: track,
		Detail:     detail,
		Created:    c.sched.Now(),
	}
	if err := c.journal.RecordEvent(c.ctx, ev); err != nil {
		c.logger.Debug("journal write failed", "kind", kind, "error", err)
	}
}

func fill(targets []typewriter.Target, texts []string) {
	for i, text := range texts {
		if i >= len(targets) {
			return
		}
		targets[i].Clear()
		for _, r := range text {
			targets[i].Append(r)
		}
	}
}
