package typewriter

import (
	"math/rand/v2"
	"time"

	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/schedule"
)

// Target receives revealed characters.
type Target interface {
	Clear()
	Append(r rune)
}

// Mount holds one target per paragraph and one per verse line.
type Mount struct {
	Paragraphs []Target
	Verses     []Target
}

// Timing holds the composition offsets for a track.
type Timing struct {
	Lead         time.Duration // before the first paragraph
	ParagraphGap time.Duration // after each paragraph
	VersePause   time.Duration // extra pause once before the verses
	VerseGap     time.Duration // after each verse
	Base         time.Duration // per-character base speed
}

// DefaultTiming returns the album pacing.
func DefaultTiming() Timing {
	return Timing{
		Lead:         800 * time.Millisecond,
		ParagraphGap: 1200 * time.Millisecond,
		VersePause:   1500 * time.Millisecond,
		VerseGap:     800 * time.Millisecond,
		Base:         60 * time.Millisecond,
	}
}

// Delay is the pause after r is revealed.
func Delay(r rune, base time.Duration) time.Duration {
	switch r {
	case '.', '!', '?', ',', ';', ':':
		return base * 10
	case ' ':
		return base * 7 / 10
	default:
		return base
	}
}

// ComputeDuration sums [Delay] over every rune of text.
func ComputeDuration(text string, base time.Duration) time.Duration {
	var total time.Duration
	for _, r := range text {
		total += Delay(r, base)
	}
	return total
}

// Plan is the start offset of every reveal in a composed track.
type Plan struct {
	Paragraphs []time.Duration
	Verses     []time.Duration
	Total      time.Duration // offset after the last gap
}

// PlanContent computes the offsets [Animator.Compose] uses, without scheduling anything.
func PlanContent(content models.TrackContent, t Timing) Plan {
	p := Plan{
		Paragraphs: make([]time.Duration, len(content.Paragraphs)),
		Verses:     make([]time.Duration, len(content.Verses)),
	}

	offset := t.Lead
	for i, text := range content.Paragraphs {
		p.Paragraphs[i] = offset
		offset += ComputeDuration(text, t.Base) + t.ParagraphGap
	}

	if len(content.Verses) > 0 {
		offset += t.VersePause
		for i, text := range content.Verses {
			p.Verses[i] = offset
			offset += ComputeDuration(text, t.Base) + t.VerseGap
		}
	}

	p.Total = offset
	return p
}

// Animator schedules reveals on a scheduler.
type Animator struct {
	sched   schedule.Scheduler
	gen     schedule.Generation
	timers  map[int]schedule.Timer
	nextID  int
	jitter  func() float64
	revealN int
}

// NewAnimator creates an animator. Live reveals jitter plain characters by up to ±15%.
func NewAnimator(s schedule.Scheduler) *Animator {
	return &Animator{
		sched:  s,
		timers: make(map[int]schedule.Timer),
		jitter: rand.Float64,
	}
}

// WithoutJitter makes live reveals follow [Delay] exactly.
func (a *Animator) WithoutJitter() *Animator {
	a.jitter = nil
	return a
}

// Reveal clears target after startDelay and then appends text one rune at a time.
// It returns [ComputeDuration] of text.
func (a *Animator) Reveal(target Target, text string, startDelay, base time.Duration) time.Duration {
	runes := []rune(text)
	token := a.gen.Current()
	a.revealN++

	var step func(i int)
	step = func(i int) {
		if !a.gen.Valid(token) || i >= len(runes) {
			return
		}
		target.Append(runes[i])
		if i+1 < len(runes) {
			a.after(a.liveDelay(runes[i], base), func() { step(i + 1) })
		}
	}

	a.after(startDelay, func() {
		if !a.gen.Valid(token) {
			return
		}
		target.Clear()
		step(0)
	})

	return ComputeDuration(text, base)
}

// Compose schedules every paragraph and verse of content into mount and returns the plan.
// Targets beyond what mount provides are skipped.
func (a *Animator) Compose(mount Mount, content models.TrackContent, t Timing) Plan {
	plan := PlanContent(content, t)

	for i, text := range content.Paragraphs {
		if i < len(mount.Paragraphs) {
			a.Reveal(mount.Paragraphs[i], text, plan.Paragraphs[i], t.Base)
		}
	}
	for i, text := range content.Verses {
		if i < len(mount.Verses) {
			a.Reveal(mount.Verses[i], text, plan.Verses[i], t.Base)
		}
	}
	return plan
}

// Reset stops every pending step and invalidates any that already fired but have not run.
func (a *Animator) Reset() {
	for id, timer := range a.timers {
		timer.Stop()
		delete(a.timers, id)
	}
	a.gen.Next()
}

// Pending returns the number of scheduled steps.
func (a *Animator) Pending() int {
	return len(a.timers)
}

// Reveals returns how many reveals have been started.
func (a *Animator) Reveals() int {
	return a.revealN
}

func (a *Animator) after(d time.Duration, fn func()) {
	a.nextID++
	id := a.nextID
	a.timers[id] = a.sched.AfterFunc(d, func() {
		delete(a.timers, id)
		fn()
	})
}

func (a *Animator) liveDelay(r rune, base time.Duration) time.Duration {
	d := Delay(r, base)
	if a.jitter == nil || d != base {
		return d
	}
	return base + time.Duration((a.jitter()-0.5)*float64(base)*0.3)
}
