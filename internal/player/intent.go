package player

import (
	"github.com/desertthunder/kiyi/internal/audio"
	"github.com/desertthunder/kiyi/internal/models"
)

// IntentKind names an input-surface request.
type IntentKind int

const (
	IntentNext IntentKind = iota
	IntentPrevious
	IntentGoTo
	IntentToggle
	IntentTap
	IntentSeek
	IntentVolume
	IntentMute
	IntentUnmute
	IntentBegin
)

var intentNames = map[IntentKind]string{
	IntentNext:     "next",
	IntentPrevious: "previous",
	IntentGoTo:     "goto",
	IntentToggle:   "toggle",
	IntentTap:      "tap",
	IntentSeek:     "seek",
	IntentVolume:   "volume",
	IntentMute:     "mute",
	IntentUnmute:   "unmute",
	IntentBegin:    "begin",
}

func (k IntentKind) String() string {
	if name, ok := intentNames[k]; ok {
		return name
	}
	return "unknown"
}

// Intent is one request from the input surface. Index is used by goto; Value is the seek
// fraction or the volume level.
type Intent struct {
	Kind  IntentKind
	Index int
	Value float64
}

func Next() Intent                 { return Intent{Kind: IntentNext} }
func Previous() Intent             { return Intent{Kind: IntentPrevious} }
func GoTo(index int) Intent        { return Intent{Kind: IntentGoTo, Index: index} }
func Toggle() Intent               { return Intent{Kind: IntentToggle} }
func Tap() Intent                  { return Intent{Kind: IntentTap} }
func Seek(fraction float64) Intent { return Intent{Kind: IntentSeek, Value: fraction} }
func Volume(level float64) Intent  { return Intent{Kind: IntentVolume, Value: level} }
func Mute() Intent                 { return Intent{Kind: IntentMute} }
func Unmute() Intent               { return Intent{Kind: IntentUnmute} }
func Begin() Intent                { return Intent{Kind: IntentBegin} }

// Dispatch applies an intent and reports whether it had an effect. Every intent counts as a
// user interaction. Until the title page is dismissed, only begin is accepted.
func (c *Controller) Dispatch(in Intent) bool {
	if in.Kind == IntentBegin {
		return c.Begin()
	}
	if !c.begun {
		c.logger.Debug("intent ignored before begin", "intent", in.Kind)
		return false
	}
	c.markInteraction()

	switch in.Kind {
	case IntentNext:
		return c.Next()
	case IntentPrevious:
		return c.Previous()
	case IntentGoTo:
		return c.GoTo(in.Index)
	case IntentToggle:
		return c.toggle()
	case IntentTap:
		if !c.tap.AllowN(c.sched.Now(), 1) {
			c.logger.Debug("tap ignored during cooldown")
			return false
		}
		return c.toggle()
	}

	if c.transport == nil {
		return false
	}
	switch in.Kind {
	case IntentSeek:
		return c.transport.Seek(in.Value)
	case IntentVolume:
		c.transport.SetVolume(in.Value)
		return true
	case IntentMute:
		c.transport.Mute()
		return true
	case IntentUnmute:
		c.transport.Unmute()
		return true
	}
	return false
}

func (c *Controller) toggle() bool {
	if c.transport == nil {
		return false
	}
	if c.beginTimer != nil {
		c.beginTimer.Stop()
		c.beginTimer = nil
	}

	switch o := c.transport.Toggle(); o {
	case audio.OutcomePaused:
		c.record(models.EventPause, c.current, "")
		return true
	case audio.OutcomeNoMedia:
		return false
	default:
		c.playOutcome(o)
		return o == audio.OutcomePlaying || o == audio.OutcomeWaiting
	}
}
