package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/kiyi/internal/player"
	"github.com/desertthunder/kiyi/internal/typewriter"
)

var _ player.Surface = (*Surface)(nil)

// Sender delivers an intent to the player loop.
type Sender func(player.Intent)

// Surface forwards display instructions to a running program as messages.
// It is used from the player loop only.
type Surface struct {
	send  func(tea.Msg)
	mount int
}

// NewSurface creates a surface that delivers messages through send, usually (*tea.Program).Send.
func NewSurface(send func(tea.Msg)) *Surface {
	return &Surface{send: send}
}

func (s *Surface) SetImage(path string) {
	s.send(imageMsg(path))
}

func (s *Surface) SetTitle(index, total int, title string) {
	s.send(titleMsg(index, total, title))
}

func (s *Surface) SetActiveDot(index int) {
	s.send(dotMsg(index))
}

// MountText starts a new text generation. Targets from earlier mounts keep sending, but the
// model drops their messages.
func (s *Surface) MountText(paragraphs, verses int) typewriter.Mount {
	s.mount++
	gen := s.mount
	s.send(mountMsg(gen, paragraphs, verses))

	var m typewriter.Mount
	for i := range paragraphs {
		m.Paragraphs = append(m.Paragraphs, &textTarget{send: s.send, gen: gen, slot: i})
	}
	for i := range verses {
		m.Verses = append(m.Verses, &textTarget{send: s.send, gen: gen, slot: i, verse: true})
	}
	return m
}

func (s *Surface) ShowPlaying(playing bool) {
	s.send(playingMsg(playing))
}

func (s *Surface) ShowProgress(position, duration time.Duration, known bool) {
	s.send(progressMsg(position, duration, known))
}

func (s *Surface) ShowVolume(volume float64, muted bool) {
	s.send(volumeMsg(volume, muted))
}

// textTarget is one paragraph or verse slot.
type textTarget struct {
	send  func(tea.Msg)
	gen   int
	slot  int
	verse bool
}

func (t *textTarget) Clear() {
	t.send(textMsg(textData{gen: t.gen, verse: t.verse, slot: t.slot, clear: true}))
}

func (t *textTarget) Append(r rune) {
	t.send(textMsg(textData{gen: t.gen, verse: t.verse, slot: t.slot, r: r}))
}
