package ui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/player"
	"github.com/desertthunder/kiyi/internal/tasks"
)

type recordingSender struct {
	intents []player.Intent
}

func (r *recordingSender) send(in player.Intent) {
	r.intents = append(r.intents, in)
}

func (r *recordingSender) last() player.Intent {
	if len(r.intents) == 0 {
		return player.Intent{Kind: -1}
	}
	return r.intents[len(r.intents)-1]
}

func testCatalog(t *testing.T) *models.Catalog {
	t.Helper()
	tracks := make([]models.Track, 11)
	for i := range tracks {
		tracks[i] = models.Track{Index: i + 1, Title: fmt.Sprintf("Track %d", i+1)}
	}
	c, err := models.NewCatalog(tracks)
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	return c
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newPlayerModel(t *testing.T) (*Model, *recordingSender) {
	t.Helper()
	rec := &recordingSender{}
	m := NewModel(testCatalog(t), rec.send, false)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rec.intents = nil
	return m, rec
}

func TestModelViews(t *testing.T) {
	t.Run("preload then title then player", func(t *testing.T) {
		rec := &recordingSender{}
		m := NewModel(testCatalog(t), rec.send, true)

		if m.State() != PreloadView || m.Init() == nil {
			t.Fatal("expected preload view with spinner")
		}

		m.Update(PreloadProgressMsg(tasks.ProgressUpdate{Phase: tasks.PreloadItem, Message: "Track 04 failed (36%)"}))
		if !strings.Contains(m.View(), "Track 04 failed") {
			t.Errorf("preload view should list items, got:\n%s", m.View())
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if len(rec.intents) != 0 {
			t.Error("keys during preload should not reach the player")
		}

		m.Update(ReadyMsg())
		if m.State() != TitleView {
			t.Fatalf("expected title view, got %v", m.State())
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.State() != PlayerView || rec.last().Kind != player.IntentBegin {
			t.Errorf("enter should begin, got %v %+v", m.State(), rec.intents)
		}
	})

	t.Run("quit", func(t *testing.T) {
		m, _ := newPlayerModel(t)
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestModelKeys(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want player.Intent
	}{
		{"right", tea.KeyMsg{Type: tea.KeyRight}, player.Next()},
		{"left", tea.KeyMsg{Type: tea.KeyLeft}, player.Previous()},
		{"digit", runes("3"), player.GoTo(3)},
		{"zero is ten", runes("0"), player.GoTo(10)},
		{"space", tea.KeyMsg{Type: tea.KeySpace}, player.Toggle()},
		{"tap", runes("t"), player.Tap()},
		{"mute", runes("m"), player.Mute()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, rec := newPlayerModel(t)
			m.Update(volumeMsg(0.5, false))
			m.Update(tt.msg)
			if got := rec.last(); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}

	t.Run("volume steps", func(t *testing.T) {
		m, rec := newPlayerModel(t)
		m.Update(volumeMsg(0.95, false))

		m.Update(runes("+"))
		if got := rec.last(); got.Kind != player.IntentVolume || got.Value != 1 {
			t.Errorf("expected clamp to 1, got %+v", got)
		}

		m.Update(volumeMsg(0.5, false))
		m.Update(runes("-"))
		if got := rec.last(); got.Kind != player.IntentVolume || got.Value < 0.39 || got.Value > 0.41 {
			t.Errorf("expected 0.4, got %+v", got)
		}
	})

	t.Run("unmute when muted", func(t *testing.T) {
		m, rec := newPlayerModel(t)
		m.Update(volumeMsg(0.5, true))
		m.Update(runes("m"))
		if rec.last().Kind != player.IntentUnmute {
			t.Errorf("expected unmute, got %+v", rec.last())
		}
	})

	t.Run("seek needs a known duration", func(t *testing.T) {
		m, rec := newPlayerModel(t)

		m.Update(runes("]"))
		if len(rec.intents) != 0 {
			t.Fatalf("seek without duration should not be sent, got %+v", rec.intents)
		}

		m.Update(progressMsg(30*time.Second, 100*time.Second, true))
		m.Update(runes("]"))
		if got := rec.last(); got.Kind != player.IntentSeek || got.Value != 0.4 {
			t.Errorf("expected seek to 0.4, got %+v", got)
		}

		m.Update(progressMsg(5*time.Second, 100*time.Second, true))
		m.Update(runes("["))
		if got := rec.last(); got.Value != 0 {
			t.Errorf("expected seek clamped to 0, got %+v", got)
		}
	})

	t.Run("track picker", func(t *testing.T) {
		m, rec := newPlayerModel(t)
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
		m.Update(titleMsg(4, 11, "Track 4"))

		m.Update(runes("g"))
		if !strings.Contains(m.View(), "Tracks") {
			t.Errorf("expected picker view, got:\n%s", m.View())
		}
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		if got := rec.last(); got != player.GoTo(5) {
			t.Errorf("expected goto 5, got %+v", got)
		}
		if m.picking {
			t.Error("picker should close after selection")
		}
	})
}

func TestSurface(t *testing.T) {
	t.Run("renders display instructions", func(t *testing.T) {
		m, _ := newPlayerModel(t)
		s := NewSurface(func(msg tea.Msg) { m.Update(msg) })

		s.SetImage("assets/img/02.jpg")
		s.SetTitle(2, 11, "Liman")
		s.SetActiveDot(2)
		mount := s.MountText(1, 2)
		for _, r := range "Kıyı." {
			mount.Paragraphs[0].Append(r)
		}
		mount.Verses[1].Append('x')
		s.ShowProgress(0, 0, false)
		s.ShowVolume(0.5, false)

		view := m.View()
		for _, want := range []string{"02 / 11  Liman", "assets/img/02.jpg", "Kıyı.", "--:-- / --:--", "vol 50%"} {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("stale targets are dropped", func(t *testing.T) {
		m, _ := newPlayerModel(t)
		s := NewSurface(func(msg tea.Msg) { m.Update(msg) })

		old := s.MountText(1, 0)
		old.Paragraphs[0].Append('a')
		current := s.MountText(1, 0)
		old.Paragraphs[0].Append('b')
		current.Paragraphs[0].Append('c')

		if got := string(m.paragraphs[0]); got != "c" {
			t.Errorf("expected only the current mount's text, got %q", got)
		}

		current.Paragraphs[0].Clear()
		if len(m.paragraphs[0]) != 0 {
			t.Error("clear should empty the slot")
		}
	})

	t.Run("transport line", func(t *testing.T) {
		m, _ := newPlayerModel(t)
		s := NewSurface(func(msg tea.Msg) { m.Update(msg) })

		s.ShowPlaying(true)
		s.ShowProgress(42*time.Second, 190*time.Second, true)
		s.ShowVolume(0.7, true)

		view := m.View()
		if !strings.Contains(view, "0:42 / 3:10") || !strings.Contains(view, "muted") {
			t.Errorf("unexpected transport line:\n%s", view)
		}
	})
}

func TestTrackList(t *testing.T) {
	c, err := models.NewCatalog([]models.Track{
		{Index: 1, Title: "Opening", Content: models.TrackContent{Paragraphs: []string{"a", "b"}}},
		{Index: 2, Title: "Refrain", Content: models.TrackContent{Paragraphs: []string{"c"}, Verses: []string{"v"}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l := newTrackList(c)
	items := l.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	tests := []struct {
		item  trackItem
		title string
		desc  string
	}{
		{items[0].(trackItem), "01  Opening", "2 paragraphs"},
		{items[1].(trackItem), "02  Refrain", "1 paragraphs • 1 verses"},
	}
	for _, tt := range tests {
		if got := tt.item.Title(); got != tt.title {
			t.Errorf("expected title %q, got %q", tt.title, got)
		}
		if got := tt.item.Description(); got != tt.desc {
			t.Errorf("expected description %q, got %q", tt.desc, got)
		}
		if got := tt.item.FilterValue(); got != tt.item.track.Title {
			t.Errorf("expected filter value %q, got %q", tt.item.track.Title, got)
		}
	}
}
