package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/player"
	"github.com/desertthunder/kiyi/internal/shared"
	"github.com/desertthunder/kiyi/internal/tasks"
)

const (
	seekStep   = 10 * time.Second
	volumeStep = 0.1
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PreloadView ViewState = iota
	TitleView
	PlayerView
)

// Model represents the TUI application state.
type Model struct {
	view    ViewState
	catalog *models.Catalog
	send    Sender
	width   int
	height  int

	spinner    spinner.Model
	preload    tasks.ProgressUpdate
	preloadLog []string

	image      string
	title      titleData
	dot        int
	mount      int
	paragraphs [][]rune
	verses     [][]rune
	playing    bool
	progress   progressData
	volume     volumeData

	picker  list.Model
	picking bool
	help    help.Model
	keys    keyMap
}

// NewModel creates a TUI model. With preload set it starts on the preload view and waits for
// [ReadyMsg]; otherwise it starts on the title page.
func NewModel(c *models.Catalog, send Sender, preload bool) *Model {
	view := TitleView
	if preload {
		view = PreloadView
	}
	if send == nil {
		send = func(player.Intent) {}
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.active

	return &Model{
		view:    view,
		catalog: c,
		send:    send,
		spinner: s,
		picker:  newTrackList(c),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the spinner while preloading.
func (m *Model) Init() tea.Cmd {
	if m.view == PreloadView {
		return m.spinner.Tick
	}
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.picker.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case spinner.TickMsg:
		if m.view != PreloadView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		m.apply(msg)
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PreloadView:
		return styles.frame.Render(m.renderPreload())
	case TitleView:
		return styles.frame.Render(m.renderTitle())
	case PlayerView:
		if m.picking {
			return styles.frame.Render(m.picker.View())
		}
		return styles.frame.Render(m.renderPlayer())
	default:
		return ""
	}
}

// State returns the current view.
func (m *Model) State() ViewState {
	return m.view
}

func (m *Model) apply(msg Msg) {
	switch msg.kind {
	case MsgPreloadProgress:
		update := msg.data.(tasks.ProgressUpdate)
		m.preload = update
		if update.Phase == tasks.PreloadItem {
			m.preloadLog = append(m.preloadLog, update.Message)
		}
	case MsgReady:
		if m.view == PreloadView {
			m.view = TitleView
		}
	case MsgImage:
		m.image = msg.data.(string)
	case MsgTitle:
		m.title = msg.data.(titleData)
	case MsgDot:
		m.dot = msg.data.(int)
	case MsgMount:
		d := msg.data.(mountData)
		m.mount = d.gen
		m.paragraphs = make([][]rune, d.paragraphs)
		m.verses = make([][]rune, d.verses)
	case MsgText:
		m.applyText(msg.data.(textData))
	case MsgPlaying:
		m.playing = msg.data.(bool)
	case MsgProgress:
		m.progress = msg.data.(progressData)
	case MsgVolume:
		m.volume = msg.data.(volumeData)
	}
}

func (m *Model) applyText(t textData) {
	if t.gen != m.mount {
		return
	}
	slots := m.paragraphs
	if t.verse {
		slots = m.verses
	}
	if t.slot < 0 || t.slot >= len(slots) {
		return
	}
	if t.clear {
		slots[t.slot] = slots[t.slot][:0]
		return
	}
	slots[t.slot] = append(slots[t.slot], t.r)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) && !(m.picking && m.picker.FilterState() == list.Filtering) {
		return m, tea.Quit
	}

	switch m.view {
	case TitleView:
		if key.Matches(msg, m.keys.begin) {
			m.send(player.Begin())
			m.view = PlayerView
		}
		return m, nil
	case PlayerView:
		if m.picking {
			return m.handlePickerKeys(msg)
		}
		return m.handlePlayerKeys(msg)
	}
	return m, nil
}

func (m *Model) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.cancel):
			m.picking = false
			return m, nil
		case key.Matches(msg, m.keys.begin):
			if item, ok := m.picker.SelectedItem().(trackItem); ok {
				m.send(player.GoTo(item.track.Index))
			}
			m.picking = false
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m *Model) handlePlayerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.prev):
		m.send(player.Previous())
	case key.Matches(msg, m.keys.next):
		m.send(player.Next())
	case key.Matches(msg, m.keys.jump):
		index := int(msg.String()[0] - '0')
		if index == 0 {
			index = 10
		}
		m.send(player.GoTo(index))
	case key.Matches(msg, m.keys.toggle):
		m.send(player.Toggle())
	case key.Matches(msg, m.keys.tap):
		m.send(player.Tap())
	case key.Matches(msg, m.keys.back):
		m.seekBy(-seekStep)
	case key.Matches(msg, m.keys.forward):
		m.seekBy(seekStep)
	case key.Matches(msg, m.keys.mute):
		if m.volume.muted || m.volume.level == 0 {
			m.send(player.Unmute())
		} else {
			m.send(player.Mute())
		}
	case key.Matches(msg, m.keys.louder):
		m.send(player.Volume(min(1, m.volume.level+volumeStep)))
	case key.Matches(msg, m.keys.quieter):
		m.send(player.Volume(max(0, m.volume.level-volumeStep)))
	case key.Matches(msg, m.keys.pick):
		m.picking = true
		m.picker.Select(max(0, m.title.index-1))
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// seekBy converts a relative jump into the fraction the player expects. Without a known
// duration it does nothing.
func (m *Model) seekBy(d time.Duration) {
	p := m.progress
	if !p.known || p.duration <= 0 {
		return
	}
	target := min(max(p.position+d, 0), p.duration)
	m.send(player.Seek(float64(target) / float64(p.duration)))
}

func (m *Model) renderPreload() string {
	title := styles.title.Render("kıyı")

	status := m.preload.Message
	if status == "" {
		status = "Preparing recordings..."
	}
	line := fmt.Sprintf("%s %s", m.spinner.View(), status)

	var b strings.Builder
	for _, entry := range m.preloadLog {
		style := styles.ok
		if strings.Contains(entry, tasks.OutcomeFailed.String()) || strings.Contains(entry, tasks.OutcomeTimedOut.String()) {
			style = styles.warn
		}
		b.WriteString("\n  " + style.Render(entry))
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, line, b.String(), m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderTitle() string {
	title := styles.title.Render("kıyı")
	info := fmt.Sprintf("%d tracks", m.catalog.Len())
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.begin, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

func (m *Model) renderPlayer() string {
	var b strings.Builder

	if m.title.index > 0 {
		counter := fmt.Sprintf("%s / %s", shared.PadIndex(m.title.index), shared.PadIndex(m.title.total))
		b.WriteString(styles.title.Render(fmt.Sprintf("%s  %s", counter, m.title.title)))
		b.WriteString("\n")
	}
	if m.image != "" {
		b.WriteString(styles.help.Render("▣ " + m.image))
		b.WriteString("\n\n")
	}

	width := max(20, m.width-8)
	para := lipgloss.NewStyle().Width(width)
	for _, p := range m.paragraphs {
		if len(p) == 0 {
			continue
		}
		b.WriteString(para.Render(string(p)))
		b.WriteString("\n\n")
	}
	for _, v := range m.verses {
		b.WriteString(styles.verse.Render(string(v)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderDots())
	b.WriteString("\n")
	b.WriteString(m.renderTransport())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderDots() string {
	dots := make([]string, 0, m.catalog.Len())
	for i := 1; i <= m.catalog.Len(); i++ {
		if i == m.dot {
			dots = append(dots, styles.active.Render("●"))
			continue
		}
		dots = append(dots, styles.dot.Render("○"))
	}
	return strings.Join(dots, " ")
}

func (m *Model) renderTransport() string {
	icon := "▶"
	if m.playing {
		icon = "❚❚"
	}

	position := shared.FormatTime(m.progress.position)
	if !m.progress.known {
		position = shared.FormatDuration(0, false)
	}
	timeline := fmt.Sprintf("%s / %s", position, shared.FormatDuration(m.progress.duration, m.progress.known))

	vol := fmt.Sprintf("vol %d%%", int(m.volume.level*100+0.5))
	if m.volume.muted {
		vol = styles.warn.Render("muted")
	}
	return fmt.Sprintf("%s  %s  %s", icon, timeline, vol)
}
