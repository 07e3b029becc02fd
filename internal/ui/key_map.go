package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	prev    key.Binding
	next    key.Binding
	jump    key.Binding
	toggle  key.Binding
	tap     key.Binding
	back    key.Binding
	forward key.Binding
	mute    key.Binding
	louder  key.Binding
	quieter key.Binding
	begin   key.Binding
	pick    key.Binding
	cancel  key.Binding
	help    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		prev:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous")),
		next:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		jump:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9", "0"), key.WithHelp("1-9/0", "go to")),
		toggle:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		tap:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tap")),
		back:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "back 10s")),
		forward: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "forward 10s")),
		mute:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		louder:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "louder")),
		quieter: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "quieter")),
		begin:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "begin")),
		pick:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "tracks")),
		cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.prev, k.next, k.toggle, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.prev, k.next, k.jump, k.pick},
		{k.toggle, k.tap, k.back, k.forward},
		{k.mute, k.louder, k.quieter},
		{k.help, k.quit},
	}
}
