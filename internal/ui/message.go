package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/kiyi/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgImage MsgKind = iota
	MsgTitle
	MsgDot
	MsgMount
	MsgText
	MsgPlaying
	MsgProgress
	MsgVolume
	MsgPreloadProgress
	MsgReady
)

type titleData struct {
	index, total int
	title        string
}

type mountData struct {
	gen                int
	paragraphs, verses int
}

type textData struct {
	gen   int
	verse bool
	slot  int
	clear bool
	r     rune
}

type progressData struct {
	position, duration time.Duration
	known              bool
}

type volumeData struct {
	level float64
	muted bool
}

// imageMsg is the constructor for [MsgImage]
func imageMsg(path string) Msg { return Msg{kind: MsgImage, data: path} }

// titleMsg is the constructor for [MsgTitle]
func titleMsg(index, total int, title string) Msg {
	return Msg{kind: MsgTitle, data: titleData{index, total, title}}
}

// dotMsg is the constructor for [MsgDot]
func dotMsg(index int) Msg { return Msg{kind: MsgDot, data: index} }

// mountMsg is the constructor for [MsgMount]
func mountMsg(gen, paragraphs, verses int) Msg {
	return Msg{kind: MsgMount, data: mountData{gen, paragraphs, verses}}
}

// textMsg is the constructor for [MsgText]
func textMsg(t textData) Msg { return Msg{kind: MsgText, data: t} }

// playingMsg is the constructor for [MsgPlaying]
func playingMsg(playing bool) Msg { return Msg{kind: MsgPlaying, data: playing} }

// progressMsg is the constructor for [MsgProgress]
func progressMsg(position, duration time.Duration, known bool) Msg {
	return Msg{kind: MsgProgress, data: progressData{position, duration, known}}
}

// volumeMsg is the constructor for [MsgVolume]
func volumeMsg(level float64, muted bool) Msg {
	return Msg{kind: MsgVolume, data: volumeData{level, muted}}
}

// PreloadProgressMsg wraps a preload update for the running program.
func PreloadProgressMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgPreloadProgress, data: update}
}

// ReadyMsg tells the model the player loop has started.
func ReadyMsg() Msg { return Msg{kind: MsgReady} }
