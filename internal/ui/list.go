package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/shared"
)

var (
	_ list.Item = trackItem{}
)

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }

func (i trackItem) Title() string {
	return fmt.Sprintf("%s  %s", shared.PadIndex(i.track.Index), i.track.Title)
}

func (i trackItem) Description() string {
	desc := fmt.Sprintf("%d paragraphs", len(i.track.Content.Paragraphs))
	if i.track.HasVerses() {
		desc = fmt.Sprintf("%s • %d verses", desc, len(i.track.Content.Verses))
	}
	return desc
}

func newTrackList(c *models.Catalog) list.Model {
	items := make([]list.Item, 0, c.Len())
	for _, t := range c.Tracks() {
		items = append(items, trackItem{track: t})
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Tracks"
	l.SetShowHelp(false)
	return l
}
