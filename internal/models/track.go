package models

import (
	"fmt"
	"slices"

	"github.com/desertthunder/kiyi/internal/shared"
)

// TrackContent is the text revealed for a track. Empty verse lines are kept and still take a reveal slot.
type TrackContent struct {
	Paragraphs []string `toml:"paragraphs" json:"paragraphs"`
	Verses     []string `toml:"verses" json:"verses"`
}

// Track is one album entry. Tracks are immutable once the catalog is built.
type Track struct {
	Index   int          `toml:"index" json:"index"`
	Title   string       `toml:"title" json:"title"`
	Image   string       `toml:"image" json:"image"`
	Key     string       `toml:"key" json:"key"`
	Audio   string       `toml:"audio,omitempty" json:"audio,omitempty"`
	Content TrackContent `toml:"-" json:"content"`
}

// HasVerses reports whether the track has at least one verse slot.
func (t Track) HasVerses() bool {
	return len(t.Content.Verses) > 0
}

// Catalog is the ordered, 1-indexed, fixed-size collection of tracks.
type Catalog struct {
	tracks []Track
}

// NewCatalog validates that track indices are exactly 1..N (in any input order) and
// returns a catalog ordered by index.
func NewCatalog(tracks []Track) (*Catalog, error) {
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: catalog has no tracks", shared.ErrInvalidCatalog)
	}

	ordered := make([]Track, len(tracks))
	seen := make([]bool, len(tracks))
	for _, t := range tracks {
		if t.Index < 1 || t.Index > len(tracks) {
			return nil, fmt.Errorf("%w: track %q has index %d outside 1..%d", shared.ErrInvalidCatalog, t.Title, t.Index, len(tracks))
		}
		if seen[t.Index-1] {
			return nil, fmt.Errorf("%w: duplicate index %d", shared.ErrInvalidCatalog, t.Index)
		}
		seen[t.Index-1] = true
		ordered[t.Index-1] = t.clone()
	}
	return &Catalog{tracks: ordered}, nil
}

// Len returns N.
func (c *Catalog) Len() int {
	return len(c.tracks)
}

// Has reports whether 1 <= index <= N.
func (c *Catalog) Has(index int) bool {
	return index >= 1 && index <= len(c.tracks)
}

// Track returns the track at the 1-based index.
func (c *Catalog) Track(index int) (Track, error) {
	if !c.Has(index) {
		return Track{}, fmt.Errorf("%w: %d", shared.ErrTrackNotFound, index)
	}
	return c.tracks[index-1].clone(), nil
}

// Next returns the index after index, wrapping N to 1.
func (c *Catalog) Next(index int) int {
	if index >= len(c.tracks) {
		return 1
	}
	return index + 1
}

// Previous returns the index before index, wrapping 1 to N.
func (c *Catalog) Previous(index int) int {
	if index <= 1 {
		return len(c.tracks)
	}
	return index - 1
}

// Tracks returns a copy of the ordered tracks.
func (c *Catalog) Tracks() []Track {
	out := make([]Track, len(c.tracks))
	for i, t := range c.tracks {
		out[i] = t.clone()
	}
	return out
}

// clone copies t with its own content slices.
func (t Track) clone() Track {
	t.Content = TrackContent{
		Paragraphs: slices.Clone(t.Content.Paragraphs),
		Verses:     slices.Clone(t.Content.Verses),
	}
	return t
}

// PlaybackState is a read-only snapshot of the player.
type PlaybackState struct {
	CurrentIndex      int
	IsTransitioning   bool
	IsPlaying         bool
	HasUserInteracted bool
	Volume            float64
	Muted             bool
}
