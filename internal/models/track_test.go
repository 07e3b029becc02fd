package models

import (
	"errors"
	"testing"

	"github.com/desertthunder/kiyi/internal/shared"
)

func makeTracks(n int) []Track {
	tracks := make([]Track, n)
	for i := range tracks {
		tracks[i] = Track{Index: i + 1, Title: shared.PadIndex(i + 1)}
	}
	return tracks
}

func TestNewCatalog(t *testing.T) {
	t.Run("orders by index", func(t *testing.T) {
		tracks := []Track{{Index: 3, Title: "c"}, {Index: 1, Title: "a"}, {Index: 2, Title: "b"}}
		c, err := NewCatalog(tracks)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, want := range []string{"a", "b", "c"} {
			got, _ := c.Track(i + 1)
			if got.Title != want {
				t.Errorf("track %d: expected %q, got %q", i+1, want, got.Title)
			}
		}
	})

	tests := []struct {
		name   string
		tracks []Track
	}{
		{"empty", nil},
		{"gap", []Track{{Index: 1}, {Index: 3}}},
		{"duplicate", []Track{{Index: 1}, {Index: 1}}},
		{"zero index", []Track{{Index: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.tracks)
			if !errors.Is(err, shared.ErrInvalidCatalog) {
				t.Errorf("expected ErrInvalidCatalog, got %v", err)
			}
		})
	}

	t.Run("copies content", func(t *testing.T) {
		tracks := []Track{{Index: 1, Content: TrackContent{Verses: []string{"a", ""}}}}
		c, _ := NewCatalog(tracks)
		tracks[0].Content.Verses[0] = "changed"

		got, _ := c.Track(1)
		if got.Content.Verses[0] != "a" {
			t.Error("catalog should not share content with its input")
		}
		if len(got.Content.Verses) != 2 {
			t.Error("empty verses must be kept")
		}
	})

	t.Run("returned tracks do not alias the catalog", func(t *testing.T) {
		tracks := []Track{
			{Index: 1, Content: TrackContent{Paragraphs: []string{"first"}, Verses: []string{"v1"}}},
			{Index: 2, Content: TrackContent{Paragraphs: []string{"second"}}},
		}
		c, err := NewCatalog(tracks)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tr, _ := c.Track(1)
		tr.Content.Paragraphs[0] = "mutated"
		tr.Content.Verses[0] = "mutated"

		all := c.Tracks()
		all[1].Content.Paragraphs[0] = "mutated"

		one, _ := c.Track(1)
		if one.Content.Paragraphs[0] != "first" || one.Content.Verses[0] != "v1" {
			t.Errorf("Track leaked catalog content: %+v", one.Content)
		}
		two, _ := c.Track(2)
		if two.Content.Paragraphs[0] != "second" {
			t.Errorf("Tracks leaked catalog content: %+v", two.Content)
		}
	})
}

func TestCatalogNavigation(t *testing.T) {
	c, err := NewCatalog(makeTracks(11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("next wraps", func(t *testing.T) {
		if got := c.Next(11); got != 1 {
			t.Errorf("expected 1, got %d", got)
		}
		if got := c.Next(4); got != 5 {
			t.Errorf("expected 5, got %d", got)
		}
	})

	t.Run("previous wraps", func(t *testing.T) {
		if got := c.Previous(1); got != 11 {
			t.Errorf("expected 11, got %d", got)
		}
		if got := c.Previous(5); got != 4 {
			t.Errorf("expected 4, got %d", got)
		}
	})

	t.Run("N nexts return to start", func(t *testing.T) {
		for start := 1; start <= c.Len(); start++ {
			i := start
			for range c.Len() {
				i = c.Next(i)
			}
			if i != start {
				t.Errorf("start %d: ended at %d", start, i)
			}
		}
	})

	t.Run("track lookup", func(t *testing.T) {
		if !c.Has(11) || c.Has(0) || c.Has(12) {
			t.Error("Has bounds are wrong")
		}
		if _, err := c.Track(12); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("tracks returns a copy", func(t *testing.T) {
		tracks := c.Tracks()
		tracks[0].Title = "changed"
		got, _ := c.Track(1)
		if got.Title == "changed" {
			t.Error("Tracks should return a copy")
		}
	})
}

func TestSessionValidate(t *testing.T) {
	if err := (&Session{SessionID: "s", CatalogSize: 11}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&Session{CatalogSize: 11}).Validate(); err == nil {
		t.Error("expected error for missing id")
	}
	if err := (&SessionEvent{SessionID: "s"}).Validate(); err == nil {
		t.Error("expected error for missing kind")
	}
}
