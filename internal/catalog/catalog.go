package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/shared"
)

//go:embed catalog.toml
var embedded []byte

type fileTrack struct {
	Index      int      `toml:"index"`
	Title      string   `toml:"title"`
	Image      string   `toml:"image"`
	Key        string   `toml:"key"`
	Audio      string   `toml:"audio"`
	Paragraphs []string `toml:"paragraphs"`
	Verses     []string `toml:"verses"`
}

type file struct {
	Tracks []fileTrack `toml:"tracks"`
}

// Default returns the embedded album catalog.
func Default() *models.Catalog {
	c, err := Parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded catalog: %v", err))
	}
	return c
}

// Parse decodes a TOML catalog.
func Parse(data []byte) (*models.Catalog, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCatalog, err)
	}

	tracks := make([]models.Track, 0, len(f.Tracks))
	for _, ft := range f.Tracks {
		tracks = append(tracks, models.Track{
			Index: ft.Index,
			Title: ft.Title,
			Image: ft.Image,
			Key:   ft.Key,
			Audio: ft.Audio,
			Content: models.TrackContent{
				Paragraphs: ft.Paragraphs,
				Verses:     ft.Verses,
			},
		})
	}
	return models.NewCatalog(tracks)
}

// LoadFile reads a catalog from path. Files ending in .md are parsed as markdown.
func LoadFile(path string) (*models.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".md") {
		return ParseMarkdown(string(data))
	}
	return Parse(data)
}

// Load returns the catalog at path, or the embedded catalog when path is empty.
func Load(path string) (*models.Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Encode writes c in the TOML catalog format.
func Encode(c *models.Catalog) ([]byte, error) {
	var f file
	for _, t := range c.Tracks() {
		f.Tracks = append(f.Tracks, fileTrack{
			Index:      t.Index,
			Title:      t.Title,
			Image:      t.Image,
			Key:        t.Key,
			Audio:      t.Audio,
			Paragraphs: t.Content.Paragraphs,
			Verses:     t.Content.Verses,
		})
	}

	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(f); err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	return []byte(b.String()), nil
}
