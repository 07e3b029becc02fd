package services

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/shared"
)

// Manifest maps track index to an audio reference.
type Manifest struct {
	tracks map[int]string
}

type manifestFile struct {
	Tracks map[string]string `json:"tracks"`
}

// NewManifest builds a manifest from a map. Empty references are dropped.
func NewManifest(tracks map[int]string) *Manifest {
	m := &Manifest{tracks: make(map[int]string, len(tracks))}
	for i, ref := range tracks {
		if ref != "" {
			m.tracks[i] = ref
		}
	}
	return m
}

// ParseManifest decodes {"tracks": {"1": "url"}}. Keys must be positive integers.
func ParseManifest(data []byte) (*Manifest, error) {
	var f manifestFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrManifestUnavailable, err)
	}

	tracks := make(map[int]string, len(f.Tracks))
	for key, ref := range f.Tracks {
		i, err := strconv.Atoi(key)
		if err != nil || i < 1 {
			return nil, fmt.Errorf("%w: invalid track key %q", shared.ErrManifestUnavailable, key)
		}
		tracks[i] = ref
	}
	return NewManifest(tracks), nil
}

// URL returns the audio reference for index.
func (m *Manifest) URL(index int) (string, bool) {
	if m == nil {
		return "", false
	}
	ref, ok := m.tracks[index]
	return ref, ok
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.tracks)
}

// Indices returns the indices with an entry, ascending.
func (m *Manifest) Indices() []int {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.tracks))
}

// Fill adds the catalog's own audio reference for tracks without a manifest entry.
func (m *Manifest) Fill(tracks []models.Track) {
	for _, t := range tracks {
		if _, ok := m.tracks[t.Index]; !ok && t.Audio != "" {
			m.tracks[t.Index] = t.Audio
		}
	}
}

// MarshalJSON writes the manifest in its file format.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	f := manifestFile{Tracks: make(map[string]string, m.Len())}
	for _, i := range m.Indices() {
		ref, _ := m.URL(i)
		f.Tracks[strconv.Itoa(i)] = ref
	}
	return json.Marshal(f)
}

// ManifestService loads the audio manifest.
type ManifestService struct {
	fetcher Fetcher
	logger  *log.Logger
}

// NewManifestService creates a service reading through fetcher.
func NewManifestService(fetcher Fetcher, logger *log.Logger) *ManifestService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ManifestService{fetcher: fetcher, logger: logger}
}

// Load fetches and parses the manifest at ref. Any failure is logged and yields an empty manifest.
func (s *ManifestService) Load(ctx context.Context, ref string) *Manifest {
	if ref == "" {
		s.logger.Debug("no manifest configured")
		return NewManifest(nil)
	}

	data, err := s.fetcher.Fetch(ctx, ref)
	if err != nil {
		s.logger.Warn("manifest unavailable, continuing without audio", "ref", ref, "error", err)
		return NewManifest(nil)
	}

	m, err := ParseManifest(data)
	if err != nil {
		s.logger.Warn("manifest malformed, continuing without audio", "ref", ref, "error", err)
		return NewManifest(nil)
	}

	s.logger.Info("manifest loaded", "ref", ref, "tracks", m.Len())
	return m
}
