package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/shared"
)

func TestParseManifest(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m, err := ParseManifest([]byte(`{"tracks": {"1": "a.mp3", "3": "c.mp3", "2": ""}}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Len() != 2 {
			t.Errorf("expected empty references dropped, got %d entries", m.Len())
		}
		if got := m.Indices(); !slices.Equal(got, []int{1, 3}) {
			t.Errorf("expected [1 3], got %v", got)
		}
		if ref, ok := m.URL(3); !ok || ref != "c.mp3" {
			t.Errorf("unexpected URL(3) = %q, %v", ref, ok)
		}
		if _, ok := m.URL(2); ok {
			t.Error("expected no entry for 2")
		}
	})

	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{"tracks": `},
		{"non numeric key", `{"tracks": {"one": "a.mp3"}}`},
		{"zero key", `{"tracks": {"0": "a.mp3"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(tt.data)); !errors.Is(err, shared.ErrManifestUnavailable) {
				t.Errorf("expected ErrManifestUnavailable, got %v", err)
			}
		})
	}

	t.Run("nil manifest", func(t *testing.T) {
		var m *Manifest
		if m.Len() != 0 || m.Indices() != nil {
			t.Error("nil manifest should be empty")
		}
		if _, ok := m.URL(1); ok {
			t.Error("nil manifest should have no entries")
		}
	})
}

func TestManifestFill(t *testing.T) {
	m := NewManifest(map[int]string{1: "remote.mp3"})
	m.Fill([]models.Track{
		{Index: 1, Audio: "local1.m4a"},
		{Index: 2, Audio: "local2.m4a"},
		{Index: 3},
	})

	if ref, _ := m.URL(1); ref != "remote.mp3" {
		t.Errorf("existing entry should win, got %q", ref)
	}
	if ref, _ := m.URL(2); ref != "local2.m4a" {
		t.Errorf("expected catalog audio for 2, got %q", ref)
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", m.Len())
	}
}

func TestManifestMarshal(t *testing.T) {
	m := NewManifest(map[int]string{4: "d.mp3"})
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	back, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref, _ := back.URL(4); ref != "d.mp3" {
		t.Errorf("expected d.mp3, got %q", ref)
	}
}

func TestManifestService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/links.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"tracks": {"1": "01.mp3", "2": "02.mp3"}}`))
		case "/broken.json":
			w.Write([]byte(`not json`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	var buf bytes.Buffer
	svc := NewManifestService(NewAPIService(server.URL, nil), shared.NewLogger(&buf))

	t.Run("loads", func(t *testing.T) {
		m := svc.Load(context.Background(), "links.json")
		if m.Len() != 2 {
			t.Errorf("expected 2 entries, got %d", m.Len())
		}
	})

	t.Run("unreachable yields empty", func(t *testing.T) {
		buf.Reset()
		m := svc.Load(context.Background(), "missing.json")
		if m.Len() != 0 {
			t.Errorf("expected empty manifest, got %d", m.Len())
		}
		if !strings.Contains(buf.String(), "manifest unavailable") {
			t.Errorf("expected warning to be logged, got %q", buf.String())
		}
	})

	t.Run("malformed yields empty", func(t *testing.T) {
		buf.Reset()
		m := svc.Load(context.Background(), "broken.json")
		if m.Len() != 0 {
			t.Errorf("expected empty manifest, got %d", m.Len())
		}
		if !strings.Contains(buf.String(), "manifest malformed") {
			t.Errorf("expected warning to be logged, got %q", buf.String())
		}
	})

	t.Run("empty reference", func(t *testing.T) {
		fetched := false
		svc := NewManifestService(FetcherFunc(func(context.Context, string) ([]byte, error) {
			fetched = true
			return nil, nil
		}), shared.NewLogger(&buf))

		if m := svc.Load(context.Background(), ""); m.Len() != 0 {
			t.Error("expected empty manifest")
		}
		if fetched {
			t.Error("should not fetch an empty reference")
		}
	})
}
