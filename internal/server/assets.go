package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/kiyi/internal/formatter"
	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/services"
	"github.com/desertthunder/kiyi/internal/typewriter"
)

// BuildManifest maps each track whose recording exists under dir to a reference.
//
// With a base URL the reference is baseURL plus the escaped asset path; otherwise it is the
// file path.
func BuildManifest(c *models.Catalog, dir, baseURL string) *services.Manifest {
	tracks := make(map[int]string)
	for _, t := range c.Tracks() {
		if t.Audio == "" {
			continue
		}
		path := filepath.Join(dir, filepath.FromSlash(t.Audio))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		if baseURL == "" {
			tracks[t.Index] = path
			continue
		}
		tracks[t.Index] = strings.TrimSuffix(baseURL, "/") + "/" + escapePath(t.Audio)
	}
	return services.NewManifest(tracks)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// ManifestHandler serves the audio manifest, rebuilt on every request.
type ManifestHandler struct {
	catalog *models.Catalog
	dir     string
	baseURL string
}

// NewManifestHandler creates a handler. An empty baseURL uses the request's host.
func NewManifestHandler(c *models.Catalog, dir, baseURL string) *ManifestHandler {
	return &ManifestHandler{catalog: c, dir: dir, baseURL: baseURL}
}

func (h *ManifestHandler) Routes() []string {
	return []string{"/manifest.json"}
}

func (h *ManifestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	base := h.baseURL
	if base == "" {
		base = "http://" + r.Host
	}
	writeJSON(w, BuildManifest(h.catalog, h.dir, base))
}

// CatalogHandler serves the catalog as JSON.
type CatalogHandler struct {
	catalog *models.Catalog
	timing  typewriter.Timing
}

// NewCatalogHandler creates a handler.
func NewCatalogHandler(c *models.Catalog, timing typewriter.Timing) *CatalogHandler {
	return &CatalogHandler{catalog: c, timing: timing}
}

func (h *CatalogHandler) Routes() []string {
	return []string{"/catalog.json"}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, err := formatter.ExportToJSON(h.catalog, h.timing)
	if err != nil {
		http.Error(w, "failed to encode catalog", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// AssetOptions configures [NewAssetRouter].
type AssetOptions struct {
	Catalog *models.Catalog
	Dir     string
	BaseURL string
	Timing  typewriter.Timing
	Logger  *log.Logger
}

// NewAssetRouter wires the asset routes listed in the package documentation.
func NewAssetRouter(opts AssetOptions) *BasicRouter {
	r := NewBasicRouter()
	if opts.Logger != nil {
		r.Use(Logging(opts.Logger))
	}
	r.Use(CORS)

	r.Handle("/manifest.json", NewManifestHandler(opts.Catalog, opts.Dir, opts.BaseURL), http.MethodGet)
	r.Handle("/catalog.json", NewCatalogHandler(opts.Catalog, opts.Timing), http.MethodGet)
	r.Handle("/assets/", http.FileServer(http.Dir(opts.Dir)), http.MethodGet)
	r.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"ok": true, "tracks": opts.Catalog.Len()})
	}), http.MethodGet)

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
