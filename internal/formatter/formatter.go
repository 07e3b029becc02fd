// package formatter provides functions to export a track catalog to various formats (JSON, CSV, Markdown, TOML, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/kiyi/internal/catalog"
	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/shared"
	"github.com/desertthunder/kiyi/internal/typewriter"
)

// Format is an export format name.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatTOML     Format = "toml"
	FormatText     Format = "txt"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatTOML, FormatText}

// ParseFormat accepts a format name or a common alias ("md", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "toml":
		return FormatTOML, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, s)
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

type jsonTrack struct {
	Index      int      `json:"index"`
	Title      string   `json:"title"`
	Key        string   `json:"key,omitempty"`
	Image      string   `json:"image"`
	Audio      string   `json:"audio,omitempty"`
	Paragraphs []string `json:"paragraphs"`
	Verses     []string `json:"verses,omitempty"`
	RevealMs   int64    `json:"reveal_ms"`
}

// ExportToJSON converts a catalog to an indented JSON array. Each entry carries how long its
// text reveal takes under timing.
func ExportToJSON(c *models.Catalog, timing typewriter.Timing) ([]byte, error) {
	tracks := make([]jsonTrack, 0, c.Len())
	for _, t := range c.Tracks() {
		tracks = append(tracks, jsonTrack{
			Index:      t.Index,
			Title:      t.Title,
			Key:        t.Key,
			Image:      t.Image,
			Audio:      t.Audio,
			Paragraphs: t.Content.Paragraphs,
			Verses:     t.Content.Verses,
			RevealMs:   typewriter.PlanContent(t.Content, timing).Total.Milliseconds(),
		})
	}

	data, err := json.MarshalIndent(map[string]any{"tracks": tracks}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts a catalog to CSV with columns: Index, Title, Image, Audio, Paragraphs, Verses, Reveal
func ExportToCSV(c *models.Catalog, timing typewriter.Timing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Index", "Title", "Image", "Audio", "Paragraphs", "Verses", "Reveal"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, t := range c.Tracks() {
		record := []string{
			strconv.Itoa(t.Index),
			t.Title,
			t.Image,
			t.Audio,
			strconv.Itoa(len(t.Content.Paragraphs)),
			strconv.Itoa(len(t.Content.Verses)),
			shared.FormatTime(typewriter.PlanContent(t.Content, timing).Total),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown writes "# Title" sections that [catalog.ParseMarkdown] reads back.
// Empty verses are dropped.
func ExportToMarkdown(c *models.Catalog) ([]byte, error) {
	var buf bytes.Buffer

	for i, t := range c.Tracks() {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "# %s\n\n", t.Title)

		for _, p := range t.Content.Paragraphs {
			fmt.Fprintf(&buf, "%s\n\n", p)
		}
		for _, v := range t.Content.Verses {
			if strings.TrimSpace(v) != "" {
				fmt.Fprintf(&buf, "%s\n", v)
			}
		}
	}

	return buf.Bytes(), nil
}

// ExportToTOML writes the catalog file format.
func ExportToTOML(c *models.Catalog) ([]byte, error) {
	return catalog.Encode(c)
}

// ExportToText converts a catalog to a plain text listing.
func ExportToText(c *models.Catalog, timing typewriter.Timing) ([]byte, error) {
	var buf bytes.Buffer

	var total time.Duration
	for _, t := range c.Tracks() {
		total += typewriter.PlanContent(t.Content, timing).Total
	}

	fmt.Fprintf(&buf, "Tracks: %d\n", c.Len())
	fmt.Fprintf(&buf, "Reveal: %s\n\n", shared.FormatTime(total))

	for _, t := range c.Tracks() {
		fmt.Fprintf(&buf, "%s. %s (%d paragraphs, %d verses)\n",
			shared.PadIndex(t.Index), t.Title, len(t.Content.Paragraphs), len(t.Content.Verses))
	}

	return buf.Bytes(), nil
}

// Export renders c in format.
func Export(c *models.Catalog, format Format, timing typewriter.Timing) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportToJSON(c, timing)
	case FormatCSV:
		return ExportToCSV(c, timing)
	case FormatMarkdown:
		return ExportToMarkdown(c)
	case FormatTOML:
		return ExportToTOML(c)
	case FormatText:
		return ExportToText(c, timing)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, format)
	}
}

// WriteExport renders c and writes it to path.
//
// Defaults to catalog.{ext} as the filename.
func WriteExport(c *models.Catalog, format Format, timing typewriter.Timing, path string) (string, error) {
	if path == "" {
		path = "catalog." + format.Extension()
	}

	data, err := Export(c, format, timing)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}
