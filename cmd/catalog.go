package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/kiyi/internal/catalog"
	"github.com/desertthunder/kiyi/internal/formatter"
	"github.com/desertthunder/kiyi/internal/shared"
	"github.com/desertthunder/kiyi/internal/typewriter"
	"github.com/urfave/cli/v3"
)

type trackJSON struct {
	Index      int    `json:"index"`
	Title      string `json:"title"`
	Image      string `json:"image"`
	Audio      string `json:"audio,omitempty"`
	Paragraphs int    `json:"paragraphs"`
	Verses     int    `json:"verses"`
}

type timingJSON struct {
	Index      int     `json:"index"`
	Title      string  `json:"title"`
	Paragraphs []int64 `json:"paragraphs_ms"`
	Verses     []int64 `json:"verses_ms"`
	TotalMs    int64   `json:"total_ms"`
}

// CatalogList prints the tracks of the catalog.
func (r *Runner) CatalogList(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	c, err := r.loadCatalog(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		tracks := make([]trackJSON, 0, c.Len())
		for _, t := range c.Tracks() {
			tracks = append(tracks, trackJSON{
				Index:      t.Index,
				Title:      t.Title,
				Image:      t.Image,
				Audio:      t.Audio,
				Paragraphs: len(t.Content.Paragraphs),
				Verses:     len(t.Content.Verses),
			})
		}
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Catalog (%d tracks)", c.Len()))
	for _, t := range c.Tracks() {
		if err := r.writePlain("%s  %-28s  %d paragraphs, %d verses\n",
			shared.PadIndex(t.Index), t.Title, len(t.Content.Paragraphs), len(t.Content.Verses)); err != nil {
			return err
		}
	}
	return nil
}

// CatalogExport writes the catalog in the requested format.
func (r *Runner) CatalogExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	c, err := r.loadCatalog(cmd)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "-" {
		data, err := formatter.Export(c, format, r.timing())
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	path, err := formatter.WriteExport(c, format, r.timing(), output)
	if err != nil {
		return err
	}

	r.logger.Info("catalog exported", "format", format, "path", path)
	return r.writePlain("✓ Exported %d tracks to %s\n", c.Len(), path)
}

// CatalogImport converts a markdown lyrics file into the TOML catalog format.
func (r *Runner) CatalogImport(ctx context.Context, cmd *cli.Command) error {
	source := cmd.StringArg("markdown")
	if source == "" {
		return fmt.Errorf("%w: markdown file path", shared.ErrMissingArgument)
	}

	text, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("failed to read markdown: %w", err)
	}

	c, err := catalog.ParseMarkdown(string(text))
	if err != nil {
		return err
	}

	data, err := formatter.ExportToTOML(c)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	r.logger.Info("catalog imported", "source", source, "tracks", c.Len())
	return r.writePlain("✓ Imported %d tracks to %s\n", c.Len(), output)
}

// Timing prints when each paragraph and verse of a track starts typing.
func (r *Runner) Timing(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	c, err := r.loadCatalog(cmd)
	if err != nil {
		return err
	}

	tracks := c.Tracks()
	if only := int(cmd.Int("track")); only != 0 {
		t, err := c.Track(only)
		if err != nil {
			return err
		}
		tracks = tracks[t.Index-1 : t.Index]
	}

	timing := r.timing()
	if cmd.Bool("json") {
		plans := make([]timingJSON, 0, len(tracks))
		for _, t := range tracks {
			plan := typewriter.PlanContent(t.Content, timing)
			plans = append(plans, timingJSON{
				Index:      t.Index,
				Title:      t.Title,
				Paragraphs: millis(plan.Paragraphs),
				Verses:     millis(plan.Verses),
				TotalMs:    plan.Total.Milliseconds(),
			})
		}
		return r.writeJSON(plans, cmd.Bool("pretty"))
	}

	for _, t := range tracks {
		plan := typewriter.PlanContent(t.Content, timing)
		r.writePlainHeader(fmt.Sprintf("%s  %s", shared.PadIndex(t.Index), t.Title))
		for i, at := range plan.Paragraphs {
			r.writePlain("  ¶ %-2d at %-8s  %s\n", i+1, at.Round(time.Millisecond), preview(t.Content.Paragraphs[i]))
		}
		for i, at := range plan.Verses {
			r.writePlain("  ♪ %-2d at %-8s  %s\n", i+1, at.Round(time.Millisecond), preview(t.Content.Verses[i]))
		}
		if err := r.writePlain("  done at %s\n", shared.FormatTime(plan.Total)); err != nil {
			return err
		}
	}
	return nil
}

func millis(ds []time.Duration) []int64 {
	out := make([]int64, len(ds))
	for i, d := range ds {
		out[i] = d.Milliseconds()
	}
	return out
}

func preview(s string) string {
	const limit = 40
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
