package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/kiyi/internal/audio"
	"github.com/desertthunder/kiyi/internal/shared"
	"github.com/desertthunder/kiyi/internal/tasks"
	"github.com/urfave/cli/v3"
)

type preloadItemJSON struct {
	Index     int    `json:"index"`
	Ref       string `json:"ref"`
	Outcome   string `json:"outcome"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

type preloadReportJSON struct {
	Total     int               `json:"total"`
	Loaded    int               `json:"loaded"`
	Failed    int               `json:"failed"`
	TimedOut  int               `json:"timed_out"`
	ElapsedMs int64             `json:"elapsed_ms"`
	Items     []preloadItemJSON `json:"items"`
}

// Preload loads every recording in the manifest and reports how each one went.
func (r *Runner) Preload(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	c, err := r.loadCatalog(cmd)
	if err != nil {
		return err
	}

	loader, closeBackend := r.newLoader()
	defer closeBackend()
	if loader == nil {
		return fmt.Errorf("%w: audio backend is disabled", shared.ErrServiceUnavailable)
	}

	ref := r.manifestRef(cmd)
	manifest := r.loadManifest(ctx, ref, c)

	library := audio.NewLibrary()
	defer library.Close()

	preloader := tasks.NewPreloader(loader, library, r.logger)
	preloader.OnProgress(func(loaded, total, percent int) {
		r.logger.Infof("preloaded %d/%d (%d%%)", loaded, total, percent)
	})

	opts := tasks.PreloadOpts{
		Timeout: shared.Millis(r.config.Audio.PreloadTimeoutMs),
		Rate:    r.config.Audio.PreloadRate,
	}
	if d := cmd.Duration("timeout"); d > 0 {
		opts.Timeout = d
	}

	journal, session, closeJournal := r.openJournal(c, ref)
	defer closeJournal()
	if journal != nil {
		preloader.WithRecorder(journal)
		opts.SessionID = session.SessionID
	}

	result, err := preloader.PreloadAll(ctx, c, manifest, nil, opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("preload failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(preloadReport(result), cmd.Bool("pretty"))
	}
	return r.writePreloadResult(result)
}

func preloadReport(result *tasks.PreloadResult) preloadReportJSON {
	report := preloadReportJSON{
		Total:     result.Total,
		Loaded:    result.Loaded,
		Failed:    result.Failed,
		TimedOut:  result.TimedOut,
		ElapsedMs: result.Elapsed.Milliseconds(),
		Items:     make([]preloadItemJSON, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		entry := preloadItemJSON{
			Index:     item.Index,
			Ref:       item.Ref,
			Outcome:   item.Outcome.String(),
			ElapsedMs: item.Elapsed.Milliseconds(),
		}
		if item.Err != nil {
			entry.Error = item.Err.Error()
		}
		report.Items = append(report.Items, entry)
	}
	return report
}

func (r *Runner) writePreloadResult(result *tasks.PreloadResult) error {
	r.writePlainHeader("Preload")
	for _, item := range result.Items {
		line := fmt.Sprintf("%s  %-9s  %6s  %s", shared.PadIndex(item.Index), item.Outcome, item.Elapsed.Round(time.Millisecond), item.Ref)
		if item.Err != nil {
			line += "  (" + item.Err.Error() + ")"
		}
		if err := r.writePlain("%s\n", line); err != nil {
			return err
		}
	}

	return r.writePlainln("Loaded %d, failed %d, timed out %d of %d in %s",
		result.Loaded, result.Failed, result.TimedOut, result.Total, result.Elapsed.Round(time.Millisecond))
}
