package main

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/kiyi/internal/audio"
	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/player"
	"github.com/desertthunder/kiyi/internal/repositories"
	"github.com/desertthunder/kiyi/internal/schedule"
	"github.com/desertthunder/kiyi/internal/services"
	"github.com/desertthunder/kiyi/internal/shared"
	"github.com/desertthunder/kiyi/internal/tasks"
	"github.com/desertthunder/kiyi/internal/ui"
	"github.com/urfave/cli/v3"
)

// Play launches the interactive terminal player.
//
// Recordings are preloaded while the TUI shows progress; the controller then runs on its own
// event loop and the TUI talks to it only through posted intents.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}
	if cmd.Bool("mute") {
		r.config.Audio.Backend = "none"
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	c, err := r.loadCatalog(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ref := r.manifestRef(cmd)
	manifest := r.loadManifest(ctx, ref, c)

	loader, closeBackend := r.newLoader()
	defer closeBackend()

	library := audio.NewLibrary()
	defer library.Close()

	journal, session, closeJournal := r.openJournal(c, ref)
	defer closeJournal()

	loop := schedule.NewLoop()
	var ctrl *player.Controller
	send := func(in player.Intent) {
		loop.Post(func() { ctrl.Dispatch(in) })
	}

	preload := loader != nil && !cmd.Bool("no-preload") && manifest.Len() > 0
	program := tea.NewProgram(ui.NewModel(c, send, preload), tea.WithAltScreen())
	surface := ui.NewSurface(program.Send)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		if preload {
			r.preloadInto(ctx, program, loader, library, c, manifest, journal, session)
		}
		if ctx.Err() != nil {
			return
		}

		transport := audio.NewTransport(audio.TransportConfig{
			Scheduler: loop,
			View:      surface,
			Library:   library,
			Loader:    loader,
			Lookup:    manifest.URL,
			Volume:    r.config.Audio.Volume,
			Logger:    shared.WithLogger(r.logger, "component", "transport"),
			Context:   ctx,
		})

		cfg := player.Config{
			Catalog:     c,
			Surface:     surface,
			Scheduler:   loop,
			Transport:   transport,
			Timing:      r.timing(),
			Animate:     r.config.Animation.Enabled && !cmd.Bool("no-animation"),
			Settle:      shared.Millis(r.config.Transition.SettleMs),
			TapCooldown: shared.Millis(r.config.Transition.TapCooldownMs),
			BeginDelay:  shared.Millis(r.config.Transition.BeginDelayMs),
			Logger:      shared.WithLogger(r.logger, "component", "player"),
			Context:     ctx,
		}
		if journal != nil {
			cfg.Journal = journal
			cfg.SessionID = session.SessionID
		}
		ctrl = player.New(cfg)

		loop.Post(ctrl.Start)
		program.Send(ui.ReadyMsg())

		loop.Run(ctx)
		ctrl.Close()
		transport.Close()
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		wg.Wait()
		return fmt.Errorf("error running TUI: %w", err)
	}

	cancel()
	wg.Wait()
	r.logger.Info("player stopped")
	return nil
}

// preloadInto fills library, forwarding progress to the TUI.
func (r *Runner) preloadInto(
	ctx context.Context,
	program *tea.Program,
	loader audio.Loader,
	library *audio.Library,
	c *models.Catalog,
	manifest *services.Manifest,
	journal *repositories.Journal,
	session *models.Session,
) {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			program.Send(ui.PreloadProgressMsg(update))
		}
	}()

	preloader := tasks.NewPreloader(loader, library, shared.WithLogger(r.logger, "component", "preload"))
	opts := tasks.PreloadOpts{
		Timeout: shared.Millis(r.config.Audio.PreloadTimeoutMs),
		Rate:    r.config.Audio.PreloadRate,
	}
	if journal != nil {
		preloader.WithRecorder(journal)
		opts.SessionID = session.SessionID
	}

	if _, err := preloader.PreloadAll(ctx, c, manifest, progress, opts); err != nil {
		r.logger.Warn("preload incomplete", "error", err)
	}
	close(progress)
	<-done
}
