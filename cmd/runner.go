package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kiyi/internal/audio"
	"github.com/desertthunder/kiyi/internal/catalog"
	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/repositories"
	"github.com/desertthunder/kiyi/internal/services"
	"github.com/desertthunder/kiyi/internal/shared"
	"github.com/desertthunder/kiyi/internal/typewriter"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.API == nil {
		opts.API = services.NewAPIService("", opts.HTTPClient)
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.applyLogLevel()
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		playCommand, preloadCommand, catalogCommand, timingCommand, serveCommand, setupCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger, keeping the configured level.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.applyLogLevel()
}

func (r *Runner) applyLogLevel() {
	level, err := log.ParseLevel(r.config.Log.Level)
	if err != nil {
		return
	}
	shared.SetLogLevel(r.logger, level)
}

// reloadConfig loads the file named by an explicit --config when it differs from the one loaded at startup.
func (r *Runner) reloadConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if !cmd.IsSet("config") || path == "" || path == r.configPath {
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	r.configPath = path
	r.applyLogLevel()
	r.logger.Debug("config loaded", "path", path)
	return nil
}

// loadCatalog returns the catalog named by --catalog, the configured catalog, or the built-in album.
func (r *Runner) loadCatalog(cmd *cli.Command) (*models.Catalog, error) {
	path := cmd.String("catalog")
	if path == "" {
		path = r.config.Catalog.Path
	}

	c, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	r.logger.Debug("catalog loaded", "path", path, "tracks", c.Len())
	return c, nil
}

// manifestRef returns the manifest named by --manifest or the configured one.
func (r *Runner) manifestRef(cmd *cli.Command) string {
	if ref := cmd.String("manifest"); ref != "" {
		return ref
	}
	return r.config.Audio.Manifest
}

// loadManifest fetches the manifest and falls back to the catalog's own audio references.
func (r *Runner) loadManifest(ctx context.Context, ref string, c *models.Catalog) *services.Manifest {
	m := services.NewManifestService(r.api, r.logger).Load(ctx, ref)
	m.Fill(c.Tracks())
	return m
}

// newLoader builds the configured audio backend. The returned func releases it.
func (r *Runner) newLoader() (audio.Loader, func()) {
	if r.config.Audio.Backend == "none" {
		r.logger.Info("audio disabled")
		return nil, func() {}
	}

	sp := audio.NewSpeaker(audio.DefaultSampleRate, r.logger)
	return audio.NewFetchLoader(r.api, sp), sp.Close
}

// openJournal opens a journal session when the database is enabled. Failures are logged and
// leave the journal nil; the player never depends on it.
func (r *Runner) openJournal(c *models.Catalog, manifest string) (*repositories.Journal, *models.Session, func()) {
	if !r.config.Database.Enabled {
		return nil, nil, func() {}
	}

	db, err := shared.OpenJournalDatabase(r.config.Database)
	if err != nil {
		r.logger.Warn("session journal unavailable", "error", err)
		return nil, nil, func() {}
	}

	journal := repositories.NewJournal(db)
	session, err := journal.Open(c.Len(), manifest)
	if err != nil {
		r.logger.Warn("failed to open journal session", "error", err)
		db.Close()
		return nil, nil, func() {}
	}

	r.logger.Debug("journal session opened", "session", session.SessionID)
	return journal, session, func() {
		if err := journal.Close(session.SessionID); err != nil {
			r.logger.Warn("failed to close journal session", "error", err)
		}
		db.Close()
	}
}

func (r *Runner) timing() typewriter.Timing {
	a := r.config.Animation
	return typewriter.Timing{
		Lead:         shared.Millis(a.LeadMs),
		ParagraphGap: shared.Millis(a.ParagraphGapMs),
		VersePause:   shared.Millis(a.VersePauseMs),
		VerseGap:     shared.Millis(a.VerseGapMs),
		Base:         shared.Millis(a.BaseSpeedMs),
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
