// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/kiyi/internal/formatter"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "catalog",
		Usage: "Path to a catalog TOML file (default: built-in album)",
	}
}

func manifestFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "manifest",
		Aliases: []string{"m"},
		Usage:   "Audio manifest URL or file path",
	}
}

// playCommand starts the interactive player
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play the album in the terminal",
		Flags: []cli.Flag{
			configFlag(),
			catalogFlag(),
			manifestFlag(),
			&cli.BoolFlag{
				Name:  "no-preload",
				Usage: "Skip preloading and load each recording when its track opens",
			},
			&cli.BoolFlag{
				Name:  "no-animation",
				Usage: "Show text immediately instead of typing it out",
			},
			&cli.BoolFlag{
				Name:  "mute",
				Usage: "Disable audio output",
			},
		},
		Action: r.Play,
	}
}

// preloadCommand loads every recording without starting the player
func preloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "preload",
		Usage: "Load every recording in the manifest and report the outcome",
		Flags: []cli.Flag{
			configFlag(),
			catalogFlag(),
			manifestFlag(),
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-track timeout (default: audio.preload_timeout_ms)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Preload,
	}
}

// catalogCommand handles catalog inspection and conversion
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Inspect and convert track catalogs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tracks",
				Flags: []cli.Flag{
					configFlag(),
					catalogFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.CatalogList,
			},
			{
				Name:  "export",
				Usage: "Export the catalog to a file",
				Flags: []cli.Flag{
					configFlag(),
					catalogFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, csv, markdown, toml, txt)",
						Value:   string(formatter.FormatJSON),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: catalog.<ext>, - for stdout)",
					},
				},
				Action: r.CatalogExport,
			},
			{
				Name:  "import",
				Usage: "Convert a markdown lyrics file into a catalog TOML file",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "markdown",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "catalog.toml",
					},
				},
				Action: r.CatalogImport,
			},
		},
	}
}

// timingCommand prints the reveal schedule for each track
func timingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "timing",
		Usage: "Show when each paragraph and verse starts typing",
		Flags: []cli.Flag{
			configFlag(),
			catalogFlag(),
			&cli.IntFlag{
				Name:    "track",
				Aliases: []string{"t"},
				Usage:   "Only show this track",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Timing,
	}
}

// serveCommand serves images, recordings and a generated manifest over HTTP
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve album assets and a manifest over HTTP",
		Flags: []cli.Flag{
			configFlag(),
			catalogFlag(),
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Asset directory (default: server.dir)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (default: server.port)",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Public URL prefix for manifest entries",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the manifest in the default browser",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand writes the config file and prepares the database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create configuration and the session database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write config.toml from the built-in template",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// historyCommand reads the session journal
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded playback sessions",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "session",
				Usage: "Show the events of one session",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of sessions to list",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Only list sessions that never ended",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.History,
	}
}
