package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"

	"github.com/desertthunder/kiyi/internal/server"
	"github.com/desertthunder/kiyi/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve exposes the asset directory, a generated manifest and the catalog over HTTP until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	c, err := r.loadCatalog(cmd)
	if err != nil {
		return err
	}

	cfg := r.config.Server
	if dir := cmd.String("dir"); dir != "" {
		cfg.Dir = dir
	}
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := int(cmd.Int("port")); port != 0 {
		cfg.Port = port
	}

	if info, err := os.Stat(cfg.Dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: asset directory %q not found", shared.ErrInvalidArgument, cfg.Dir)
	}

	handler := server.NewAssetRouter(server.AssetOptions{
		Catalog: c,
		Dir:     cfg.Dir,
		BaseURL: cmd.String("base-url"),
		Timing:  r.timing(),
		Logger:  shared.WithLogger(r.logger, "component", "server"),
	})
	srv := server.NewServer(cfg.Host, cfg.Port, handler, r.logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	l, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr(), err)
	}

	manifestURL := fmt.Sprintf("http://%s/manifest.json", l.Addr())
	r.writePlain("Serving %s on http://%s\n", cfg.Dir, l.Addr())
	r.writePlain("Manifest: %s\n", manifestURL)

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(manifestURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	return srv.Serve(ctx, l)
}
