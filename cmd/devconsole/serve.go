package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thebtf/devconsole/internal/config"
	"github.com/thebtf/devconsole/internal/readme"
	"github.com/thebtf/devconsole/internal/server"
	"github.com/thebtf/devconsole/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the README, the scoreboard and the session API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(os.Stderr, cfg.LogLevel)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store, reg, closeFn, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	src := readme.NewSource(readme.SourceConfig{
		Path:        cfg.ReadmePath,
		UpstreamURL: cfg.ReadmeURL,
		Timeout:     cfg.FetchTimeout(),
	})

	var watchers []*watcher.Watcher
	if cfg.ReadmePath != "" {
		w, err := watcher.New(cfg.ReadmePath, func() {
			log.Info().Str("path", cfg.ReadmePath).Msg("README changed, invalidating cache")
			src.Invalidate()
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create README watcher")
		} else if err := w.Start(); err == nil {
			watchers = append(watchers, w)
		}
	}

	// Settings are read once at startup. A change stops the service so the
	// supervisor restarts it with the new values.
	if w, err := watcher.New(config.SettingsPath(), func() {
		log.Warn().Str("path", config.SettingsPath()).Msg("Settings changed, shutting down for restart")
		cancel()
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to create settings watcher")
	} else if err := w.Start(); err == nil {
		watchers = append(watchers, w)
	}

	svc := server.New(server.Options{
		Version:        Version,
		Addr:           cfg.Addr(),
		Backend:        cfg.Backend,
		Store:          store,
		Catalog:        reg,
		Readme:         src,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		for _, w := range watchers {
			if err := w.Stop(); err != nil {
				log.Warn().Err(err).Str("path", w.Path()).Msg("Failed to stop watcher")
			}
		}
		return nil
	})
	return g.Wait()
}
