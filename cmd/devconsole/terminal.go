package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/devconsole/internal/catalog"
	"github.com/thebtf/devconsole/internal/config"
	"github.com/thebtf/devconsole/internal/readme"
	"github.com/thebtf/devconsole/internal/terminal"
	"github.com/thebtf/devconsole/internal/tui"
	"github.com/thebtf/devconsole/pkg/models"
)

// runTerminal opens an interactive terminal session.
func runTerminal(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The UI owns the screen, so logs go to a file.
	logFile, err := os.OpenFile(config.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	setupLogging(logFile, cfg.LogLevel)

	ctx := cmd.Context()
	store, reg, closeFn, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	term := terminal.New(terminal.Config{
		Store:        store,
		Navigator:    terminal.NavigatorFunc(func(path string) { log.Info().Str("path", path).Msg("Terminal navigation") }),
		Readme:       readmeFetcher(cfg),
		FetchTimeout: cfg.FetchTimeout(),
		ReadmeEgg:    readmeEgg(reg),
	})

	navigated, err := tui.Run(ctx, tui.New(ctx, term, store, reg.TotalPoints(), cfg.SiteURL))
	if err != nil {
		return err
	}
	if navigated != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Navigated to %s\n", navigated)
	}
	return nil
}

// readmeFetcher prefers a running service so the terminal and the site read
// the same README.
func readmeFetcher(cfg *config.Config) terminal.ReadmeFetcher {
	if cfg.ServiceURL != "" {
		return readme.NewHTTPFetcher(cfg.ServiceURL, cfg.FetchTimeout())
	}
	return readme.NewSource(readme.SourceConfig{
		Path:        cfg.ReadmePath,
		UpstreamURL: cfg.ReadmeURL,
		Timeout:     cfg.FetchTimeout(),
	})
}

func readmeEgg(reg *catalog.Registry) *models.EggDefinition {
	def, _ := reg.Get(catalog.TerminalReadme)
	return def
}
