// Package main provides the devconsole entry point: the interactive terminal,
// the HTTP service and a few maintenance commands.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/devconsole/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	debug       bool
	backendFlag string
)

var rootCmd = &cobra.Command{
	Use:           "devconsole",
	Short:         "Portfolio dev console: terminal, easter eggs and scoreboard",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTerminal,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Storage backend: sqlite, memory, postgres or redis (overrides settings)")

	rootCmd.AddCommand(serveCmd, eggsCmd, historyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("devconsole failed")
		stop()
		os.Exit(1)
	}
}

// setupLogging configures the global logger to write to out.
func setupLogging(out io.Writer, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, NoColor: out != os.Stderr})
}

// loadConfig ensures the data directory and returns validated settings with
// command line overrides applied.
func loadConfig() (*config.Config, error) {
	if err := config.EnsureAll(); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}
