package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear the persisted terminal transcript",
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the persisted transcript",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(os.Stderr, cfg.LogLevel)

		store, _, closeFn, err := openSession(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		out := cmd.OutOrStdout()
		entries := store.Transcript()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No terminal history.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "$ %s\n", e.Command)
			for _, line := range e.Output {
				fmt.Fprintln(out, line)
			}
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the persisted transcript",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(os.Stderr, cfg.LogLevel)

		store, _, closeFn, err := openSession(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		store.ClearTranscript(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Terminal history cleared.")
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyShowCmd, historyClearCmd)
}
