package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/thebtf/devconsole/pkg/models"
)

var jsonOutput bool

var eggsCmd = &cobra.Command{
	Use:   "eggs",
	Short: "Inspect and manage discovered easter eggs",
}

var eggsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog eggs and which ones are collected",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(os.Stderr, cfg.LogLevel)

		store, reg, closeFn, err := openSession(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		progress := reg.Progress(store.Eggs())
		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(progress)
		}
		return writeProgress(cmd, progress, store.Points(), reg.TotalPoints())
	},
}

var eggsAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Mark a catalog egg as discovered",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(os.Stderr, cfg.LogLevel)

		store, reg, closeFn, err := openSession(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		def, err := reg.Lookup(args[0])
		if err != nil {
			return err
		}
		if store.AddAchievement(cmd.Context(), def.ID, def.Points) {
			fmt.Fprintf(cmd.OutOrStdout(), "Discovered %s (+%d). Total: %d/%d\n", def.ID, def.Points, store.Points(), reg.TotalPoints())
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already discovered. Total: %d/%d\n", def.ID, store.Points(), reg.TotalPoints())
		}
		return nil
	},
}

var eggsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget every discovered egg",
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

		store.ResetAchievements(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Achievements reset.")
		return nil
	},
}

func init() {
	eggsListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	eggsCmd.AddCommand(eggsListCmd, eggsAddCmd, eggsResetCmd)
}

func writeProgress(cmd *cobra.Command, progress []models.EggProgress, points, total int) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tPOINTS\tCOLLECTED")
	for _, p := range progress {
		mark := "-"
		if p.Collected {
			mark = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.ID, p.Label, p.Points, mark)
	}
	fmt.Fprintf(tw, "\t\t%d/%d\t\n", points, total)
	return tw.Flush()
}
