package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/guildhall/internal/config"
	"github.com/kingrea/guildhall/internal/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "List the guild's worker descriptors",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		workers, err := roster.LoadDir(cfg.RosterDir)
		if err != nil {
			return err
		}
		if len(workers) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no workers found in %s\n", cfg.RosterDir)
			return nil
		}
		for _, w := range workers {
			line := w.Name
			if w.DisplayTitle != w.Name {
				line += " (" + w.DisplayTitle + ")"
			}
			if w.Role != "" {
				line += " · " + w.Role
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rosterCmd)
}
