package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/guildhall/internal/config"
	"github.com/kingrea/guildhall/internal/daemon"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the guild daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		doc := daemon.NewClient(cfg.DaemonAddress).Health(ctx)
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
