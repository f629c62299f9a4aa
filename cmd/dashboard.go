package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kingrea/guildhall/internal/config"
	"github.com/kingrea/guildhall/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the guild board in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return tui.NewApp(cfg).Run()
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
