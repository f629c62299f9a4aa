package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/guildhall/internal/config"
)

var registerCmd = &cobra.Command{
	Use:   "register <name> <path>",
	Short: "Register a project so its commissions and meetings show on the board",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.RegisterProject(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registered project %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
}
