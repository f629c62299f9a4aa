// Package cmd wires the guildhall CLI commands.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "guildhall",
	Short:         "Delegate work to your guild of AI workers",
	Long:          "guildhall is the client for the guild daemon: it serves the local\ngateway, persists conversation sessions, and shows the cross-project board.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
