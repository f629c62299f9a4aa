package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/guildhall/internal/config"
	"github.com/kingrea/guildhall/internal/daemon"
	"github.com/kingrea/guildhall/internal/gateway"
	"github.com/kingrea/guildhall/internal/logging"
	"github.com/kingrea/guildhall/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.LogsDir)
		if err != nil {
			return err
		}
		defer logger.Close()

		backend, err := session.NewFileStorage(cfg.SessionsDir)
		if err != nil {
			return err
		}
		deps := gateway.Deps{
			Sessions:  session.NewStore(backend),
			Daemon:    daemon.NewClient(cfg.DaemonAddress),
			RosterDir: cfg.RosterDir,
			Projects:  cfg.Projects,
		}
		srv := gateway.NewServer(gateway.SettingsFromConfig(cfg), deps, gateway.WithLogger(logger))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := srv.Start(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "guildhall gateway listening on %s\n", srv.Addr())
		fmt.Fprintf(cmd.OutOrStdout(), "daemon address: %s\n", cfg.DaemonAddress)

		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
