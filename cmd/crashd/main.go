package main

import (
	"crash_backend/internal/app"
	"crash_backend/pkg/logger"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:           "crashd",
		Short:         "Multiplayer crash game server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.EnvPath, "env", ".env", "path to .env file")
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "config.yaml", "path to game config")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the round engine and the websocket gateway",
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return app.NewApp(opts).Run(ctx)
			},
		},
		&cobra.Command{
			Use:   "reconcile",
			Short: "Refund wagers left in the journal after a crash and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				n, err := app.NewApp(opts).Reconcile(cmd.Context())
				if err != nil {
					return err
				}
				logger.Info("Reconcile finished", "refunded", n)
				return nil
			},
		},
		newVerifyCmd(),
	)
	return root
}

