package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/alexyujiuqiao/IM/pkg/log"
	"github.com/alexyujiuqiao/IM/pkg/srv"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the IM assistant",
	Long:  `Initializes storage, providers, and the chat pipeline, then serves the configured transports.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting im")

		services := NewServices(ctx)

		srv.StartServices(ctx, services)

		// Wait for shutdown signal
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("im has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
