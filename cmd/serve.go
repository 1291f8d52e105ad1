package main

import (
	"minifeed/config"
	"minifeed/internal/app"
	"minifeed/pkg/logger"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadConfig()

			log := logger.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			ctx := logger.WithLogger(cmd.Context(), log)

			a, err := app.NewApp(ctx, cfg)
			if err != nil {
				log.Error("failed to initialize app", "error", err)
				return err
			}
			return a.Run(ctx)
		},
	}
}
