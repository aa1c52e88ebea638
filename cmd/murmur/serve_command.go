package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"murmur/internal/deps"
	"murmur/internal/logging"
	"murmur/internal/pipeline"
	"murmur/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the memo processing server",
		Long:  "Runs the HTTP server that transcribes and structures recorded memos via the OpenAI API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			for _, status := range deps.MissingRequired(deps.CheckBinaries(deps.Requirements(cfg))) {
				logger.Warn("external dependency unavailable",
					logging.String("name", status.Name),
					logging.String("detail", status.Detail))
			}

			svc := pipeline.NewService(cfg, logger)
			srv := server.New(cfg.Paths.APIBind, cfg.Paths.APIToken, svc, logger)
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			defer srv.Stop()

			<-runCtx.Done()
			logger.Info("murmur server shutting down")
			return nil
		},
	}
}
