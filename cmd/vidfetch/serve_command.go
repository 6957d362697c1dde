package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vidfetch/internal/config"
	"vidfetch/internal/deps"
	"vidfetch/internal/jobs"
	"vidfetch/internal/logging"
	"vidfetch/internal/preflight"
	"vidfetch/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := ctx.logger(false)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return ctx.withManager(logger, func(cfg *config.Config, manager *jobs.Manager) error {
				if bind != "" {
					cfg.API.Bind = bind
				}
				if missing := deps.MissingRequired(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
					logging.WarnWithContext(logger, "required executables missing", "dependency_missing",
						logging.Any("missing", missing),
						logging.String(logging.FieldErrorHint, "install them or fix ytdlp.binary"),
						logging.String(logging.FieldImpact, "affected endpoints will fail with 500"),
					)
				}
				if !cfg.TranslationEnabled() {
					logger.Info("translation disabled; set translation.api_key to enable translate endpoints")
				}
				srv, err := server.New(cfg, manager, newServices(cfg, manager, logger), logger)
				if err != nil {
					return err
				}
				return srv.Run(signalCtx)
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override api.bind (host:port)")
	return cmd
}
