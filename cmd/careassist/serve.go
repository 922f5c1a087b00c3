package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nulzo/care-assist/internal/platform/logger"
	"github.com/nulzo/care-assist/internal/platform/otel"
	"github.com/nulzo/care-assist/internal/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger.Initialize(logger.DefaultConfig())
			log := logger.Get()
			defer logger.Sync()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Tracing.Enabled {
				shutdown, err := otel.InitTracer(otel.Options{
					ServiceName: "careassist",
					Version:     AppVersion,
					Environment: cfg.Server.Env,
					SampleRatio: cfg.Tracing.SampleRatio,
					Writer:      os.Stdout,
				}, log)
				if err != nil {
					return err
				}
				defer func() {
					if err := shutdown(context.Background()); err != nil {
						log.Warn("Tracer shutdown failed", zap.Error(err))
					}
				}()
			}

			a, err := newApp(runCtx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(cfg, log, server.Deps{
				AltText:   a.altText,
				Chat:      a.chat,
				Settings:  a.settings,
				Analytics: a.analytics,
				Metrics:   promhttp.Handler(),
				Version:   AppVersion,
			})

			go checkForUpdates(runCtx, log)
			return srv.Run(runCtx)
		},
	}
}
