package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/jayclim/CR-Data/internal/config"
	"github.com/jayclim/CR-Data/internal/constants"
	fxmodules "github.com/jayclim/CR-Data/internal/fx"
	"github.com/jayclim/CR-Data/internal/middleware"
	"github.com/jayclim/CR-Data/internal/server"
	"github.com/jayclim/CR-Data/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest snapshot over HTTP and refresh it periodically",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := fx.New(
			fxmodules.Module,
			fx.Supply(source(true)),
			fx.Provide(service.NewRefresher),
			fx.Invoke(runServer),
		)
		if err := app.Err(); err != nil {
			return err
		}
		app.Run()
		return nil
	},
}

func runServer(
	lc fx.Lifecycle,
	metaServer *server.MetaServer,
	_ *service.Refresher,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	requestIDMiddleware := middleware.RequestID(logger, server.HealthPath, server.MetricsPath)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: requestIDMiddleware(c.Handler(metaServer.Routes())),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
