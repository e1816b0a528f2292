package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Freeeeeet/musicschool/internal/app"
	"github.com/Freeeeeet/musicschool/internal/config"
	"github.com/Freeeeeet/musicschool/internal/controller/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var migrate bool
	var generateEvery time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the recurring lesson generator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd.Context(), func(cfg *config.Config, c *app.Container) error {
				if err := cfg.RequireJWT(); err != nil {
					return err
				}
				logger := ctx.ensureLogger()

				if migrate {
					if err := runMigrations(cmd.Context(), c, logger); err != nil {
						return err
					}
				}

				scheduler := app.NewScheduler(c.Lessons, cfg.RecurrenceWeeksAhead, generateEvery, logger.Named("scheduler"))
				scheduler.Start(cmd.Context())
				defer scheduler.Stop()

				server := api.NewApp(api.Services{
					Lessons:      c.Lessons,
					Attendance:   c.Attendance,
					Feedback:     c.Feedback,
					Availability: c.Availability,
					Users:        c.Users,
				}, api.Options{
					JWTSecret:          cfg.JWTSecret,
					RequestTimeout:     cfg.RequestTimeout,
					CORSOrigins:        cfg.AllowedOrigins(),
					RateLimitPerMinute: cfg.RateLimitPerMinute,
					HealthCheck: func(ctx context.Context) error {
						return c.Pool.Ping(ctx)
					},
				}, logger.Named("http"))

				return serve(cmd.Context(), server, cfg.HTTPAddr, logger)
			})
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before starting")
	cmd.Flags().DurationVar(&generateEvery, "generate-every", 24*time.Hour, "Interval between recurring lesson generation runs")
	return cmd
}

type httpServer interface {
	Listen(addr string) error
	ShutdownWithTimeout(timeout time.Duration) error
}

// serve слушает addr до отмены ctx, затем останавливает сервер
func serve(ctx context.Context, server httpServer, addr string, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- server.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("HTTP server stopped with error", zap.Error(err))
	}
	return nil
}
