package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Freeeeeet/musicschool/internal/app"
	"github.com/Freeeeeet/musicschool/internal/config"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd.Context(), func(_ *config.Config, c *app.Container) error {
				return runMigrations(cmd.Context(), c, ctx.ensureLogger())
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd.Context(), func(_ *config.Config, c *app.Container) error {
				return withMigrator(c, ctx.ensureLogger(), func(m *app.Migrator) error {
					return m.Down(cmd.Context())
				})
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd.Context(), func(_ *config.Config, c *app.Container) error {
				return withMigrator(c, ctx.ensureLogger(), func(m *app.Migrator) error {
					version, err := m.Version(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
					return nil
				})
			})
		},
	})

	return migrateCmd
}

func runMigrations(ctx context.Context, c *app.Container, logger *zap.Logger) error {
	return withMigrator(c, logger, func(m *app.Migrator) error {
		return m.Up(ctx)
	})
}

func withMigrator(c *app.Container, logger *zap.Logger, fn func(*app.Migrator) error) error {
	m, err := app.NewMigrator(c.Pool, logger.Named("migrator"))
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return fn(m)
}
