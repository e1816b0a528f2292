package main

import (
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/Freeeeeet/musicschool/internal/app"
	"github.com/Freeeeeet/musicschool/internal/config"
	"github.com/Freeeeeet/musicschool/internal/controller"
)

func newBotCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot for students",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd.Context(), func(cfg *config.Config, c *app.Container) error {
				if err := cfg.RequireTelegram(); err != nil {
					return err
				}
				logger := ctx.ensureLogger().Named("bot")

				b, err := bot.New(cfg.TelegramToken)
				if err != nil {
					return fmt.Errorf("create bot: %w", err)
				}

				botController := controller.NewBotController(b, c.Users, c.Lessons, c.Attendance, cfg.Location(), logger)
				if err := botController.RegisterHandlers(cmd.Context()); err != nil {
					return err
				}

				return botController.Start(cmd.Context())
			})
		},
	}
}
