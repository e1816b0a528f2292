package controller

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/musicschool/internal/controller/handlers"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	userService handlers.UserService,
	lessonService handlers.LessonService,
	attendanceService handlers.AttendanceService,
	location *time.Location,
	logger *zap.Logger,
) *BotController {
	cmdHandlers := handlers.NewHandlers(
		userService,
		lessonService,
		attendanceService,
		location,
		logger,
	)

	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, handlers.Adapt(c.handlers.HandleStart))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, handlers.Adapt(c.handlers.HandleHelp))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/lessons", bot.MatchTypeExact, handlers.Adapt(c.handlers.HandleLessons))

	// команды с аргументом: /join <id>, /leave <id>
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/join", bot.MatchTypePrefix, handlers.Adapt(c.handlers.HandleJoin))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/leave", bot.MatchTypePrefix, handlers.Adapt(c.handlers.HandleLeave))

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "lessons", Description: "🗓 Ближайшие занятия"},
		{Command: "join", Description: "🎹 Войти на занятие"},
		{Command: "leave", Description: "👋 Выйти с занятия"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает бота; блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
