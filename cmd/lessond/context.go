package main

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Freeeeeet/musicschool/internal/app"
	"github.com/Freeeeeet/musicschool/internal/config"
)

type commandContext struct {
	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *zap.Logger
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load()
	})
	return c.config, c.configErr
}

// ensureLogger логгер по окружению из конфига; до загрузки конфига считаем окружение development
func (c *commandContext) ensureLogger() *zap.Logger {
	c.loggerOnce.Do(func() {
		env, level := "development", ""
		if cfg, err := c.ensureConfig(); err == nil {
			env, level = cfg.Environment, cfg.LogLevel
		}

		logger, err := app.NewLogger(env, level)
		if err != nil {
			// неверный LOG_LEVEL не должен мешать запуску
			logger, _ = app.NewLogger(env, "")
			logger.Warn("Invalid log level, using environment default", zap.Error(err))
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) sync() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// withContainer открывает пул, собирает сервисы и закрывает всё после fn
func (c *commandContext) withContainer(ctx context.Context, fn func(*config.Config, *app.Container) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger := c.ensureLogger()

	pool, err := app.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}

	container := app.NewContainer(pool, cfg, logger)
	defer container.Close()

	return fn(cfg, container)
}
