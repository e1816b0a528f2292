package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN                string
	Environment          string
	LogLevel             string
	HTTPAddr             string
	JWTSecret            string
	TelegramToken        string
	Timezone             string
	RequestTimeout       time.Duration
	RecurrenceWeeksAhead int
	CORSOrigins          string
	RateLimitPerMinute   int

	location *time.Location
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv читает конфиг из переменных окружения без .env
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		Environment:   getEnv("ENV", "development"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		Timezone:      os.Getenv("TIMEZONE"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.RecurrenceWeeksAhead, err = getInt("RECURRENCE_WEEKS_AHEAD", 4); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	cfg.location = time.Local
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("TIMEZONE: %w", err)
		}
		cfg.location = loc
	}

	return cfg, nil
}

// Location часовой пояс, в котором хранятся дата и время занятий
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// AllowedOrigins список origin для CORS
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// RequireJWT проверка перед запуском HTTP API
func (c *Config) RequireJWT() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	return nil
}

// RequireTelegram проверка перед запуском бота
func (c *Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
