package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"DB_DSN", "ENV", "LOG_LEVEL", "HTTP_ADDR", "JWT_SECRET", "TELEGRAM_TOKEN", "TIMEZONE",
		"REQUEST_TIMEOUT", "RECURRENCE_WEEKS_AHEAD", "CORS_ORIGINS", "RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/school")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 4, cfg.RecurrenceWeeksAhead)
	assert.Equal(t, 100, cfg.RateLimitPerMinute)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	assert.Equal(t, time.Local, cfg.Location())
	assert.Error(t, cfg.RequireJWT())
	assert.Error(t, cfg.RequireTelegram())
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/school")
	t.Setenv("ENV", "production")
	t.Setenv("TIMEZONE", "Europe/Moscow")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("CORS_ORIGINS", "https://school.example.com, https://admin.example.com")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "Europe/Moscow", cfg.Location().String())
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"https://school.example.com", "https://admin.example.com"}, cfg.AllowedOrigins())
	assert.NoError(t, cfg.RequireJWT())
}

func TestFromEnvErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing dsn":     {},
		"bad timezone":    {"DB_DSN": "x", "TIMEZONE": "Mars/Olympus"},
		"bad timeout":     {"DB_DSN": "x", "REQUEST_TIMEOUT": "soon"},
		"bad weeks":       {"DB_DSN": "x", "RECURRENCE_WEEKS_AHEAD": "-1"},
		"bad rate limit":  {"DB_DSN": "x", "RATE_LIMIT_PER_MINUTE": "lots"},
		"zero rate limit": {"DB_DSN": "x", "RATE_LIMIT_PER_MINUTE": "0"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
