package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerLevels(t *testing.T) {
	cases := []struct {
		env, level string
		debug      bool
		info       bool
	}{
		{env: "production", debug: false, info: true},
		{env: "development", debug: true, info: true},
		{env: "production", level: "debug", debug: true, info: true},
		{env: "development", level: "warn", debug: false, info: false},
	}

	for _, tc := range cases {
		t.Run(tc.env+"/"+tc.level, func(t *testing.T) {
			logger, err := NewLogger(tc.env, tc.level)
			require.NoError(t, err)
			assert.Equal(t, tc.debug, logger.Core().Enabled(zap.DebugLevel))
			assert.Equal(t, tc.info, logger.Core().Enabled(zap.InfoLevel))
		})
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("production", "loud")
	assert.ErrorContains(t, err, `"loud"`)
}
