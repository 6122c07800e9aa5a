package internal

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/heisthecat31/assetpatch/internal/config"
)

var (
	envVarLog      = strings.ToUpper(config.EnvPrefix + "_" + config.KeyLog)      // ASSETPATCH_LOG
	envVarLogLevel = strings.ToUpper(config.EnvPrefix + "_" + config.KeyLogLevel) // ASSETPATCH_LOGLEVEL
)

func initViper(t *testing.T) {
	t.Cleanup(viper.Reset)
	config.ConfigDir = t.TempDir()
	config.InitViper()
}

func TestLogDisabledByDefault(t *testing.T) {
	// given: no environment variable set for log
	t.Setenv(envVarLog, "")
	initViper(t)

	// when: initialize the logging
	InitLogging()
	_, isDiscardHandler := slog.Default().Handler().(discardHandler)

	// then: the logs are written to the discard handler
	assert.True(t, isDiscardHandler)
}

func TestLogDisabledByLogLevelOff(t *testing.T) {
	// given: logging enabled but the level set to "off"
	t.Setenv(envVarLog, "true")
	t.Setenv(envVarLogLevel, "off")
	initViper(t)

	// when: initialize the logging
	InitLogging()
	_, isDiscardHandler := slog.Default().Handler().(discardHandler)

	// then: the logs are written to the discard handler
	assert.True(t, isDiscardHandler)
}

func TestLogEnabledByLogLevel(t *testing.T) {
	tests := []struct {
		in  string
		out slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"if not known set default info", slog.LevelInfo},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			// when: enabling logging and setting the level via environment variables
			t.Setenv(envVarLog, "true")
			t.Setenv(envVarLogLevel, test.in)
			initViper(t)
			InitLogging()

			lh, isDefaultHandler := slog.Default().Handler().(*slog.TextHandler)

			// then: the logs are written to the default handler
			assert.True(t, isDefaultHandler)
			// and then: the expected loglevel is enabled
			assert.True(t, lh.Enabled(context.Background(), test.out))
		})
	}
}

func TestLogWritesAboveLevel(t *testing.T) {
	t.Setenv(envVarLog, "true")
	t.Setenv(envVarLogLevel, "warn")
	initViper(t)

	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf))
	logger.Info("hidden")
	logger.Warn("skipped asset", "asset", "ZH_Lore")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "asset=ZH_Lore")
}

func TestDiscardHandler(t *testing.T) {
	var h slog.Handler = discardHandler{}
	assert.False(t, h.Enabled(context.Background(), slog.LevelError))
	assert.Equal(t, h, h.WithAttrs(nil).WithGroup("g"))
}
