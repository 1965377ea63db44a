package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCustomLogger(&buf, LogLevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
	assert.Contains(t, out, "[ragroute]")
}

func TestDefaultLoggerFormatting(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCustomLogger(&buf, LogLevelDebug)

	logger.Info("query %s routed to %d sources", "q-1", 2)
	assert.Contains(t, buf.String(), "query q-1 routed to 2 sources")
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "NONE", LogLevelNone.String())
	assert.True(t, strings.HasPrefix(LogLevel(42).String(), "UNKNOWN"))
}

func TestNoOpLogger(t *testing.T) {
	logger := &NoOpLogger{}
	// Should not panic
	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")
}

func TestPackageLevelLogger(t *testing.T) {
	original := GetDefaultLogger()
	defer SetDefaultLogger(original)

	var buf bytes.Buffer
	SetDefaultLogger(NewCustomLogger(&buf, LogLevelInfo))

	Info("hello %s", "world")
	Debug("should be filtered")

	assert.Contains(t, buf.String(), "hello world")
	assert.NotContains(t, buf.String(), "filtered")
}

func TestGologLogger(t *testing.T) {
	glogger := golog.New()
	logger := NewGologLogger(glogger)

	assert.NotNil(t, logger)
	assert.Equal(t, LogLevelInfo, logger.GetLevel())

	t.Run("Level Control", func(t *testing.T) {
		logger.SetLevel(LogLevelDebug)
		assert.Equal(t, LogLevelDebug, logger.GetLevel())

		logger.SetLevel(LogLevelNone)
		assert.Equal(t, LogLevelNone, logger.GetLevel())
	})

	t.Run("Logging Does Not Panic", func(t *testing.T) {
		logger.SetLevel(LogLevelDebug)
		logger.Debug("debug: %s", "test")
		logger.Info("info: %d", 42)
		logger.Warn("warn: %v", map[string]string{"key": "value"})
		logger.Error("error: %f", 3.14)
	})
}
