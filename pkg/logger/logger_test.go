package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLogger(t *testing.T) {
	logger, err := NewDevelopment(Zerolog)
	require.NoError(t, err)

	logger.Info("Test info message", "key1", "value1", "key2", 123)
	logger.Debug("Test debug message", "debug_key", "debug_value")
	logger.Warn("Test warn message", "warn_key", "warn_value")
	logger.Error("Test error message", "error_key", "error_value")

	logFile := filepath.Join(t.TempDir(), "test_production.log")
	prodLogger, err := New(Zerolog, Config{
		Environment: Prod,
		LogLevel:    "info",
		LogFile:     logFile,
		MaxSize:     1, // 1MB for testing
		MaxBackups:  1,
		MaxAge:      1,
	})
	require.NoError(t, err)

	prodLogger.With("partner", "sim").Info("Production test message", "env", "production")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Production test message")
	assert.Contains(t, string(data), "sim")
}

func TestZapLogger(t *testing.T) {
	logger, err := NewDevelopment(Zap)
	require.NoError(t, err)

	logger.Info("Test info message", "key1", "value1", "key2", 123)
	logger.Debug("Test debug message", "debug_key", "debug_value")
	logger.Warn("Test warn message", "warn_key", "warn_value")
	logger.Error("Test error message", "error_key", "error_value")

	logFile := filepath.Join(t.TempDir(), "test_production_zap.log")
	prodLogger, err := New(Zap, Config{
		Environment: Prod,
		LogLevel:    "info",
		LogFile:     logFile,
		MaxSize:     1,
		MaxBackups:  1,
		MaxAge:      1,
	})
	require.NoError(t, err)

	child := prodLogger.With("partner", "sim")
	child.Info("Production test message", "env", "production")
	_ = prodLogger.(*ZapLogger).Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"partner":"sim"`)
	assert.Contains(t, string(data), "Production test message")
}

func TestLoggerInterface(t *testing.T) {
	var _ Logger = (*ZerologLogger)(nil)
	var _ Logger = (*ZapLogger)(nil)
	var _ Logger = NopLogger{}
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.With("k", "v").Info("dropped", "a", 1)
		l.Error("dropped")
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, Dev, config.Environment)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, 100, config.MaxSize)
}

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, Prod, ParseEnvironment("prod"))
	assert.Equal(t, Test, ParseEnvironment(" TEST "))
	assert.Equal(t, Dev, ParseEnvironment(""))
	assert.Equal(t, Dev, ParseEnvironment("staging"))
}

func TestFromConfig(t *testing.T) {
	l, err := FromConfig("zerolog", Dev, "debug", "")
	require.NoError(t, err)
	_, ok := l.(*ZerologLogger)
	assert.True(t, ok)

	l, err = FromConfig("", Test, "", "")
	require.NoError(t, err)
	_, ok = l.(*ZapLogger)
	assert.True(t, ok)
}

func TestZerologLoggerWithWriter(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLoggerWithWriter(&buf, "warn")

	l.Info("dropped")
	l.With("partner", "sim").Warn("kept", "placement", "placementA")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"partner":"sim"`)
	assert.Contains(t, buf.String(), `"placement":"placementA"`)
}
