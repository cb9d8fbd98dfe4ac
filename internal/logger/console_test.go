package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "info")

	log.LogInfo("walking directory /data")

	output := buf.String()
	require.NotEmpty(t, output)
	assert.Contains(t, output, "[INFO] walking directory /data")
	// Timestamp prefix "[HH:MM:SS]"
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] `, output)
	assert.True(t, strings.HasSuffix(output, "\n"))
}

func TestConsoleLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "warn")

	log.LogTrace("trace message")
	log.LogDebug("debug message")
	log.LogInfo("info message")
	log.LogWarn("warn message")
	log.LogError("error message")

	output := buf.String()
	assert.NotContains(t, output, "trace message")
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestConsoleLoggerInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "shouty")

	log.LogDebug("debug message")
	log.LogInfo("info message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.Contains(t, output, "info message")
}

func TestConsoleLoggerNilWriter(t *testing.T) {
	log := NewConsoleLogger(nil, "info")

	// Must not panic
	log.LogInfo("discarded")
	log.LogError("also discarded")
}

func TestConsoleLoggerNoColorForPlainWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "info")

	log.LogError("plain output")

	// A bytes.Buffer is never a terminal, so no ANSI escapes appear
	assert.NotContains(t, buf.String(), "\033[")
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()

	// Must not panic
	log.LogTrace("a")
	log.LogDebug("b")
	log.LogInfo("c")
	log.LogWarn("d")
	log.LogError("e")
}

func TestNormalizeLogLevel(t *testing.T) {
	assert.Equal(t, "debug", normalizeLogLevel(" DEBUG "))
	assert.Equal(t, "info", normalizeLogLevel(""))
	assert.Equal(t, "info", normalizeLogLevel("bogus"))
	assert.Equal(t, "error", normalizeLogLevel("error"))
}
