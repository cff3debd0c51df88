package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_TeesToConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, closeFn, err := New(Options{File: file, Level: "info", Console: &console})
	require.NoError(t, err)

	logger.Info("REQ done", zap.Int("status", 200))
	logger.Debug("hidden")
	require.NoError(t, closeFn())

	assert.Contains(t, console.String(), "REQ done")
	assert.Contains(t, console.String(), "INFO")
	assert.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "REQ done", entry["msg"])
	assert.Equal(t, float64(200), entry["status"])
}

func TestNew_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, closeFn, err := New(Options{Level: "debug", Console: &console})
	require.NoError(t, err)

	logger.Debug("visible")
	require.NoError(t, closeFn())
	assert.Contains(t, console.String(), "visible")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}
