package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestLogFilePath(t *testing.T) {
	start := time.Date(2026, 8, 26, 10, 30, 0, 0, time.UTC)
	path := LogFilePath("/var/log/trackd", "trackd", start)
	assert.Contains(t, path, "trackd.20260826_103000.log")
}

func TestSlogManager_WritesToFileHandler(t *testing.T) {
	var buf bytes.Buffer

	m := NewSlogManager()
	m.Setup(&buf, "info")
	m.Logger().Info("vehicle update", "vehicle", "A")

	out := buf.String()
	assert.Contains(t, out, "vehicle update")
	assert.Contains(t, out, "vehicle=A")
}

func TestSlogManager_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	m := NewSlogManager()
	m.Setup(&buf, "error")
	m.Logger().Info("should be dropped")
	m.Logger().Error("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be dropped")
	assert.Contains(t, out, "should appear")
}

func TestMultiHandler_FansOut(t *testing.T) {
	var first, second bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&first, nil),
		nil,
		slog.NewTextHandler(&second, nil),
	)

	logger := slog.New(h)
	logger.Info("fan out")

	require.True(t, strings.Contains(first.String(), "fan out"))
	require.True(t, strings.Contains(second.String(), "fan out"))
}

func TestSlogManager_DefaultBeforeSetup(t *testing.T) {
	m := NewSlogManager()
	assert.NotNil(t, m.Logger())
}
