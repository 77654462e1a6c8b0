package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SharedMindsApp/accesskit/pkg/logger"
)

func TestNew_JSONDefault(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	log := logger.New(logger.WithOutput(&buf))
	log.Info("resolved", slog.String("entity_type", "track"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "resolved", record["msg"])
	assert.Equal(t, "track", record["entity_type"])
}

func TestNew_LevelFilters(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestNew_TextFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	log := logger.New(logger.WithOutput(&buf), logger.WithTextFormat())
	log.Info("hello")

	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNew_StaticAttrs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	log := logger.New(logger.WithOutput(&buf), logger.WithAttrs(slog.String("service", "accesskit")))
	log.Info("one")
	log.Info("two")

	for _, line := range strings.SplitAfter(strings.TrimSpace(buf.String()), "\n") {
		assert.Contains(t, line, `"service":"accesskit"`)
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	log := logger.NewFromConfig(
		logger.Config{Level: "debug", Format: "text"},
		logger.WithOutput(&buf))
	log.Debug("verbose")

	assert.Contains(t, buf.String(), "msg=verbose")

	buf.Reset()
	log = logger.NewFromConfig(
		logger.Config{Level: "error", Format: "json"},
		logger.WithOutput(&buf))
	log.Warn("suppressed")
	assert.Empty(t, buf.String())
}
