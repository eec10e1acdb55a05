package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(t *testing.T) (*ChanneledLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := DefaultLoggerConfig()
	cfg.OutputToConsole = false
	cfg.Writer = &buf
	logger, err := NewChanneledLogger(cfg)
	require.NoError(t, err)
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestChannelAttributeIsAttached(t *testing.T) {
	logger, buf := newBufferedLogger(t)

	logger.Cache().Info("snapshot stored", "key", "acme:2024-03-15")

	recs := decodeLines(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "cache", recs[0]["channel"])
	assert.Equal(t, "acme:2024-03-15", recs[0]["key"])
}

func TestSetChannelLevel(t *testing.T) {
	logger, buf := newBufferedLogger(t)

	logger.Metrics().Debug("hidden")
	require.NoError(t, logger.SetChannelLevel(ChannelMetrics, slog.LevelDebug))
	buf.Reset()
	logger.Metrics().Debug("visible")

	recs := decodeLines(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "visible", recs[0]["msg"])
	assert.Equal(t, "DEBUG", logger.GetChannelLevels()["metrics"])

	assert.Error(t, logger.SetChannelLevel("nope", slog.LevelDebug))
}

func TestWithContextAddsRequestID(t *testing.T) {
	logger, buf := newBufferedLogger(t)
	ctx := ContextWithRequestID(context.Background(), "01HQREQ")

	logger.WithContext(ChannelMetrics, ctx).Info("delta computed")

	recs := decodeLines(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "01HQREQ", recs[0]["requestId"])
}

func TestLogSlowQueryFlattensWhitespace(t *testing.T) {
	logger, buf := newBufferedLogger(t)

	logger.LogSlowQuery("SELECT\n\tSUM(total_orders)\n FROM overall_summary", 0, "ACME")

	recs := decodeLines(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "SELECT SUM(total_orders) FROM overall_summary", recs[0]["query"])
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNopLoggerIsSafe(t *testing.T) {
	logger := NewNopLogger()
	logger.Cache().Error("dropped")
	assert.NoError(t, logger.Close())
}
