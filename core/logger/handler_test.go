package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, format logFormat) (*slog.Logger, func() string) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	return slog.New(handler), func() string {
		require.NoError(t, aw.Flush())
		require.NoError(t, aw.Close())
		return strings.TrimSpace(buf.String())
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)
	ctx = WithStage(ctx, "full_name")

	LogEvent(ctx, log.With("component", "flow"), slog.LevelInfo, "stage.advanced",
		slog.String("status", "OK"),
		slog.String("next_stage", "birth_date"),
	)

	tokens := strings.Split(read(), " ")
	expected := []string{"ts=", "level=INFO", "component=flow", "event=stage.advanced", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "stage=full_name", "next_stage=birth_date"}
	require.GreaterOrEqual(t, len(tokens), len(expected))
	for i, prefix := range expected {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, expected prefix %s", i, tokens[i], prefix)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	log, read := newTestLogger(t, formatJSON)
	ctx := WithRID(context.Background(), "rid-json")

	LogEvent(ctx, log.With("component", "storage"), slog.LevelError, "request.insert",
		slog.String("status", "fail"),
		slog.Any("err", errors.New("boom")),
		slog.Duration("duration", 1500*time.Microsecond),
	)

	line := read()
	require.True(t, strings.HasPrefix(line, "{"), line)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"storage"`, `"event":"request.insert"`, `"status":"fail"`, `"rid":"rid-json"`, `"duration_ms":2`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		require.True(t, idx > pos, "prefix %s not found in order within %s", pref, line)
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	rawRID := BuildRID(123, 456, 789)
	LogEvent(WithRID(context.Background(), rawRID), log, slog.LevelInfo, "rid.test")

	line := read()
	assert.Contains(t, line, "rid="+CompactRID(rawRID))
	assert.NotContains(t, line, "rid_full=")
	assert.Contains(t, line, "component=app")
}

func TestStructuredHandlerCompactRIDJSON(t *testing.T) {
	log, read := newTestLogger(t, formatJSON)
	rawRID := "12:34:56"
	LogEvent(WithRID(context.Background(), rawRID), log, slog.LevelInfo, "rid.test")

	line := read()
	assert.Contains(t, line, `"rid":"c.y.1k"`)
	assert.Contains(t, line, `"rid_full":"12:34:56"`)
	assert.Contains(t, line, `"ts_unix_nano"`)
}

func TestStructuredHandlerDropsEmptyAndQuotes(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	log.Info("", slog.String("event", "quoted"), slog.String("empty", ""), slog.String("text", "two words"))

	line := read()
	assert.NotContains(t, line, "empty=")
	assert.Contains(t, line, `text="two words"`)
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	assert.Equal(t, []bool{true, false, false, true}, got)

	s.Set(0, 0)
	assert.True(t, s.Allow())

	num, den := parseRatioSpec("2/10")
	assert.Equal(t, [2]int{2, 10}, [2]int{num, den})
	num, den = parseRatioSpec("20")
	assert.Equal(t, [2]int{1, 20}, [2]int{num, den})
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab\ncd", Sanitize("a\x00b\ncd\u200b"))
	assert.Equal(t, "при", SanitizeLimit("привет", 3))
}
