package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureSink(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	Install(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	t.Cleanup(func() { Install(NewStdoutHandler()) })
	return buf
}

func TestFor_FollowsRootUntilSet(t *testing.T) {
	buf := captureSink(t)
	SetLevel(Root, slog.LevelInfo)

	log := For("TestFollow")
	log.Debug("hidden")
	assert.Empty(t, buf.String())

	SetLevel("testfollow", slog.LevelDebug)
	log.Debug("shown", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "testfollow", line["logger"])
	assert.Equal(t, "v", line["k"])

	lvl, explicit := Level("testfollow")
	assert.True(t, explicit)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestFor_WithAttrs(t *testing.T) {
	buf := captureSink(t)
	For("withattrs").With("request_id", "abc").Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc", line["request_id"])
	assert.Equal(t, "withattrs", line["logger"])
}

func TestLevels(t *testing.T) {
	For("levels-a")
	SetLevel("levels-b", slog.LevelError)

	byName := map[string]string{}
	for _, l := range Levels() {
		byName[l.Name] = l.Level
	}
	assert.Contains(t, byName, Root)
	assert.Contains(t, byName, "levels-a")
	assert.Equal(t, "ERROR", byName["levels-b"])
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("warning")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, l)

	l, ok = ParseLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelDebug, l)

	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}

func TestMultiHandler(t *testing.T) {
	info, errs := &bytes.Buffer{}, &bytes.Buffer{}
	h := NewMultiHandler(
		slog.NewTextHandler(info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h)

	log.Info("one")
	log.Error("two")

	assert.Contains(t, info.String(), "one")
	assert.Contains(t, info.String(), "two")
	assert.NotContains(t, errs.String(), "one")
	assert.Contains(t, errs.String(), "two")
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandler_ContinuesAfterFailure(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewMultiHandler(
		failingHandler{slog.NewTextHandler(io.Discard, nil)},
		slog.NewTextHandler(out, nil),
	)

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "still here", 0))

	assert.EqualError(t, err, "sink down")
	assert.Contains(t, out.String(), "still here")
}

func TestPGHandler_Handle(t *testing.T) {
	h := &PGHandler{batch: &pgBatch{}}
	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	rec := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	rec.AddAttrs(
		slog.String("logger", "account"),
		slog.String("request_id", "rid"),
		slog.String("login", "alice"),
		slog.String("error", "bad"),
		slog.Duration("latency_ms", 1500*time.Millisecond),
		slog.Int("attempt", 2),
	)
	require.NoError(t, h.Handle(context.Background(), rec))

	rows := h.batch.take()
	require.Len(t, rows, 1)
	entry := rows[0]
	assert.Equal(t, "boom", entry.Message)
	assert.Equal(t, "account", entry.Logger)
	assert.Equal(t, "rid", entry.RequestID)
	require.NotNil(t, entry.Login)
	assert.Equal(t, "alice", *entry.Login)
	assert.Equal(t, "bad", entry.Error)
	assert.Equal(t, 1500, entry.LatencyMs)
	assert.JSONEq(t, `{"attempt":2}`, string(entry.Extra))
	assert.Empty(t, h.batch.take())
}

func TestPGHandler_BoundAttrs(t *testing.T) {
	base := &PGHandler{batch: &pgBatch{}}
	h := base.WithAttrs([]slog.Attr{slog.String("request_id", "rid")}).
		WithGroup("course").
		WithAttrs([]slog.Attr{slog.Int64("id", 7)})

	rec := slog.NewRecord(time.Now(), slog.LevelError, "save failed", 0)
	rec.AddAttrs(slog.String("action", "update"))
	require.NoError(t, h.Handle(context.Background(), rec))

	rows := base.batch.take()
	require.Len(t, rows, 1)
	assert.Equal(t, "rid", rows[0].RequestID)
	assert.Empty(t, rows[0].Action)
	assert.JSONEq(t, `{"course.id":7,"course.action":"update"}`, string(rows[0].Extra))
}
