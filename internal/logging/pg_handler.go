package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skcgolf/skc-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	pgBatchSize     = 50
	pgFlushInterval = 5 * time.Second
)

// pgBatch is the buffer shared by a PGHandler and every handler derived from
// it with WithAttrs or WithGroup.
type pgBatch struct {
	db      *gorm.DB
	mu      sync.Mutex
	pending []models.SystemLog
	done    chan struct{}
	exited  chan struct{}
	stopped sync.Once
}

func (b *pgBatch) add(entry models.SystemLog) {
	b.mu.Lock()
	b.pending = append(b.pending, entry)
	full := len(b.pending) >= pgBatchSize
	b.mu.Unlock()

	if full && b.db != nil {
		go b.flush()
	}
}

func (b *pgBatch) take() []models.SystemLog {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}

func (b *pgBatch) flush() {
	rows := b.take()
	if len(rows) == 0 {
		return
	}
	if err := b.db.CreateInBatches(rows, pgBatchSize).Error; err != nil {
		// WARN keeps the failure out of this handler's own buffer
		For(Root).Warn("system log flush failed", "error", err, "count", len(rows))
	}
}

func (b *pgBatch) run(interval time.Duration) {
	defer close(b.exited)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			b.flush()
		case <-b.done:
			b.flush()
			return
		}
	}
}

// PGHandler persists ERROR and above to the system_logs table. Records are
// buffered and written every few seconds or once a batch fills up.
type PGHandler struct {
	batch *pgBatch
	attrs []slog.Attr
	group string
}

func NewPGHandler(db *gorm.DB) *PGHandler {
	b := &pgBatch{db: db, done: make(chan struct{}), exited: make(chan struct{})}
	go b.run(pgFlushInterval)
	return &PGHandler{batch: b}
}

// Stop ends the background writer and returns once the buffer is flushed.
func (h *PGHandler) Stop() {
	h.batch.stopped.Do(func() { close(h.batch.done) })
	<-h.batch.exited
}

func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := map[string]any{}
	for _, a := range h.attrs {
		column(&entry, extra, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		column(&entry, extra, h.grouped(a))
		return true
	})

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.batch.add(entry)
	return nil
}

// column routes well-known keys to their own columns. Everything else lands
// in the extra JSON document.
func column(entry *models.SystemLog, extra map[string]any, a slog.Attr) {
	switch a.Key {
	case "logger":
		entry.Logger = a.Value.String()
	case "request_id":
		entry.RequestID = a.Value.String()
	case "login":
		login := a.Value.String()
		entry.Login = &login
	case "action":
		entry.Action = a.Value.String()
	case "error":
		entry.Error = a.Value.String()
	case "latency_ms":
		entry.LatencyMs = millis(a.Value)
	default:
		extra[a.Key] = a.Value.Resolve().Any()
	}
}

func millis(v slog.Value) int {
	switch v.Kind() {
	case slog.KindDuration:
		return int(v.Duration().Milliseconds())
	case slog.KindFloat64:
		return int(math.Round(v.Float64()))
	case slog.KindInt64:
		return int(v.Int64())
	}
	return 0
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		c.attrs = append(c.attrs, h.grouped(a))
	}
	return &c
}

func (h *PGHandler) grouped(a slog.Attr) slog.Attr {
	if h.group == "" {
		return a
	}
	return slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
}

// WithGroup prefixes later keys with the group name, so grouped attributes
// never fill the dedicated columns.
func (h *PGHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	if c.group != "" {
		name = c.group + "." + name
	}
	c.group = name
	return &c
}
