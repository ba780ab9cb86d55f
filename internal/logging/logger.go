package logging

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// Root is the logger name every other name falls back to.
const Root = "root"

var (
	sink   atomic.Pointer[slog.Handler]
	levels = xsync.NewMapOf[string, *slog.LevelVar]()
)

func init() {
	levels.Store(Root, new(slog.LevelVar))
	Install(NewStdoutHandler())
}

// Setup initializes the global slog logger with JSON output to stdout.
func Setup() {
	Install(NewStdoutHandler())
	slog.SetDefault(slog.New(&levelHandler{name: Root}))
}

// NewStdoutHandler writes JSON records to stdout.
func NewStdoutHandler() slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// Install replaces the output handler behind every named logger. Level
// filtering happens before records reach it.
func Install(h slog.Handler) {
	sink.Store(&h)
}

// For returns the logger for a component. Its level can be changed at
// runtime with SetLevel and otherwise follows the root level.
func For(name string) *slog.Logger {
	name = strings.ToLower(name)
	if name == Root {
		return slog.New(&levelHandler{name: Root})
	}
	levels.LoadOrStore(name, nil)
	return slog.New(&levelHandler{name: name})
}

// Level returns the effective level of name and whether it is set explicitly.
func Level(name string) (slog.Level, bool) {
	if lv, ok := levels.Load(strings.ToLower(name)); ok && lv != nil {
		return lv.Level(), true
	}
	root, _ := levels.Load(Root)
	return root.Level(), false
}

// SetLevel sets the level of name. Names are created on first use.
func SetLevel(name string, level slog.Level) {
	name = strings.ToLower(name)
	lv, _ := levels.Compute(name, func(old *slog.LevelVar, _ bool) (*slog.LevelVar, bool) {
		if old == nil {
			old = new(slog.LevelVar)
		}
		return old, false
	})
	lv.Set(level)
}

type LoggerLevel struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// Levels lists every known logger with its effective level, sorted by name.
func Levels() []LoggerLevel {
	var out []LoggerLevel
	levels.Range(func(name string, _ *slog.LevelVar) bool {
		lvl, _ := Level(name)
		out = append(out, LoggerLevel{Name: name, Level: lvl.String()})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ParseLevel accepts DEBUG, INFO, WARN/WARNING, ERROR (any case).
func ParseLevel(s string) (slog.Level, bool) {
	var l slog.Level
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		s = "WARN"
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, false
	}
	return l, true
}

// levelHandler filters by the named level and tags records with the logger
// name before handing them to the installed sink.
type levelHandler struct {
	name string
	wrap []func(slog.Handler) slog.Handler
}

func (h *levelHandler) Enabled(_ context.Context, level slog.Level) bool {
	min, _ := Level(h.name)
	return level >= min
}

func (h *levelHandler) Handle(ctx context.Context, record slog.Record) error {
	target := *sink.Load()
	for _, w := range h.wrap {
		target = w(target)
	}
	if h.name != Root {
		record = record.Clone()
		record.AddAttrs(slog.String("logger", h.name))
	}
	if !target.Enabled(ctx, record.Level) {
		return nil
	}
	return target.Handle(ctx, record)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.with(func(t slog.Handler) slog.Handler { return t.WithAttrs(attrs) })
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return h.with(func(t slog.Handler) slog.Handler { return t.WithGroup(name) })
}

func (h *levelHandler) with(w func(slog.Handler) slog.Handler) slog.Handler {
	wrap := make([]func(slog.Handler) slog.Handler, len(h.wrap), len(h.wrap)+1)
	copy(wrap, h.wrap)
	return &levelHandler{name: h.name, wrap: append(wrap, w)}
}
