package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"
)

// ローカル開発用の色付きハンドラ
type prettyHandler struct {
	opts  *slog.HandlerOptions
	out   io.Writer
	mu    sync.Mutex
	attrs []slog.Attr
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts != nil && h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String()

	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.CyanString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	fields := make(map[string]interface{}, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})

	var fieldStr string
	if len(fields) > 0 {
		b, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		fieldStr = color.WhiteString(string(b))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := fmt.Fprintf(h.out, "%s %s %s %s\n",
		r.Time.Format("15:04:05.000"),
		level,
		color.CyanString(r.Message),
		fieldStr,
	)
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyHandler{
		opts:  h.opts,
		out:   h.out,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *prettyHandler) WithGroup(_ string) slog.Handler {
	return h
}
