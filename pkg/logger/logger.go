package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New создает логгер, пишущий в stderr.
func New(level string, format string) (*slog.Logger, error) {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter создает логгер в формате json, text или color.
func NewWithWriter(w io.Writer, level string, format string) (*slog.Logger, error) {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: slogLevel, ReplaceAttr: shortSource})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{AddSource: true, Level: slogLevel, ReplaceAttr: shortSource})
	case "color":
		// tint сам укорачивает source
		handler = tint.NewHandler(w, &tint.Options{
			AddSource:  true,
			Level:      slogLevel,
			TimeFormat: time.TimeOnly,
		})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return slog.New(handler), nil
}

// Discard возвращает логгер, который ничего не пишет.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// shortSource заменяет source со структурой на строку dir/pkg/file:line.
func shortSource(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key != slog.SourceKey {
		return attr
	}
	src, ok := attr.Value.Any().(*slog.Source)
	if !ok {
		return attr
	}

	return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", TrimPath(src.File), src.Line))
}

// TrimPath возвращает dir/package/file из пути файла.
func TrimPath(path string) string {
	const maxPathLen = 3
	var pathLen int
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			pathLen++
			if pathLen == maxPathLen {
				return path[i+1:]
			}
		}
	}

	return path
}

// ParseLevel понимает DEBUG, INFO, WARN, ERROR в любом регистре и смещения вида WARN+2.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelDebug, fmt.Errorf("unknown log level %q", level)
	}

	return l, nil
}

// Error возвращает атрибут ошибки, подсвечиваемый tint.
func Error(err error) slog.Attr {
	return tint.Err(err)
}
