package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New は本番ではJSON、それ以外はテキストのロガーを返す。
// slog.SetDefault もここで行う。
func New(production bool, level string) *slog.Logger {
	return NewWithWriter(os.Stdout, production, level)
}

func NewWithWriter(w io.Writer, production bool, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	if production {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	l := slog.New(h).With(slog.String("service", "danicandles-api"))
	slog.SetDefault(l)
	return l
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
