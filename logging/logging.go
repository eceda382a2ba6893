// Package logging configures the process wide structured logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Setup installs the default slog logger. Format is "text" (coloured console output when stderr is
// a terminal) or "json".
func Setup(debug bool, format string) {
	slog.SetDefault(slog.New(handler(os.Stderr, debug, format)))
}

func handler(f *os.File, debug bool, format string) slog.Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	}

	var w io.Writer = f
	if isatty.IsTerminal(f.Fd()) {
		w = colorable.NewColorable(f)
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    !isatty.IsTerminal(f.Fd()),
	})
}

// FromContext returns the default logger, tagged with the chi request ID if the context has one.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if id := middleware.GetReqID(ctx); id != "" {
		logger = logger.With("request_id", id)
	}

	return logger
}
