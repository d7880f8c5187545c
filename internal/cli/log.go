package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	jsonFormat = "json"
	textFormat = "text"
)

// newLogHandler builds the slog handler selected by the log flags.
func newLogHandler(w io.Writer, level, format string) (slog.Handler, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case jsonFormat:
		return slog.NewJSONHandler(w, opts), nil
	case textFormat, "":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
