// Package log provides structured logging setup for modeleval.
//
// Logging goes through Go's log/slog with a JSON handler; a wrapping
// handler extracts cockroachdb/errors stack traces into a dedicated
// attribute so a failed analysis is debuggable from the log stream alone.
package log

import (
	"fmt"
	"log/slog"
	"os"
)

// SetupLogger configures the default slog logger with a JSON handler at the
// given level ("debug", "info", "warn", "error").
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))
}

// ToLogLevel converts a level string to a slog.Level. Unknown strings fall
// back to info with a note on stderr.
func ToLogLevel(loglevel string) slog.Level {
	switch loglevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "unknown log level %q, using info\n", loglevel)
		return slog.LevelInfo
	}
}
