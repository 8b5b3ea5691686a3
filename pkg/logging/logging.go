// Package logging configures the process-wide slog logger from the CLI's
// verbosity count.
package logging

import (
	"context"
	"io"
	"log/slog"
)

// LevelTrace sits below slog.LevelDebug and is enabled by -vvvv.
const LevelTrace = slog.Level(-8)

// LevelForVerbosity maps the number of -v flags to a level:
// 0 error, 1 warn, 2 info, 3 debug, 4 and above trace.
func LevelForVerbosity(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelError
	case verbosity == 1:
		return slog.LevelWarn
	case verbosity == 2:
		return slog.LevelInfo
	case verbosity == 3:
		return slog.LevelDebug
	}
	return LevelTrace
}

// New builds a text logger writing to w at the level for verbosity.
func New(w io.Writer, verbosity int) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: LevelForVerbosity(verbosity),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	})
	return slog.New(handler)
}

// Setup installs the logger for verbosity as the slog default.
func Setup(w io.Writer, verbosity int) {
	slog.SetDefault(New(w, verbosity))
}

// Trace logs at LevelTrace on the default logger.
func Trace(msg string, args ...any) {
	slog.Default().Log(context.Background(), LevelTrace, msg, args...)
}

// TraceEnabled reports whether trace records would be emitted, so callers can
// skip building expensive attributes.
func TraceEnabled() bool {
	return slog.Default().Enabled(context.Background(), LevelTrace)
}
