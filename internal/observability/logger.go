package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey string

const ctxKeySessionID ctxKey = "session_id"

var logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))

func Logger() *slog.Logger {
	return logger
}

// Configure replaces the process logger. Level accepts the usual names
// (debug, info, warn, error); anything else falls back to info. A nil writer
// silences logging entirely.
func Configure(w io.Writer, level string) {
	if w == nil {
		w = io.Discard
	}
	logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// WithSessionID stores a session id in the context so nested components log it.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, sessionID)
}

// LoggerFromContext adds session_id if present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	sessionID, _ := ctx.Value(ctxKeySessionID).(string)
	if sessionID == "" {
		return logger
	}
	return logger.With("session_id", sessionID)
}
