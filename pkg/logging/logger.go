package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "requestID"

// LevelTrace sits below debug and is only enabled with -vv
const LevelTrace = slog.LevelDebug - 4

var (
	logger *slog.Logger
	out    io.Writer = os.Stderr
)

func init() {
	// Compact handler for readable console output; SetJSONOutput switches to JSON
	logger = slog.New(NewCompactHandler(out, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// SetLevel changes the logging level
func SetLevel(level slog.Level) {
	logger = slog.New(NewCompactHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
}

// SetJSONOutput switches to JSON format output
func SetJSONOutput(level slog.Level) {
	logger = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
}

// ParseLevel resolves a verbosity name, or a count of -v flags when the name
// is empty, to a slog level.
func ParseLevel(verbosity string, verboseCount int) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(verbosity)) {
	case "":
		switch {
		case verboseCount >= 2:
			return LevelTrace, nil
		case verboseCount == 1:
			return slog.LevelDebug, nil
		}
		return slog.LevelInfo, nil
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown verbosity %q", verbosity)
}

// New returns a logger tagged with the given component name
func New(component string) *slog.Logger {
	return logger.With("component", component)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func withRequestID(ctx context.Context, args []any) []any {
	requestID := GetRequestID(ctx)
	if requestID != "" {
		return append([]any{"requestID", requestID}, args...)
	}
	return args
}

// Trace logs at TRACE level (very verbose, debug-time only)
func Trace(msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// DebugContext logs at DEBUG level with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	logger.DebugContext(ctx, msg, withRequestID(ctx, args)...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// InfoContext logs at INFO level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	logger.InfoContext(ctx, msg, withRequestID(ctx, args)...)
}

// Warn logs at WARN level (should be monitored)
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// WarnContext logs at WARN level with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	logger.WarnContext(ctx, msg, withRequestID(ctx, args)...)
}

// Error logs at ERROR level
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// ErrorContext logs at ERROR level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	logger.ErrorContext(ctx, msg, withRequestID(ctx, args)...)
}

// Fatal logs at ERROR level and exits
func Fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}
