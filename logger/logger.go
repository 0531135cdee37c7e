// Package logger provides structured logging for the MediaKit runtime.
//
// This package wraps Go's standard log/slog with convenience functions for:
//   - Media lifecycle logging (registration, materialization, sweeps)
//   - Content fetch logging with automatic URL credential redaction
//   - Contextual logging with request/channel correlation
//   - Level-based verbosity control, globally and per component
//
// All exported functions use the global DefaultLogger which can be configured
// for different output formats and log levels.
package logger

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
)

var (
	// DefaultLogger is the global structured logger instance.
	// It is safe for concurrent use and initialized with slog.LevelInfo by default.
	DefaultLogger *slog.Logger

	// logOutput is the destination for all handlers built by this package.
	// Tests swap it for a buffer.
	logOutput io.Writer = os.Stderr

	// customHandler, when non-nil, was installed via SetLogger and wins over
	// any later Configure call.
	customHandler slog.Handler
)

func init() {
	// Check LOG_LEVEL environment variable
	level := slog.LevelInfo
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		level = ParseLevel(envLevel)
	}

	// Initialize with text handler writing to stderr
	handler := slog.NewTextHandler(logOutput, &slog.HandlerOptions{
		Level: level,
	})
	DefaultLogger = slog.New(NewContextHandler(handler))
}

// ParseLevel converts a level name to a slog.Level.
// Unknown names fall back to slog.LevelInfo.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// SetLevel changes the logging level for all subsequent log operations.
// This is safe for concurrent use as it replaces the entire logger instance.
func SetLevel(level slog.Level) {
	handler := slog.NewTextHandler(logOutput, &slog.HandlerOptions{
		Level: level,
	})
	DefaultLogger = slog.New(NewContextHandler(handler))
}

// SetVerbose enables debug-level logging when verbose is true, otherwise sets info-level.
// This is a convenience wrapper around SetLevel for command-line verbose flags.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
	} else {
		SetLevel(slog.LevelInfo)
	}
}

// SetLogger installs a custom handler as the global logger. A handler set
// here is preserved across Configure calls; pass nil to return control to
// the package.
func SetLogger(handler slog.Handler) {
	customHandler = handler
	if handler != nil {
		DefaultLogger = slog.New(handler)
		return
	}
	SetLevel(slog.LevelInfo)
}

// Info logs an informational message with structured key-value attributes.
// Args should be provided in key-value pairs: key1, value1, key2, value2, ...
func Info(msg string, args ...any) {
	DefaultLogger.Info(msg, args...)
}

// InfoContext logs an informational message with context and structured attributes.
// The context can be used for request tracing and cancellation.
func InfoContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.InfoContext(ctx, msg, args...)
}

// Debug logs a debug-level message with structured attributes.
// Debug messages are only output when the log level is set to LevelDebug or lower.
func Debug(msg string, args ...any) {
	DefaultLogger.Debug(msg, args...)
}

// DebugContext logs a debug message with context and structured attributes.
func DebugContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.DebugContext(ctx, msg, args...)
}

// Warn logs a warning message with structured attributes.
// Use for recoverable errors or unexpected but non-critical situations.
func Warn(msg string, args ...any) {
	DefaultLogger.Warn(msg, args...)
}

// WarnContext logs a warning message with context and structured attributes.
func WarnContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.WarnContext(ctx, msg, args...)
}

// Error logs an error message with structured attributes.
// Use for errors that affect operation but don't cause complete failure.
func Error(msg string, args ...any) {
	DefaultLogger.Error(msg, args...)
}

// ErrorContext logs an error message with context and structured attributes.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.ErrorContext(ctx, msg, args...)
}

// Registered logs a successful media registration with structured fields.
// Additional attributes can be passed as key-value pairs after the required parameters.
func Registered(mediaID, origin string, attrs ...any) {
	allAttrs := make([]any, 0, 4+len(attrs))
	allAttrs = append(allAttrs,
		"media_id", mediaID,
		"origin", origin,
	)
	allAttrs = append(allAttrs, attrs...)
	Info("📥 Media Registered", allAttrs...)
}

// Materialized logs a completed content materialization with the detected
// format and the number of bytes written to the managed path.
func Materialized(mediaID, format string, size int64, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs,
		"media_id", mediaID,
		"format", format,
		"size", size,
	)
	allAttrs = append(allAttrs, attrs...)
	Info("📦 Media Materialized", allAttrs...)
}

// MaterializeFailed logs a failed materialization attempt. The record stays
// valid; the next accessor call retries.
func MaterializeFailed(mediaID string, err error, attrs ...any) {
	allAttrs := make([]any, 0, 4+len(attrs))
	allAttrs = append(allAttrs,
		"media_id", mediaID,
		"error", err,
	)
	allAttrs = append(allAttrs, attrs...)
	Error("❌ Media Materialize Failed", allAttrs...)
}

// FetchStart logs an outbound content fetch at debug level.
// This function is a no-op when debug logging is disabled for performance.
func FetchStart(rawURL string, attrs ...any) {
	if !DefaultLogger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	allAttrs := make([]any, 0, 2+len(attrs))
	allAttrs = append(allAttrs, "url", RedactURL(rawURL))
	allAttrs = append(allAttrs, attrs...)
	Debug("🔵 Media Fetch", allAttrs...)
}

// FetchResult logs the outcome of a content fetch. Failures log at error
// level; successes at debug with an emoji status indicator.
func FetchResult(rawURL string, statusCode int, size int64, err error) {
	attrs := []any{
		"url", RedactURL(rawURL),
		"status_code", statusCode,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		Error("🔴 Media Fetch Failed", attrs...)
		return
	}
	if !DefaultLogger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	var emoji string
	switch {
	case statusCode >= 200 && statusCode < 300:
		emoji = "🟢"
	case statusCode >= 400:
		emoji = "🔴"
	default:
		emoji = "🟡"
	}
	attrs = append(attrs, "size", size)
	Debug(emoji+" Media Fetch Complete", attrs...)
}

// Swept logs the result of an unreferenced-media sweep.
func Swept(count int, attrs ...any) {
	allAttrs := make([]any, 0, 2+len(attrs))
	allAttrs = append(allAttrs, "count", count)
	allAttrs = append(allAttrs, attrs...)
	Info("🧹 Unreferenced Media Swept", allAttrs...)
}

// sensitiveQueryKeys are query parameter names whose values are replaced
// before a URL is logged. Pre-signed storage URLs carry their credentials
// in the query string.
var sensitiveQueryKeys = map[string]struct{}{
	"token":            {},
	"access_token":     {},
	"apikey":           {},
	"api_key":          {},
	"key":              {},
	"sig":              {},
	"signature":        {},
	"x-amz-signature":  {},
	"x-amz-credential": {},
	"x-goog-signature": {},
}

// RedactURL removes credentials from a URL before logging: userinfo is
// dropped entirely and the values of known credential-bearing query
// parameters are replaced with a redacted marker. Strings that do not parse
// as URLs are returned unchanged.
//
// This function is safe for concurrent use.
func RedactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if parsed.User != nil {
		parsed.User = url.User("REDACTED")
	}

	query := parsed.Query()
	changed := false
	for key := range query {
		if _, sensitive := sensitiveQueryKeys[strings.ToLower(key)]; sensitive {
			query.Set(key, "[REDACTED]")
			changed = true
		}
	}
	if changed {
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}
