// Package logger provides structured logging for the MediaKit runtime.
package logger

import (
	"context"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// Context keys for common logging fields.
// These keys are used to store values in context.Context that will be
// automatically extracted and added to log entries.
const (
	// ContextKeyMediaID identifies the media object being operated on.
	ContextKeyMediaID contextKey = "media_id"

	// ContextKeyChannel identifies the messaging channel a message came from.
	ContextKeyChannel contextKey = "channel"

	// ContextKeySender identifies the message sender.
	ContextKeySender contextKey = "sender"

	// ContextKeySubsystem identifies the external subsystem holding media references.
	ContextKeySubsystem contextKey = "subsystem"

	// ContextKeyRequestID identifies the individual request.
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyCorrelationID is used for distributed tracing.
	ContextKeyCorrelationID contextKey = "correlation_id"

	// ContextKeyEnvironment identifies the deployment environment.
	ContextKeyEnvironment contextKey = "environment"
)

// allContextKeys lists all context keys that should be extracted for logging.
// This is used by the handler to iterate over all possible context values.
var allContextKeys = []contextKey{
	ContextKeyMediaID,
	ContextKeyChannel,
	ContextKeySender,
	ContextKeySubsystem,
	ContextKeyRequestID,
	ContextKeyCorrelationID,
	ContextKeyEnvironment,
}

// WithMediaID returns a new context with the media id set.
func WithMediaID(ctx context.Context, mediaID string) context.Context {
	return context.WithValue(ctx, ContextKeyMediaID, mediaID)
}

// WithChannel returns a new context with the channel name set.
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, ContextKeyChannel, channel)
}

// WithSender returns a new context with the sender set.
func WithSender(ctx context.Context, sender string) context.Context {
	return context.WithValue(ctx, ContextKeySender, sender)
}

// WithSubsystem returns a new context with the subsystem name set.
func WithSubsystem(ctx context.Context, subsystem string) context.Context {
	return context.WithValue(ctx, ContextKeySubsystem, subsystem)
}

// WithRequestID returns a new context with the request ID set.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// WithCorrelationID returns a new context with the correlation ID set.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationID, correlationID)
}

// WithEnvironment returns a new context with the environment set.
func WithEnvironment(ctx context.Context, environment string) context.Context {
	return context.WithValue(ctx, ContextKeyEnvironment, environment)
}

// LoggingFields holds all standard logging context fields.
// This struct is used with WithLoggingContext for bulk field setting.
type LoggingFields struct {
	MediaID       string
	Channel       string
	Sender        string
	Subsystem     string
	RequestID     string
	CorrelationID string
	Environment   string
}

// WithLoggingContext returns a new context with multiple logging fields set at once.
// Only non-empty values are set.
func WithLoggingContext(ctx context.Context, fields *LoggingFields) context.Context {
	if fields == nil {
		return ctx
	}
	if fields.MediaID != "" {
		ctx = WithMediaID(ctx, fields.MediaID)
	}
	if fields.Channel != "" {
		ctx = WithChannel(ctx, fields.Channel)
	}
	if fields.Sender != "" {
		ctx = WithSender(ctx, fields.Sender)
	}
	if fields.Subsystem != "" {
		ctx = WithSubsystem(ctx, fields.Subsystem)
	}
	if fields.RequestID != "" {
		ctx = WithRequestID(ctx, fields.RequestID)
	}
	if fields.CorrelationID != "" {
		ctx = WithCorrelationID(ctx, fields.CorrelationID)
	}
	if fields.Environment != "" {
		ctx = WithEnvironment(ctx, fields.Environment)
	}
	return ctx
}

// ExtractLoggingFields extracts all logging fields from a context.
// Returns a LoggingFields struct with all values found in the context.
func ExtractLoggingFields(ctx context.Context) LoggingFields {
	fields := LoggingFields{}
	if v := ctx.Value(ContextKeyMediaID); v != nil {
		fields.MediaID, _ = v.(string)
	}
	if v := ctx.Value(ContextKeyChannel); v != nil {
		fields.Channel, _ = v.(string)
	}
	if v := ctx.Value(ContextKeySender); v != nil {
		fields.Sender, _ = v.(string)
	}
	if v := ctx.Value(ContextKeySubsystem); v != nil {
		fields.Subsystem, _ = v.(string)
	}
	if v := ctx.Value(ContextKeyRequestID); v != nil {
		fields.RequestID, _ = v.(string)
	}
	if v := ctx.Value(ContextKeyCorrelationID); v != nil {
		fields.CorrelationID, _ = v.(string)
	}
	if v := ctx.Value(ContextKeyEnvironment); v != nil {
		fields.Environment, _ = v.(string)
	}
	return fields
}
