package logger

import (
	"context"

	"go.uber.org/zap"
)

type correlationIDKey struct{}

// ContextWithCorrelationID returns a copy of ctx carrying the request's correlation ID.
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationID returns the correlation ID carried by ctx, or "".
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// FromContext tags l with the correlation ID carried by ctx, if any.
func FromContext(ctx context.Context, l *zap.Logger) *zap.Logger {
	if correlationID := CorrelationID(ctx); correlationID != "" {
		return l.With(zap.String("correlation_id", correlationID))
	}
	return l
}
