package core

import (
	"context"
	"strings"
)

type contextKey string

const requestIDContextKey contextKey = "transactions.request_id"

// WithRequestID attaches a trace identifier to the context. The inbound layer
// sets one per request so the ingest → dispatch → processor path shares a
// single trace id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDContextKey).(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
