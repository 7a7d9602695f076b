package utils

import "context"

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID stamps the per-request correlation id onto a context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the correlation id, "" when none was set.
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
