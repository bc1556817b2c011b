package logging

import "context"

type contextKey string

const correlationKeyContextKey contextKey = "correlation_key"

// WithCorrelationKey returns a context carrying the correlation key of the
// current logical operation. Handlers set it once at the operation
// boundary; every context-aware log line below picks it up.
func WithCorrelationKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, correlationKeyContextKey, key)
}

// CorrelationKeyFromContext returns the correlation key from the context,
// or "" if none is set.
func CorrelationKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(correlationKeyContextKey).(string)
	return key
}

// extractContextFields extracts log fields from context values.
func extractContextFields(ctx context.Context) []any {
	var fields []any
	if key := CorrelationKeyFromContext(ctx); key != "" {
		fields = append(fields, "correlation_key", key)
	}
	return fields
}
