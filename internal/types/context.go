package types

import "context"

type contextKey string

const cycleIDKey contextKey = "cycle_id"

// WithCycleID stores the invocation's cycle ID in the context. The ID is
// attached to every log line and propagated to outbound HTTP requests so
// one evaluate-and-exit cycle can be traced end to end.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleIDKey, id)
}

// GetCycleID retrieves the cycle ID from the context, or "" if unset.
func GetCycleID(ctx context.Context) string {
	id, _ := ctx.Value(cycleIDKey).(string)
	return id
}
