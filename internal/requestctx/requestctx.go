// Package requestctx carries per-request values across package boundaries.
package requestctx

import "context"

type ctxKey int

const requestIDKey ctxKey = iota

// HeaderRequestID is the header used to propagate request ids.
const HeaderRequestID = "X-Request-ID"

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
