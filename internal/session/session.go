package session

import (
	"context"
	"math/rand/v2"
	"unsafe"
)

// We define unexported key types to prevent key collisions with other packages.
type (
	traceIDCtxKey struct{}
	targetCtxKey  struct{}
)

// WithNewTraceID ensures a trace ID is present in the context.
// If one does not exist, it generates a new random trace ID and returns
// a new context carrying it.
// If one already exists, it returns the original context unmodified.
func WithNewTraceID(ctx context.Context) context.Context {
	if _, ok := TraceIDFrom(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, traceIDCtxKey{}, generateTraceID())
}

// TraceIDFrom extracts a trace ID string from the context, if one exists.
func TraceIDFrom(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(traceIDCtxKey{}).(string)
	if ok {
		return traceID, true
	}
	return "", false
}

// WithTarget returns a new context carrying the destination a write is aimed at.
func WithTarget(ctx context.Context, target string) context.Context {
	return context.WithValue(ctx, targetCtxKey{}, target)
}

func TargetFrom(ctx context.Context) (string, bool) {
	target, ok := ctx.Value(targetCtxKey{}).(string)
	return target, ok
}

// generateTraceID creates a new random trace ID.
func generateTraceID() string {
	// 16 hex chars require 16 bytes (each hex char is 1 byte).
	b := make([]byte, 16)

	// We use a 64-bit (8 byte) random value, which is encoded as 16 hex characters.
	q := rand.Uint64()

	for i := 15; i >= 0; i-- {
		r := uint8(q & 0xF)
		q >>= 4
		if r > 9 {
			r += 0x27
		}
		b[i] = r + 0x30
	}

	return unsafe.String(unsafe.SliceData(b), 16)
}
