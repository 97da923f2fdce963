// Package requestcontext provides transport-independent context accessors for
// the values the host execution environment supplies to every ledger call.
//
// Usage in the ledger service (read values):
//
//	caller := requestcontext.Caller(ctx)
//	now := requestcontext.Clock(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithCaller(ctx, caller)
//	ctx = requestcontext.WithTime(ctx, time.Now())
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithClock(ctx, 1_700_000_000)
package requestcontext

import (
	"context"
	"time"

	"idledger/pkg/domain"
)

type (
	callerKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyCaller      = callerKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Caller
// -----------------------------------------------------------------------------

// Caller retrieves the invoking address. Returns the zero Address if not set.
func Caller(ctx context.Context) domain.Address {
	if caller, ok := ctx.Value(ContextKeyCaller).(domain.Address); ok {
		return caller
	}
	return ""
}

// WithCaller injects the invoking address into the context.
func WithCaller(ctx context.Context, caller domain.Address) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Ledger clock
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

// Clock returns the ledger clock value for the call: the request time in unix
// seconds. Every read within one call observes the same value.
func Clock(ctx context.Context) uint64 {
	sec := Now(ctx).Unix()
	if sec < 0 {
		return 0
	}
	return uint64(sec)
}

// WithClock injects a ledger clock value expressed in unix seconds.
func WithClock(ctx context.Context, clock uint64) context.Context {
	return WithTime(ctx, time.Unix(int64(clock), 0)) //nolint:gosec // clock values stay within the expiration range
}
