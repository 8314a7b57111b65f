// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Tenant resolution, authentication, and request metadata are handled by the
// transport layer; services only read the resolved values from
// context. Keeping this package free of net/http lets services and background
// jobs share the same accessors.
//
// Usage in services (read values):
//
//	tenantID := requestcontext.TenantID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests and jobs (inject values):
//
//	ctx = requestcontext.WithTenantID(ctx, tenantID)
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Context key types (unexported for encapsulation).
type (
	tenantIDKey    struct{}
	actorIDKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// TenantID retrieves the resolved tenant identifier from the context.
// Returns the zero UUID if not set.
func TenantID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(tenantIDKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.UUID{}
}

// WithTenantID injects a tenant identifier into the context.
func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantIDKey{}, tenantID)
}

// ActorID retrieves the acting user (operator or officer) from the context.
func ActorID(ctx context.Context) string {
	if id, ok := ctx.Value(actorIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithActorID injects the acting user into the context.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey{}, actorID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (jobs, CLI) that did not
// pin a batch time.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins a specific time in a context. Used by service unit tests and
// by the reconciliation jobs so a whole batch observes one consistent time.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
