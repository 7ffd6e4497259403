// Package requestcontext provides HTTP-independent accessors for
// request-scoped values.
//
// Middleware sets these values; services read them. Keeping the package free
// of net/http lets services consume identity, origin metadata, and the
// request clock without pulling in transport code, and lets tests inject all
// of it with plain context.WithValue helpers.
//
// Usage in services:
//
//	actor := requestcontext.AccountID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests:
//
//	ctx = requestcontext.WithAccount(ctx, organizerID, "maria", account.RoleOrganizer)
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "sgea/pkg/domain"
)

type (
	accountIDKey   struct{}
	usernameKey    struct{}
	roleKey        struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// AccountID retrieves the authenticated account ID from the context.
// Returns the zero value (nil UUID) when the request is anonymous.
func AccountID(ctx context.Context) id.AccountID {
	if accountID, ok := ctx.Value(accountIDKey{}).(id.AccountID); ok {
		return accountID
	}
	return id.AccountID{}
}

// Role retrieves the authenticated account's role, or "" for anonymous
// requests. The value is the role string carried in the access token.
func Role(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey{}).(string); ok {
		return role
	}
	return ""
}

// Username retrieves the authenticated account's username, or "" for
// anonymous requests. Audit entries use it as the actor display value.
func Username(ctx context.Context) string {
	if username, ok := ctx.Value(usernameKey{}).(string); ok {
		return username
	}
	return ""
}

// WithAccount injects the authenticated account identity into the context.
func WithAccount(ctx context.Context, accountID id.AccountID, username, role string) context.Context {
	ctx = context.WithValue(ctx, accountIDKey{}, accountID)
	ctx = context.WithValue(ctx, usernameKey{}, username)
	return context.WithValue(ctx, roleKey{}, role)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context, falling back to
// time.Now for non-HTTP callers (workers, tests that don't care).
//
// All deadline comparisons in the registration and certificate rules go
// through this accessor, so tests pin the clock with WithTime instead of
// sleeping.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
