// Package ratelimit throttles the public endpoints with Redis-backed
// fixed windows. Scopes mirror the traffic classes of the API: anonymous
// catalog browsing is cheap and generous, account creation and login are
// tight, registration writes sit in between.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"sgea/pkg/requestcontext"
)

const keyPrefix = "rl:"

// Scope names a traffic class with its own window and budget.
type Scope struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Predefined scopes. Budgets follow the shape of the endpoints they guard.
var (
	ScopeCatalog = Scope{Name: "catalog", Limit: 120, Window: time.Minute}
	ScopeAuth    = Scope{Name: "auth", Limit: 10, Window: time.Minute}
	ScopeWrite   = Scope{Name: "write", Limit: 30, Window: time.Minute}
)

// Limiter counts requests per (scope, caller, window) in Redis. A nil
// Limiter allows everything, so the API works without Redis configured.
type Limiter struct {
	client *redis.Client
	logger *slog.Logger
}

func New(client *redis.Client, logger *slog.Logger) *Limiter {
	return &Limiter{client: client, logger: logger}
}

// Allow consumes one unit of the caller's budget in the scope. Redis being
// unreachable fails open: throttling is protection, not a correctness rule.
func (l *Limiter) Allow(ctx context.Context, scope Scope, caller string) bool {
	if l == nil || l.client == nil {
		return true
	}

	window := time.Now().Unix() / int64(scope.Window.Seconds())
	key := fmt.Sprintf("%s%s:%s:%d", keyPrefix, scope.Name, caller, window)

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, scope.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.WarnContext(ctx, "rate limiter unavailable, allowing request",
			"scope", scope.Name,
			"error", err.Error(),
		)
		return true
	}
	return count.Val() <= int64(scope.Limit)
}

// Middleware applies the scope per client. Authenticated callers are counted
// by account, anonymous ones by client IP.
func (l *Limiter) Middleware(scope Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller := requestcontext.AccountID(ctx).String()
			if requestcontext.AccountID(ctx).IsNil() {
				caller = requestcontext.ClientIP(ctx)
			}
			if !l.Allow(ctx, scope, caller) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(scope.Window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"Too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
