package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "sgea/pkg/domain"
	"sgea/pkg/requestcontext"
)

// Claims represents the identity asserted by a validated access token.
type Claims struct {
	UserID   string
	Username string
	Role     string
}

// TokenValidator validates bearer tokens and returns the identity they carry.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated account in the context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			accountID, err := id.ParseAccountID(claims.UserID)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - malformed subject",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx := requestcontext.WithAccount(r.Context(), accountID, claims.Username, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose account does not hold one
// of the given roles. Apply after RequireAuth.
func RequireRole(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, ok := allowed[requestcontext.Role(ctx)]; !ok {
				logger.WarnContext(ctx, "forbidden - insufficient role",
					"role", requestcontext.Role(ctx),
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
