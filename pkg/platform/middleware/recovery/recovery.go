// Package recovery converts handler panics into 500 responses.
package recovery

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"sgea/pkg/requestcontext"
)

// Middleware recovers from panics in downstream handlers, logs the stack,
// and answers with a bare 500 so one broken request cannot take the
// process down.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					ctx := r.Context()
					logger.ErrorContext(ctx, "panic recovered",
						"panic", rec,
						"request_id", requestcontext.RequestID(ctx),
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"internal_error"}`))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
