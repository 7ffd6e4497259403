// Package request assigns every request an identifier for log correlation.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"sgea/pkg/requestcontext"
)

// Header carries the request ID back to the client and accepts one from
// trusted upstream proxies.
const Header = "X-Request-Id"

// Middleware ensures the context carries a request ID, minting one when the
// client did not send it.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(Header, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
