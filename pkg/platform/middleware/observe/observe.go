// Package observe logs completed requests and feeds the latency histogram.
package observe

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sgea/internal/platform/metrics"
	"sgea/pkg/requestcontext"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware times every request, records it on the histogram keyed by the
// chi route pattern, and writes one structured access-log line.
func Middleware(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			elapsed := time.Since(start)
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			m.ObserveRequest(route, strconv.Itoa(recorder.status), elapsed.Seconds())

			ctx := r.Context()
			logger.InfoContext(ctx, "request completed",
				"method", r.Method,
				"route", route,
				"status", recorder.status,
				"duration_ms", elapsed.Milliseconds(),
				"request_id", requestcontext.RequestID(ctx),
				"client_ip", requestcontext.ClientIP(ctx),
			)
		})
	}
}
