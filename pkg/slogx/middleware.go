package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/dentaldesk/pkg/idx"
)

// HTTPMiddleware logs portal requests and attaches a contextual logger and
// request id to the request context.
func HTTPMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			reqID := idx.FromHeader(r.Header.Get("X-Request-ID"))
			rw.Header().Set("X-Request-ID", reqID.String())

			logger := base.With(
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			ctx := WithRequestID(WithContext(r.Context(), logger), reqID)
			next.ServeHTTP(rw, r.WithContext(ctx))

			FromContext(ctx).Info("http_request",
				"status", rw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter

	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
