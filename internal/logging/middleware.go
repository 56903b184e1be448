package logging

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/joescharf/tracker/internal/middleware"
)

// Middleware attaches a request-scoped logger to the context and writes one
// access-log line per request.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := logger.With(zap.String("request_id", r.Header.Get(middleware.RequestIDHeader)))

			rec := middleware.NewStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(WithContext(r.Context(), reqLogger)))

			reqLogger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}
