package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/josh-kwaku/remittance-api/internal/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Logging attaches a request-scoped logger and emits one line per request.
// Health probes are served without a log line.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.With(r.Context(), "request_id", TraceIDFromContext(r.Context()))
		r = r.WithContext(ctx)

		if strings.HasPrefix(r.URL.Path, "/api/v1/health") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := logging.FromContext(ctx).Info
		if rec.status >= http.StatusInternalServerError {
			level = logging.FromContext(ctx).Error
		}
		level("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"remote_ip", ClientIP(r),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
