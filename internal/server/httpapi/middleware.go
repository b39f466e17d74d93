package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/stallpass/internal/common"
	"github.com/dmitrijs2005/stallpass/internal/logging"
	"github.com/dmitrijs2005/stallpass/internal/server/metrics"
	"github.com/google/uuid"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// LoggingMiddleware logs one line per request and tags it with a request
// ID, taken from the X-Request-ID header or generated, which is echoed
// back to the client.
func LoggingMiddleware(logger logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := strings.TrimSpace(r.Header.Get(common.RequestIDHeaderName))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderName, requestID)

		writer := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(writer, r)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", writer.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", clientIP(r, false),
			"request_id", requestID,
		}
		if writer.status >= http.StatusInternalServerError {
			logger.Error(r.Context(), "request", args...)
			return
		}
		logger.Info(r.Context(), "request", args...)
	})
}

// MetricsMiddleware counts requests per matched route pattern. It must
// wrap the ServeMux directly so the pattern is visible once the mux has
// run.
func MetricsMiddleware(mt *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		writer := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(writer, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		mt.ObserveRequest(r.Method, route, writer.status, time.Since(start))
	})
}

// CORS lets browser clients on any origin call the API, the admin and
// auth headers included.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+common.AdminKeyHeaderName+", "+common.RequestIDHeaderName)
		h.Set("Access-Control-Expose-Headers", "Content-Disposition, "+common.ExportKeyHeaderName+", "+common.RequestIDHeaderName)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
