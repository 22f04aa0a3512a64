package observability

import (
	"net/http"
	"strconv"
	"time"
)

// knownRoutes bounds the route label cardinality. Any other path is
// recorded as "other".
var knownRoutes = map[string]bool{
	"/v1/chat/completions": true,
	"/v1/models":           true,
	"/health":              true,
	"/healthz":             true,
}

// RouteLabel maps a request path to its metrics label. metricsPath is the
// configured metrics endpoint, empty when disabled.
func RouteLabel(path, metricsPath string) string {
	if knownRoutes[path] || (metricsPath != "" && path == metricsPath) {
		return path
	}
	return "other"
}

// MetricsMiddleware returns middleware that records request metrics.
// Requests to metricsPath are labelled with that path.
//
// It captures:
//   - ollagate_requests_total (counter): incremented per request with method, route, and status class labels
//   - ollagate_request_duration_seconds (histogram): request duration with method and route labels
func MetricsMiddleware(metricsPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			duration := time.Since(start).Seconds()
			route := RouteLabel(r.URL.Path, metricsPath)

			// Status class label like "2xx", "4xx", "5xx".
			statusStr := strconv.Itoa(sw.status/100) + "xx"

			RequestsTotal.WithLabelValues(r.Method, route, statusStr).Inc()
			RequestDuration.WithLabelValues(r.Method, route).Observe(duration)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// WriteHeader captures the status code and delegates to the underlying writer.
func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write delegates to the underlying writer and marks the status as written.
func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Flush delegates to the underlying writer if it implements http.Flusher.
// This is essential for SSE streaming support.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter, enabling http.ResponseController
// and similar utilities to access the original writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
