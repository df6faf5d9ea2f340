package middleware

import (
	"net/http"
	"time"

	"tradebot/pkg/utils"
)

// responseWriter captures the status code and byte count a handler writes,
// since http.ResponseWriter exposes neither after the fact.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logging records method, path, status, latency and response size for every
// request through the structured logger.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		utils.Info("http request",
			utils.String("method", r.Method),
			utils.String("path", r.URL.Path),
			utils.Int("status", wrapped.statusCode),
			utils.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
			utils.Int64("response_bytes", wrapped.written),
		)
	})
}
