package middleware

import (
	"net/http"
	"time"

	"github.com/fakhrymubarak/weather-gateway/internal/metrics"
)

// Metrics records request counts and latencies under a fixed endpoint label.
func Metrics(m *metrics.Metrics, endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			m.ObserveHTTP(r.Method, endpoint, wrapped.statusCode, time.Since(start).Seconds())
		})
	}
}
