package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit caps inbound requests with a token bucket shared by all callers.
// A non-positive rate disables limiting.
func RateLimit(requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeErrorResponse(w, http.StatusTooManyRequests, ErrorDetail{
					Code:      "RATE_LIMITED",
					Message:   "Too many requests",
					RequestID: GetRequestID(r.Context()),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
