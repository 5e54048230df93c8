// File: internal/middleware/ratelimit.go
package middleware

import (
	"fmt"
	"log"
	"net/http"

	"github.com/iakadir/go-iakadir/internal/ratelimit"
)

// RateLimitMiddleware limits requests per session subject, else per client IP.
// It must run after the credential middleware to see the subject.
func RateLimitMiddleware(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + ratelimit.GetClientIP(r)
			if sub, ok := SubjectFromContext(r.Context()); ok {
				key = "user:" + sub
			}

			info := limiter.Allow(key)
			if info.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
				w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
			}

			if !info.Allowed {
				log.Printf("[RateLimit] Blocked request from %s", key)
				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", info.RetryAfter.Seconds()))
				writeJSONError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
