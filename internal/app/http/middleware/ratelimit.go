package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"reseller-ops/go_backend/internal/app/http/httpx"
	"reseller-ops/go_backend/internal/infra/ratelimit"
)

// RateLimit applies the limiter per authenticated user, so it must run after
// Auth. A limiter error lets the request through.
func RateLimit(l ratelimit.Limiter, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := UserID(r.Context())
			if !ok {
				key = "ip:" + r.RemoteAddr
			}
			allowed, err := l.Allow(r.Context(), key)
			if err != nil {
				log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				httpx.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
