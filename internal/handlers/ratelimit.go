package handlers

import (
	"net"
	"net/http"

	"github.com/gamehub/apiserver/internal/cache"
	"go.uber.org/zap"
)

// RateLimit rejects clients that exceed limiter with 429. Limiter errors
// let the request through.
func RateLimit(limiter cache.Limiter, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + ":" + r.URL.Path
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Warn("rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
