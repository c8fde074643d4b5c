package middleware

import (
	"net"
	"net/http"

	"github.com/itchan-dev/threads/backend/internal/middleware/ratelimiter"
	"github.com/itchan-dev/threads/shared/logger"
	"github.com/itchan-dev/threads/shared/utils"
)

// RateLimit rejects requests with 429 once the client identified by
// getIdentity runs out of tokens.
func RateLimit(l *ratelimiter.Limiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				logger.Log.Warn("can't identify client for rate limit", "error", err)
				http.Error(w, "Bad request", http.StatusBadRequest)
				return
			}
			if !l.Allow(identity) {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP identifies clients by address, trusting forwarding headers only
// from the given proxies.
func ClientIP(trustedProxies []*net.IPNet) func(r *http.Request) (string, error) {
	return func(r *http.Request) (string, error) {
		return utils.GetIP(r, trustedProxies)
	}
}
