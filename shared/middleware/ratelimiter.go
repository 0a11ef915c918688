package middleware

import (
	"fmt"
	"net"
	"net/http"

	"github.com/wam-dev/threads/shared/middleware/ratelimiter"
	"github.com/wam-dev/threads/shared/utils"
)

func RateLimit(rl *ratelimiter.UserRateLimiter, getKey func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := getKey(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !rl.Allow(key) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentityKey keys limits by caller. Needs NeedAuth in front of it.
func GetIdentityKey(r *http.Request) (string, error) {
	identity := GetIdentityFromContext(r)
	if identity == "" {
		return "", fmt.Errorf("no identity in request context")
	}
	return "identity_" + identity, nil
}

// GetIP trusts only RemoteAddr, there is no reverse proxy in front.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid IP address: %s", ip)
	}
	return ip, nil
}
