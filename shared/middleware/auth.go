package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/wam-dev/threads/shared/domain"
	jwt_internal "github.com/wam-dev/threads/shared/jwt"
	"github.com/wam-dev/threads/shared/utils"
)

// Key to store the caller's identity in the request context
type key int

const IdentityKey key = 0

// Auth verifies identity-provider tokens.
type Auth struct {
	jwtService jwt_internal.JwtService
}

func NewAuth(jwtService jwt_internal.JwtService) *Auth {
	return &Auth{jwtService: jwtService}
}

// NeedAuth returns middleware that rejects requests without a valid token.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				http.Error(w, "Please sign-in", http.StatusUnauthorized)
				return
			}

			identity, err := a.jwtService.DecodeToken(tokenString)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Cookie first (browser clients), then Authorization header.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie("__session"); err == nil {
		return cookie.Value
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return token
	}
	return ""
}

// GetIdentityFromContext returns the caller's identity id, "" if unauthenticated.
func GetIdentityFromContext(r *http.Request) domain.IdentityId {
	identity, _ := r.Context().Value(IdentityKey).(domain.IdentityId)
	return identity
}
