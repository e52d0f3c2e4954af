// Package middleware holds the request pipeline stages that run before the
// handlers: authentication first, then server membership.
//
// A middleware is a func(next http.Handler) http.Handler. It either calls
// next with an enriched context or answers the request itself.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rossosss/zvonok/handlers"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/services"
)

// AuthMiddleware verifies the bearer token and loads the caller's profile.
type AuthMiddleware struct {
	authService services.AuthService
}

func NewAuthMiddleware(authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Require rejects requests without a valid token with 401.
//
// Header format: Authorization: Bearer <token>
//
// The profile is created on first sight of an identity, so a valid token
// always yields a profile in the context.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		profile, err := m.authService.Authenticate(r.Context(), strings.TrimSpace(tokenString))
		if err != nil {
			pkg.Error(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), handlers.ProfileContextKey, profile)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
