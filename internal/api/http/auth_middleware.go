package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"bookborrow-funnel/internal/config"
	"bookborrow-funnel/internal/domain"
	"bookborrow-funnel/internal/logger"
	"bookborrow-funnel/internal/security"
)

// AccessTokenCookie carries the bearer credential on plain browser
// navigations, such as the provider redirect, where no header can be set.
const AccessTokenCookie = "access_token"

type AuthMiddleware struct {
	tokenManager security.TokenManager
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

// Handler authenticates requests according to the security level of the
// matched route and attaches the session to the request context.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		routeName := ""
		if route := mux.CurrentRoute(r); route != nil {
			routeName = route.GetName()
		}

		if config.GetSecurityLevel(routeName) == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			logger.Debug("Rejected request", "route", routeName, "error", err)
			msg := "invalid token"
			if errors.Is(err, security.ErrMissingToken) {
				msg = "authorization token is not provided"
			} else if errors.Is(err, security.ErrExpiredToken) {
				msg = "token has expired"
			}
			writeError(w, http.StatusUnauthorized, msg)
			return
		}

		sess := domain.Session{User: claims.User(), Credential: token}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

func extractToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if token != "" {
		// Remove Bearer prefix if present
		if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
			token = token[7:]
		}
		return token
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}
