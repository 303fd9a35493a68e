// Package middleware contains HTTP middleware for the ToneMirror API.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed with Stack.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tonemirror/tonemirror/internal/auth"
	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/handler"
	"github.com/tonemirror/tonemirror/internal/service"
)

// AuthMiddleware resolves request credentials to a user. Two credential
// forms are accepted: the session cookie set at login, and a bearer API
// key with the "tm_" prefix.
type AuthMiddleware struct {
	userService   service.UserService
	apiKeyService service.APIKeyService
	logger        *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(userService service.UserService, apiKeyService service.APIKeyService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		userService:   userService,
		apiKeyService: apiKeyService,
		logger:        logger,
	}
}

// WithUser attempts to resolve the request's credentials and stores the
// user in the context. The request continues regardless of authentication
// status; anonymous requests reach the handler with no user set.
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := m.resolveUser(r); user != nil {
			r = r.WithContext(auth.SetUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects anonymous requests with a JSON 401. Must run after
// WithUser.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolveUser checks the bearer API key first, then the session cookie.
func (m *AuthMiddleware) resolveUser(r *http.Request) *domain.User {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		rawKey := strings.TrimPrefix(auth, "Bearer ")
		if strings.HasPrefix(rawKey, domain.APIKeyPrefix) {
			userID, err := m.apiKeyService.Authenticate(r.Context(), rawKey)
			if err != nil {
				return nil
			}
			user, err := m.userService.GetByID(r.Context(), userID)
			if err != nil {
				m.logger.Warn("api key resolved to missing user", "user_id", userID)
				return nil
			}
			return user
		}
		return nil
	}

	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil {
		return nil
	}
	user, err := m.userService.GetBySessionToken(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return user
}

// Stack composes middleware in order: the first middleware is the
// outermost.
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
