package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tonemirror/tonemirror/internal/auth"
	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/service"
)

// AuthHandler handles registration, login, and session management.
type AuthHandler struct {
	userService service.UserService
	logger      *slog.Logger
	isSecure    bool
}

// NewAuthHandler creates a new AuthHandler. Set isSecure in production to
// mark session cookies Secure.
func NewAuthHandler(userService service.UserService, logger *slog.Logger, isSecure bool) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
		isSecure:    isSecure,
	}
}

// RegisterRoutes registers auth routes on the provided mux. The me route
// must be wrapped with the auth middleware by the caller; register and
// login are public.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /api/auth/register", h.HandleRegister)
	mux.HandleFunc("POST /api/auth/login", h.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", h.HandleLogout)
	mux.Handle("GET /api/auth/me", requireUser(http.HandlerFunc(h.HandleMe)))
}

// userResponse is the client-facing view of a user. The password hash
// never leaves the service layer.
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// HandleRegister creates a new account and logs the user in.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.userService.Register(r.Context(), domain.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Log the new user in immediately so the client has a session.
	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Account exists but the session failed; the client can log in
		// explicitly.
		h.logger.Warn("post-register login failed", "user_id", user.ID, "error", err)
		respondJSON(w, http.StatusCreated, map[string]any{"user": toUserResponse(user)})
		return
	}

	auth.SetSessionCookie(w, result.Token, h.isSecure)
	respondJSON(w, http.StatusCreated, map[string]any{"user": toUserResponse(result.User)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin authenticates a user and sets the session cookie.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	auth.SetSessionCookie(w, result.Token, h.isSecure)
	respondJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(result.User)})
}

// HandleLogout invalidates the current session. Idempotent; requests
// without a session cookie still get a 204.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		if err := h.userService.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("logout failed", "error", err)
		}
	}

	auth.ClearSessionCookie(w, h.isSecure)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}
