package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tonemirror/tonemirror/internal/auth"
	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/service"
)

// APIKeyHandler manages programmatic access keys.
type APIKeyHandler struct {
	apiKeys service.APIKeyService
	logger  *slog.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(apiKeys service.APIKeyService, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeys: apiKeys,
		logger:  logger,
	}
}

// RegisterRoutes registers API key routes on the provided mux. All routes
// require authentication.
func (h *APIKeyHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("POST /api/keys", requireUser(http.HandlerFunc(h.HandleCreate)))
	mux.Handle("GET /api/keys", requireUser(http.HandlerFunc(h.HandleList)))
	mux.Handle("DELETE /api/keys/{id}", requireUser(http.HandlerFunc(h.HandleDeactivate)))
}

// apiKeyResponse is the client-facing view of a key. The hash is never
// exposed; the raw key appears only in the create response.
type apiKeyResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	IsActive  bool       `json:"isActive"`
	LastUsed  *time.Time `json:"lastUsed,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func toAPIKeyResponse(k *domain.APIKey) apiKeyResponse {
	return apiKeyResponse{
		ID:        k.ID.String(),
		Name:      k.Name,
		IsActive:  k.IsActive,
		LastUsed:  k.LastUsed,
		CreatedAt: k.CreatedAt,
	}
}

type createKeyRequest struct {
	Name string `json:"name"`
}

// HandleCreate mints a new key. The raw key is returned once and cannot
// be recovered later.
func (h *APIKeyHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req createKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.apiKeys.Create(r.Context(), user.ID, req.Name)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"key":    toAPIKeyResponse(result.Key),
		"rawKey": result.RawKey,
	})
}

// HandleList returns the user's keys, newest first.
func (h *APIKeyHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	keys, err := h.apiKeys.List(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	items := make([]apiKeyResponse, 0, len(keys))
	for i := range keys {
		items = append(items, toAPIKeyResponse(&keys[i]))
	}

	respondJSON(w, http.StatusOK, map[string]any{"keys": items})
}

// HandleDeactivate disables a key owned by the user.
func (h *APIKeyHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := parseID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.apiKeys.Deactivate(r.Context(), user.ID, id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
