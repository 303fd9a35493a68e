package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tonemirror/tonemirror/internal/auth"
	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/metrics"
	"github.com/tonemirror/tonemirror/internal/service"
)

// HistoryHandler serves a user's analysis history and exports.
type HistoryHandler struct {
	usage  service.UsageService
	export service.ExportService
	logger *slog.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(usage service.UsageService, export service.ExportService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		usage:  usage,
		export: export,
		logger: logger,
	}
}

// RegisterRoutes registers history routes on the provided mux. All routes
// require authentication.
func (h *HistoryHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/analyses", requireUser(http.HandlerFunc(h.HandleList)))
	mux.Handle("GET /api/analyses/{id}", requireUser(http.HandlerFunc(h.HandleGet)))
	mux.Handle("POST /api/analyses/{id}/export", requireUser(http.HandlerFunc(h.HandleExport)))
}

// analysisResponse is the client-facing view of a persisted analysis.
type analysisResponse struct {
	ID          string                `json:"id"`
	Text        string                `json:"text"`
	ContentType domain.ContentType    `json:"contentType"`
	Result      domain.AnalysisResult `json:"result"`
	Demo        bool                  `json:"demo"`
	CreatedAt   time.Time             `json:"createdAt"`
}

func toAnalysisResponse(a *domain.Analysis) analysisResponse {
	return analysisResponse{
		ID:          a.ID.String(),
		Text:        a.Text,
		ContentType: a.ContentType,
		Result:      a.Result,
		Demo:        a.IsDemo,
		CreatedAt:   a.CreatedAt,
	}
}

// HandleList returns the user's analyses, newest first. The optional
// limit query parameter caps the page size.
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			ErrorResponse(w, r, h.logger, domain.Invalid("history.list", "Invalid limit"))
			return
		}
		limit = n
	}

	analyses, err := h.usage.ListAnalyses(r.Context(), user.ID, limit)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	items := make([]analysisResponse, 0, len(analyses))
	for i := range analyses {
		items = append(items, toAnalysisResponse(&analyses[i]))
	}

	respondJSON(w, http.StatusOK, map[string]any{"analyses": items})
}

// HandleGet returns one analysis owned by the user.
func (h *HistoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

	analysis, err := h.usage.GetAnalysis(r.Context(), user.ID, id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toAnalysisResponse(analysis))
}

// HandleExport writes the analysis to object storage and returns its URL.
func (h *HistoryHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.export.Export(r.Context(), user.ID, id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	metrics.ExportsTotal.Inc()
	respondJSON(w, http.StatusOK, result)
}
