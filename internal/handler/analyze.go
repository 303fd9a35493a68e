package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tonemirror/tonemirror/internal/auth"
	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/metrics"
	"github.com/tonemirror/tonemirror/internal/service"
)

// APIVersion is reported by the GET /api/analyze capability descriptor.
const APIVersion = "1.0.0"

// AnalyzeHandler serves the text analysis endpoint.
type AnalyzeHandler struct {
	analysis service.AnalysisService
	logger   *slog.Logger
}

// NewAnalyzeHandler creates a new AnalyzeHandler.
func NewAnalyzeHandler(analysis service.AnalysisService, logger *slog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analysis: analysis,
		logger:   logger,
	}
}

// RegisterRoutes registers analysis routes on the provided mux. Both
// routes are public; authenticated requests are gated and persisted,
// anonymous ones are analyzed statelessly.
func (h *AnalyzeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analyze", h.HandleAnalyze)
	mux.HandleFunc("GET /api/analyze", h.HandleDescribe)
}

type analyzeRequest struct {
	Text        string `json:"text"`
	ContentType string `json:"contentType"`
}

type analyzeResponse struct {
	Success     bool                   `json:"success"`
	Data        *domain.AnalysisResult `json:"data"`
	ContentType domain.ContentType     `json:"contentType"`
	Timestamp   time.Time              `json:"timestamp"`
	Demo        bool                   `json:"demo,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// HandleAnalyze runs one analysis. Provider failures degrade to the demo
// payload rather than erroring; only validation and plan-gate problems
// reach the client as errors.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	params := service.AnalyzeParams{
		Text:        req.Text,
		ContentType: domain.ContentType(req.ContentType),
	}
	if user := auth.GetUser(r.Context()); user != nil {
		params.UserID = user.ID
	}

	outcome, err := h.analysis.Analyze(r.Context(), params)
	if err != nil {
		if domain.ErrorCode(err) == domain.ERATELIMIT {
			metrics.QuotaDenials.Inc()
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}

	mode := "live"
	if outcome.Demo {
		mode = "demo"
	}
	metrics.AnalysesTotal.WithLabelValues(mode, string(outcome.ContentType)).Inc()

	respondJSON(w, http.StatusOK, analyzeResponse{
		Success:     true,
		Data:        outcome.Result,
		ContentType: outcome.ContentType,
		Timestamp:   outcome.Timestamp,
		Demo:        outcome.Demo,
		Error:       outcome.DemoReason,
	})
}

// HandleDescribe returns the capability descriptor for the analysis API.
func (h *AnalyzeHandler) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "ToneMirror Analysis API",
		"version": APIVersion,
		"endpoints": map[string]string{
			"analyze": "POST /api/analyze",
		},
	})
}
