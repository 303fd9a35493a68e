// Package service contains the business logic layer.
//
// This file implements the analysis service, which orchestrates the plan
// gate, the NLP provider, and persistence for one analysis request.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/nlp"
)

// AnalysisOutcome is the result of one analysis request, including the
// mode it ran in.
type AnalysisOutcome struct {
	Result      *domain.AnalysisResult
	ContentType domain.ContentType
	Timestamp   time.Time
	Demo        bool
	// DemoReason is set when a configured provider failed and the canned
	// payload was served instead.
	DemoReason string
	// Analysis is the persisted record, nil for anonymous requests.
	Analysis *domain.Analysis
}

// AnalyzeParams are the inputs for one analysis request. UserID is Nil for
// anonymous requests, which are analyzed but never persisted or gated.
type AnalyzeParams struct {
	UserID      uuid.UUID
	Text        string
	ContentType domain.ContentType
}

// AnalysisService runs text analyses behind the plan gate.
type AnalysisService interface {
	// Analyze validates the text, checks the plan gate for known users,
	// runs the provider (or serves the demo payload), and persists the
	// result for known users.
	//
	// Returns domain.EINVALID for bad input and domain.ERATELIMIT when the
	// plan gate denies the request. Provider failures do not surface as
	// errors; the outcome degrades to demo mode instead.
	Analyze(ctx context.Context, params AnalyzeParams) (*AnalysisOutcome, error)
}

type analysisService struct {
	provider nlp.Provider // nil when no model credentials are configured
	usage    UsageService
	logger   *slog.Logger
}

// NewAnalysisService creates a new AnalysisService. Pass a nil provider to
// run in demo mode.
func NewAnalysisService(provider nlp.Provider, usage UsageService, logger *slog.Logger) AnalysisService {
	return &analysisService{
		provider: provider,
		usage:    usage,
		logger:   logger,
	}
}

func (s *analysisService) Analyze(ctx context.Context, params AnalyzeParams) (*AnalysisOutcome, error) {
	const op = "analysis.analyze"

	if strings.TrimSpace(params.Text) == "" {
		return nil, domain.Invalid(op, "Text is required and must be a string")
	}
	if len([]rune(params.Text)) > domain.MaxTextLength {
		return nil, domain.Invalid(op, "Text must be less than 5000 characters")
	}
	if params.ContentType == "" {
		params.ContentType = domain.ContentTypeSocial
	}
	if !params.ContentType.Valid() {
		return nil, domain.Invalid(op, "Unknown content type")
	}

	authenticated := params.UserID != uuid.Nil

	if authenticated {
		perm, err := s.usage.CanPerformAnalysis(ctx, params.UserID)
		if err != nil {
			return nil, err
		}
		if !perm.Allowed {
			return nil, &domain.Error{
				Code:    domain.ERATELIMIT,
				Op:      op,
				Message: perm.Reason,
			}
		}
	}

	outcome := &AnalysisOutcome{
		ContentType: params.ContentType,
		Timestamp:   time.Now().UTC(),
	}

	switch {
	case s.provider == nil:
		// No credentials configured: demo mode, no persistence.
		outcome.Result = nlp.DemoResult()
		outcome.Demo = true
	default:
		result, err := s.provider.AnalyzeText(ctx, params.Text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, domain.Wrap(ctx.Err(), domain.EINTERNAL, op, "Analysis canceled")
			}
			s.logger.Error("provider analysis failed, serving demo payload",
				"provider", s.provider.Name(),
				"error", err,
			)
			outcome.Result = nlp.DemoResult()
			outcome.ContentType = domain.ContentTypeSocial
			outcome.Demo = true
			outcome.DemoReason = "Using demo data due to API error"
		} else {
			outcome.Result = result
		}
	}

	if authenticated {
		analysis, err := s.usage.RecordAnalysis(ctx, params.UserID, params.Text, outcome.ContentType, outcome.Result, outcome.Demo)
		if err != nil {
			return nil, err
		}
		outcome.Analysis = analysis
	}

	return outcome, nil
}

var _ AnalysisService = (*analysisService)(nil)
