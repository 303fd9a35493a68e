// Package service contains the business logic layer.
//
// This file implements analysis exports: a persisted analysis is rendered
// as a JSON document, written to object storage, and handed back as a URL.
package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/repository"
	"github.com/tonemirror/tonemirror/internal/storage"
)

// ExportURLExpiry is the validity window for presigned export URLs on
// private storage backends.
const ExportURLExpiry = 1 * time.Hour

// ExportResult describes a completed export.
type ExportResult struct {
	AnalysisID uuid.UUID `json:"analysisId"`
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	ExportedAt time.Time `json:"exportedAt"`
}

// exportDocument is the JSON shape written to storage.
type exportDocument struct {
	ID          uuid.UUID             `json:"id"`
	Text        string                `json:"text"`
	ContentType domain.ContentType    `json:"contentType"`
	Result      domain.AnalysisResult `json:"result"`
	Demo        bool                  `json:"demo"`
	AnalyzedAt  time.Time             `json:"analyzedAt"`
	ExportedAt  time.Time             `json:"exportedAt"`
}

// ExportService writes analysis exports to object storage.
type ExportService interface {
	// Export renders the analysis as JSON, stores it, and returns the
	// access URL. The analysis must belong to the user; otherwise
	// domain.ENOTFOUND is returned so ownership is not revealed.
	Export(ctx context.Context, userID, analysisID uuid.UUID) (*ExportResult, error)
}

type exportService struct {
	queries *repository.Queries
	store   storage.Storage
	usage   UsageService
	logger  *slog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(queries *repository.Queries, store storage.Storage, usage UsageService, logger *slog.Logger) ExportService {
	return &exportService{
		queries: queries,
		store:   store,
		usage:   usage,
		logger:  logger,
	}
}

func (s *exportService) Export(ctx context.Context, userID, analysisID uuid.UUID) (*ExportResult, error) {
	const op = "export.export"

	row, err := s.queries.GetAnalysisByID(ctx, analysisID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "analysis", analysisID.String())
		}
		return nil, domain.Internal(err, op, "failed to retrieve analysis")
	}
	if row.UserID != userID {
		// Same response as a missing row.
		return nil, domain.NotFound(op, "analysis", analysisID.String())
	}

	analysis, err := repoAnalysisToDomain(row)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode analysis")
	}

	now := time.Now().UTC()
	doc := exportDocument{
		ID:          analysis.ID,
		Text:        analysis.Text,
		ContentType: analysis.ContentType,
		Result:      analysis.Result,
		Demo:        analysis.IsDemo,
		AnalyzedAt:  analysis.CreatedAt,
		ExportedAt:  now,
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode export")
	}

	key := storage.ExportKey(userID, analysisID)
	err = s.store.Put(ctx, key, bytes.NewReader(payload), storage.PutOptions{
		ContentType: "application/json",
		Overwrite:   true,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to store export")
	}

	url, err := s.store.URL(ctx, key, ExportURLExpiry)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to build export URL")
	}

	if err := s.usage.RecordExport(ctx, userID, analysisID); err != nil {
		s.logger.Warn("failed to record export", "user_id", userID, "analysis_id", analysisID, "error", err)
	}

	s.logger.Info("analysis exported", "user_id", userID, "analysis_id", analysisID, "key", key)

	return &ExportResult{
		AnalysisID: analysisID,
		Key:        key,
		URL:        url,
		ExportedAt: now,
	}, nil
}

var _ ExportService = (*exportService)(nil)
