package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/nlp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// mockUsage implements UsageService with overridable behavior for the
// methods the analysis path touches.
type mockUsage struct {
	UsageService

	permission *domain.Permission
	permErr    error
	recorded   []domain.Analysis
}

func (m *mockUsage) CanPerformAnalysis(ctx context.Context, userID uuid.UUID) (*domain.Permission, error) {
	if m.permErr != nil {
		return nil, m.permErr
	}
	if m.permission != nil {
		return m.permission, nil
	}
	return &domain.Permission{Allowed: true}, nil
}

func (m *mockUsage) RecordAnalysis(ctx context.Context, userID uuid.UUID, text string, contentType domain.ContentType, result *domain.AnalysisResult, isDemo bool) (*domain.Analysis, error) {
	analysis := domain.Analysis{
		ID:          uuid.New(),
		UserID:      userID,
		Text:        text,
		ContentType: contentType,
		Result:      *result,
		IsDemo:      isDemo,
	}
	m.recorded = append(m.recorded, analysis)
	return &analysis, nil
}

// mockProvider implements nlp.Provider.
type mockProvider struct {
	result *domain.AnalysisResult
	err    error
}

func (m *mockProvider) AnalyzeText(ctx context.Context, text string) (*domain.AnalysisResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockProvider) Name() string { return "mock" }

func TestAnalyze_EmptyText(t *testing.T) {
	svc := NewAnalysisService(nil, &mockUsage{}, testLogger())

	_, err := svc.Analyze(context.Background(), AnalyzeParams{Text: "   "})

	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Equal(t, "Text is required and must be a string", domain.ErrorMessage(err))
}

func TestAnalyze_TextTooLong(t *testing.T) {
	svc := NewAnalysisService(nil, &mockUsage{}, testLogger())

	_, err := svc.Analyze(context.Background(), AnalyzeParams{
		Text: strings.Repeat("a", domain.MaxTextLength+1),
	})

	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Equal(t, "Text must be less than 5000 characters", domain.ErrorMessage(err))
}

func TestAnalyze_MaxLengthAccepted(t *testing.T) {
	svc := NewAnalysisService(nil, &mockUsage{}, testLogger())

	outcome, err := svc.Analyze(context.Background(), AnalyzeParams{
		Text: strings.Repeat("a", domain.MaxTextLength),
	})

	require.NoError(t, err)
	assert.True(t, outcome.Demo)
}

func TestAnalyze_DefaultContentType(t *testing.T) {
	svc := NewAnalysisService(nil, &mockUsage{}, testLogger())

	outcome, err := svc.Analyze(context.Background(), AnalyzeParams{Text: "hello"})

	require.NoError(t, err)
	assert.Equal(t, domain.ContentTypeSocial, outcome.ContentType)
}

func TestAnalyze_UnknownContentType(t *testing.T) {
	svc := NewAnalysisService(nil, &mockUsage{}, testLogger())

	_, err := svc.Analyze(context.Background(), AnalyzeParams{
		Text:        "hello",
		ContentType: "newsletter",
	})

	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestAnalyze_NoProviderServesDemo(t *testing.T) {
	svc := NewAnalysisService(nil, &mockUsage{}, testLogger())

	outcome, err := svc.Analyze(context.Background(), AnalyzeParams{
		Text:        "hello",
		ContentType: domain.ContentTypeEmail,
	})

	require.NoError(t, err)
	assert.True(t, outcome.Demo)
	assert.Empty(t, outcome.DemoReason)
	assert.Equal(t, domain.ContentTypeEmail, outcome.ContentType)
	assert.Equal(t, nlp.DemoResult(), outcome.Result)
	assert.Nil(t, outcome.Analysis)
}

func TestAnalyze_ProviderFailureDegradesToDemo(t *testing.T) {
	provider := &mockProvider{err: errors.New("model is loading")}
	svc := NewAnalysisService(provider, &mockUsage{}, testLogger())

	outcome, err := svc.Analyze(context.Background(), AnalyzeParams{
		Text:        "hello",
		ContentType: domain.ContentTypeEmail,
	})

	require.NoError(t, err)
	assert.True(t, outcome.Demo)
	assert.Equal(t, "Using demo data due to API error", outcome.DemoReason)
	// Provider failure resets the content type to the default.
	assert.Equal(t, domain.ContentTypeSocial, outcome.ContentType)
	assert.Equal(t, nlp.DemoResult(), outcome.Result)
}

func TestAnalyze_ProviderSuccess(t *testing.T) {
	want := nlp.Assemble("hello",
		domain.SentimentScore{Score: 0.9, Label: "positive", Confidence: 0.85},
		domain.IntentResult{Primary: "friendly", Secondary: "casual", Confidence: 0.6},
	)
	provider := &mockProvider{result: want}
	svc := NewAnalysisService(provider, &mockUsage{}, testLogger())

	outcome, err := svc.Analyze(context.Background(), AnalyzeParams{Text: "hello"})

	require.NoError(t, err)
	assert.False(t, outcome.Demo)
	assert.Equal(t, want, outcome.Result)
}

func TestAnalyze_PlanGateDenies(t *testing.T) {
	usage := &mockUsage{permission: &domain.Permission{
		Allowed: false,
		Reason:  "Monthly limit reached (5 analyses). Upgrade to Pro for unlimited analyses.",
	}}
	svc := NewAnalysisService(nil, usage, testLogger())

	_, err := svc.Analyze(context.Background(), AnalyzeParams{
		UserID: uuid.New(),
		Text:   "hello",
	})

	require.Error(t, err)
	assert.Equal(t, domain.ERATELIMIT, domain.ErrorCode(err))
	assert.Contains(t, domain.ErrorMessage(err), "Monthly limit reached (5 analyses)")
	assert.Empty(t, usage.recorded)
}

func TestAnalyze_AuthenticatedPersists(t *testing.T) {
	usage := &mockUsage{}
	svc := NewAnalysisService(nil, usage, testLogger())
	userID := uuid.New()

	outcome, err := svc.Analyze(context.Background(), AnalyzeParams{
		UserID: userID,
		Text:   "hello",
	})

	require.NoError(t, err)
	require.NotNil(t, outcome.Analysis)
	assert.Equal(t, userID, outcome.Analysis.UserID)
	require.Len(t, usage.recorded, 1)
	assert.True(t, usage.recorded[0].IsDemo)
}

func TestAnalyze_AnonymousNotGated(t *testing.T) {
	usage := &mockUsage{permission: &domain.Permission{Allowed: false, Reason: "limit"}}
	svc := NewAnalysisService(nil, usage, testLogger())

	outcome, err := svc.Analyze(context.Background(), AnalyzeParams{Text: "hello"})

	require.NoError(t, err)
	assert.Nil(t, outcome.Analysis)
	assert.Empty(t, usage.recorded)
}
