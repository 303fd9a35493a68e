package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonemirror/tonemirror/internal/auth"
	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/nlp"
	"github.com/tonemirror/tonemirror/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// mockAnalysis implements service.AnalysisService.
type mockAnalysis struct {
	outcome    *service.AnalysisOutcome
	err        error
	lastParams service.AnalyzeParams
}

func (m *mockAnalysis) Analyze(ctx context.Context, params service.AnalyzeParams) (*service.AnalysisOutcome, error) {
	m.lastParams = params
	if m.err != nil {
		return nil, m.err
	}
	return m.outcome, nil
}

func TestHandleAnalyze_Demo(t *testing.T) {
	mock := &mockAnalysis{outcome: &service.AnalysisOutcome{
		Result:      nlp.DemoResult(),
		ContentType: domain.ContentTypeSocial,
		Timestamp:   time.Now().UTC(),
		Demo:        true,
	}}
	h := NewAnalyzeHandler(mock, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze",
		strings.NewReader(`{"text":"hello world","contentType":"social"}`))
	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success     bool                   `json:"success"`
		Data        *domain.AnalysisResult `json:"data"`
		ContentType string                 `json:"contentType"`
		Demo        bool                   `json:"demo"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, body.Demo)
	assert.Equal(t, "social", body.ContentType)
	assert.Equal(t, "positive", body.Data.Sentiment.Label)
	assert.Equal(t, "hello world", mock.lastParams.Text)
}

func TestHandleAnalyze_LiveOmitsDemoField(t *testing.T) {
	mock := &mockAnalysis{outcome: &service.AnalysisOutcome{
		Result:      nlp.DemoResult(),
		ContentType: domain.ContentTypeEmail,
		Timestamp:   time.Now().UTC(),
	}}
	h := NewAnalyzeHandler(mock, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze",
		strings.NewReader(`{"text":"hi"}`))
	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"demo"`)
	assert.NotContains(t, rec.Body.String(), `"error"`)
}

func TestHandleAnalyze_ProviderErrorPayload(t *testing.T) {
	mock := &mockAnalysis{outcome: &service.AnalysisOutcome{
		Result:      nlp.DemoResult(),
		ContentType: domain.ContentTypeSocial,
		Timestamp:   time.Now().UTC(),
		Demo:        true,
		DemoReason:  "Using demo data due to API error",
	}}
	h := NewAnalyzeHandler(mock, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze",
		strings.NewReader(`{"text":"hi","contentType":"email"}`))
	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["demo"])
	assert.Equal(t, "Using demo data due to API error", body["error"])
}

func TestHandleAnalyze_ValidationError(t *testing.T) {
	mock := &mockAnalysis{err: domain.Invalid("analysis.analyze", "Text is required and must be a string")}
	h := NewAnalyzeHandler(mock, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze",
		strings.NewReader(`{"text":""}`))
	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Text is required and must be a string")
}

func TestHandleAnalyze_PlanGateDenied(t *testing.T) {
	mock := &mockAnalysis{err: domain.LimitReached("usage.can_perform_analysis", 5)}
	h := NewAnalyzeHandler(mock, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze",
		strings.NewReader(`{"text":"hi"}`))
	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upgrade to Pro")
}

func TestHandleAnalyze_MalformedBody(t *testing.T) {
	h := NewAnalyzeHandler(&mockAnalysis{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze",
		strings.NewReader(`not json`))
	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnalyze_PassesUserID(t *testing.T) {
	mock := &mockAnalysis{outcome: &service.AnalysisOutcome{
		Result:      nlp.DemoResult(),
		ContentType: domain.ContentTypeSocial,
		Timestamp:   time.Now().UTC(),
		Demo:        true,
	}}
	h := NewAnalyzeHandler(mock, testLogger())
	user := &domain.User{Email: "user@example.com"}

	req := httptest.NewRequest(http.MethodPost, "/api/analyze",
		strings.NewReader(`{"text":"hi"}`))
	req = req.WithContext(auth.SetUser(req.Context(), user))
	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID, mock.lastParams.UserID)
}

func TestHandleDescribe(t *testing.T) {
	h := NewAnalyzeHandler(&mockAnalysis{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	h.HandleDescribe(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Message   string            `json:"message"`
		Version   string            `json:"version"`
		Endpoints map[string]string `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ToneMirror Analysis API", body.Message)
	assert.Equal(t, "1.0.0", body.Version)
	assert.Equal(t, "POST /api/analyze", body.Endpoints["analyze"])
}
