package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func metricsAuthStatus(t *testing.T, mw *MetricsAuthMiddleware, setAuth func(*http.Request)) int {
	t.Helper()

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	if setAuth != nil {
		setAuth(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestMetricsAuth_DisabledWhenUnconfigured(t *testing.T) {
	mw := NewMetricsAuthMiddleware("", "")
	assert.Equal(t, http.StatusOK, metricsAuthStatus(t, mw, nil))
}

func TestMetricsAuth_ValidCredentials(t *testing.T) {
	mw := NewMetricsAuthMiddleware("prom", "scrape-pass")
	code := metricsAuthStatus(t, mw, func(r *http.Request) {
		r.SetBasicAuth("prom", "scrape-pass")
	})
	assert.Equal(t, http.StatusOK, code)
}

func TestMetricsAuth_WrongPassword(t *testing.T) {
	mw := NewMetricsAuthMiddleware("prom", "scrape-pass")
	code := metricsAuthStatus(t, mw, func(r *http.Request) {
		r.SetBasicAuth("prom", "wrong")
	})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestMetricsAuth_MissingCredentials(t *testing.T) {
	mw := NewMetricsAuthMiddleware("prom", "scrape-pass")

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
}
