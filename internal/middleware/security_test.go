package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func securityHeaders(t *testing.T, isSecure bool) http.Header {
	t.Helper()

	mw := NewSecurityHeadersMiddleware(isSecure)
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec.Header()
}

func TestSecurityHeaders(t *testing.T) {
	headers := securityHeaders(t, false)

	assert.Equal(t, "DENY", headers.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", headers.Get("Referrer-Policy"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", headers.Get("Content-Security-Policy"))
	assert.NotEmpty(t, headers.Get("Permissions-Policy"))
}

func TestSecurityHeaders_HSTSOnlyWhenSecure(t *testing.T) {
	assert.Empty(t, securityHeaders(t, false).Get("Strict-Transport-Security"))
	assert.Equal(t, "max-age=31536000; includeSubDomains",
		securityHeaders(t, true).Get("Strict-Transport-Security"))
}
