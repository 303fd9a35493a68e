package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name         string
		remoteAddr   string
		forwardedFor string
		realIP       string
		expected     string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "203.0.113.5:54321",
			expected:   "203.0.113.5",
		},
		{
			name:         "x-forwarded-for wins",
			remoteAddr:   "10.0.0.1:80",
			forwardedFor: "198.51.100.7",
			expected:     "198.51.100.7",
		},
		{
			name:         "x-forwarded-for first of many",
			remoteAddr:   "10.0.0.1:80",
			forwardedFor: "198.51.100.7, 10.0.0.2, 10.0.0.3",
			expected:     "198.51.100.7",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:80",
			realIP:     " 198.51.100.9 ",
			expected:   "198.51.100.9",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "203.0.113.5",
			expected:   "203.0.113.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.forwardedFor)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			if got := getClientIP(req); got != tt.expected {
				t.Errorf("getClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		rawQuery string
		expected string
	}{
		{
			name:     "no query",
			path:     "/api/analyses",
			expected: "/api/analyses",
		},
		{
			name:     "safe query preserved",
			path:     "/api/analyses",
			rawQuery: "limit=10",
			expected: "/api/analyses?limit=10",
		},
		{
			name:     "token redacted",
			path:     "/api/auth/verify",
			rawQuery: "token=abc123",
			expected: "/api/auth/verify?token=[REDACTED]",
		},
		{
			name:     "mixed params",
			path:     "/api/analyses",
			rawQuery: "limit=10&api_key=secret",
			expected: "/api/analyses?limit=10&api_key=[REDACTED]",
		},
		{
			name:     "case insensitive key",
			path:     "/cb",
			rawQuery: "Code=xyz",
			expected: "/cb?Code=[REDACTED]",
		},
		{
			name:     "valueless param dropped",
			path:     "/api/analyses",
			rawQuery: "flag",
			expected: "/api/analyses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizePath(tt.path, tt.rawQuery); got != tt.expected {
				t.Errorf("sanitizePath(%q, %q) = %q, want %q", tt.path, tt.rawQuery, got, tt.expected)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	mw := NewRequestLoggingMiddleware(testLogger())

	tests := []struct {
		path string
		skip bool
	}{
		{"/health", true},
		{"/metrics", true},
		{"/files/exports/a.json", true},
		{"/api/analyze", false},
		{"/", false},
	}

	for _, tt := range tests {
		if got := mw.shouldSkip(tt.path); got != tt.skip {
			t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.skip)
		}
	}
}
