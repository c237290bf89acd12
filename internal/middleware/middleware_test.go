package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/auth"
	contextkeys "github.com/CLDWare/evaluations-backend/internal/contextKeys"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestCORSMiddleware(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://panel.example.com, https://app.example.com")
	config.ForceReload()
	t.Cleanup(config.Reload)

	handler := CORSMiddleware(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/v", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("expected matching origin to be echoed, got %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("expected credentials to be allowed for a listed origin")
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/admin/login", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected preflight to return %d, got %d", http.StatusNoContent, w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allowed origin for an unlisted origin, got %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("expected no credentials for an unlisted origin")
	}
}

func TestCORSMiddleware_Wildcard(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "*")
	config.ForceReload()
	t.Cleanup(config.Reload)

	handler := CORSMiddleware(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/v", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected the wildcard origin, got %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("expected no credentials when only the wildcard matches")
	}
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	var seen string
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(contextkeys.RequestIDKey).(string)
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v", nil))
	if seen == "" || w.Header().Get(RequestIDHeader) != seen {
		t.Errorf("expected generated request id in context and header, got %q and %q", seen, w.Header().Get(RequestIDHeader))
	}
	if w.Code != http.StatusTeapot {
		t.Errorf("expected handler status to pass through, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if seen != "given-id" {
		t.Errorf("expected incoming request id to be kept, got %q", seen)
	}
}

func TestAuthenticationMiddleware_Required(t *testing.T) {
	cfg := &config.Config{Admin: config.AdminConfig{JWTSecret: "test-secret", SessionDuration: time.Hour}}
	mw := AuthenticationMiddleware{Auth: auth.NewService(cfg, nil)}

	called := false
	handler := mw.Required(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/api/admin/surveys", nil))
	if w.Code != http.StatusUnauthorized || called {
		t.Errorf("expected 401 without a cookie, got %d (called=%v)", w.Code, called)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/surveys", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "not-a-token"})
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized || called {
		t.Errorf("expected 401 for an invalid token, got %d (called=%v)", w.Code, called)
	}
}
