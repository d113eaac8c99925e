// ABOUTME: Tests for HTTP authentication middleware and token extraction
// ABOUTME: Covers bearer header, query parameter fallback, and rejection paths

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenFromRequest_BearerHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Authorization", "Bearer abc123")

	if got := TokenFromRequest(r); got != "abc123" {
		t.Errorf("TokenFromRequest() = %q, want %q", got, "abc123")
	}
}

func TestTokenFromRequest_QueryParamFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?token=querytoken", nil)

	if got := TokenFromRequest(r); got != "querytoken" {
		t.Errorf("TokenFromRequest() = %q, want %q", got, "querytoken")
	}
}

func TestTokenFromRequest_HeaderWinsOverQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?token=querytoken", nil)
	r.Header.Set("Authorization", "Bearer headertoken")

	if got := TokenFromRequest(r); got != "headertoken" {
		t.Errorf("TokenFromRequest() = %q, want %q", got, "headertoken")
	}
}

func TestTokenFromRequest_MalformedHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Authorization", "Basic abc123")

	if got := TokenFromRequest(r); got != "" {
		t.Errorf("TokenFromRequest() = %q, want empty", got)
	}
}

func TestHTTPMiddleware_ValidToken(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	token, err := verifier.Generate("user-9", "admin", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var gotIdentity *Identity
	handler := HTTPMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity = FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotIdentity == nil {
		t.Fatal("identity not attached to request context")
	}
	if gotIdentity.UserID != "user-9" {
		t.Errorf("UserID = %q, want %q", gotIdentity.UserID, "user-9")
	}
	if gotIdentity.Role != "admin" {
		t.Errorf("Role = %q, want %q", gotIdentity.Role, "admin")
	}
}

func TestHTTPMiddleware_MissingCredentials(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))

	handler := HTTPMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestHTTPMiddleware_InvalidToken(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))

	handler := HTTPMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/notifications?token=garbage", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
