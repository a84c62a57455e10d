package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/buildrite/buildrite/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// TestUser is the default signed-in user injected by authenticated requests.
var TestUser = auth.SessionUser{
	ID:    "test-user-id",
	Name:  "Test User",
	Email: "test@example.com",
}

// NewRequest builds a request with an optional JSON body.
func NewRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// NewAuthenticatedRequest builds a request with TestUser in context.
func NewAuthenticatedRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	u := TestUser
	return auth.WithTestUser(NewRequest(t, method, target, body), &u)
}

// WithUser injects the given user into the request context.
func WithUser(r *http.Request, u auth.SessionUser) *http.Request {
	return auth.WithTestUser(r, &u)
}

// WithChiURLParam sets a chi route parameter on the request, so handlers
// that read chi.URLParam can be called without a full router.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// DecodeJSON decodes the recorder body into out, failing the test on error.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rec.Body.String(), err)
	}
}
