package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	sm, err := NewSessionManager("test-session-key-32-bytes-long!!", "buildrite_test", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}

func TestNewSessionManagerRequiresKey(t *testing.T) {
	if _, err := NewSessionManager("", "name", "", false, zap.NewNop()); err == nil {
		t.Fatal("expected an error for an empty session key")
	}
}

func TestEstablishAndLoadSessionUser(t *testing.T) {
	sm := newTestManager(t)

	// Establish writes the cookie.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	err := sm.Establish(rec, req, SessionUser{ID: "u1", Name: "Pat", Email: "pat@example.com"})
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Establish should set a session cookie")
	}

	// A later request carrying the cookie gets the user injected.
	var got *SessionUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
	})
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	sm.LoadSessionUser(next).ServeHTTP(httptest.NewRecorder(), req2)

	if got == nil {
		t.Fatal("LoadSessionUser should inject the signed-in user")
	}
	if got.ID != "u1" || got.Name != "Pat" || got.Email != "pat@example.com" {
		t.Errorf("injected user = %+v", got)
	}
}

func TestLoadSessionUserWithoutCookie(t *testing.T) {
	sm := newTestManager(t)

	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = CurrentUser(r)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sm.LoadSessionUser(next).ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Error("no user should be injected without a session cookie")
	}
}

func TestClear(t *testing.T) {
	sm := newTestManager(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := sm.Establish(rec, req, SessionUser{ID: "u1"}); err != nil {
		t.Fatalf("Establish: %v", err)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req2.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	if err := sm.Clear(rec2, req2); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	cleared := rec2.Result().Cookies()
	if len(cleared) == 0 {
		t.Fatal("Clear should rewrite the cookie")
	}
	if cleared[0].MaxAge >= 0 {
		t.Errorf("cleared cookie MaxAge = %d, want negative", cleared[0].MaxAge)
	}
}

func TestRequireSignedIn(t *testing.T) {
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})
	protected := RequireSignedIn(next)

	// Without a user: 401, inner handler never runs.
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if reached {
		t.Error("inner handler ran without a signed-in user")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	// With a user in context the request passes through.
	req := WithTestUser(httptest.NewRequest(http.MethodGet, "/", nil), &SessionUser{ID: "u1"})
	protected.ServeHTTP(httptest.NewRecorder(), req)
	if !reached {
		t.Error("inner handler should run for a signed-in user")
	}
}
