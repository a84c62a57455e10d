package oauthstate

import (
	"testing"
	"time"

	"github.com/buildrite/buildrite/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return s
}

func TestSaveAndConsume(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	exp := time.Now().Add(10 * time.Minute)
	if err := s.Save(ctx, "tok-1", IntentRegister, "/dashboard", "", exp); err != nil {
		t.Fatalf("Save: %v", err)
	}

	st, ok, err := s.Consume(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !ok {
		t.Fatal("Consume returned ok=false for a fresh token")
	}
	if st.Intent != IntentRegister {
		t.Errorf("Intent = %q, want register", st.Intent)
	}
	if st.ReturnURL != "/dashboard" {
		t.Errorf("ReturnURL = %q, want /dashboard", st.ReturnURL)
	}
}

func TestConsumeIsOneTime(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	exp := time.Now().Add(10 * time.Minute)
	if err := s.Save(ctx, "tok-once", IntentSignIn, "", "", exp); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, ok, err := s.Consume(ctx, "tok-once"); err != nil || !ok {
		t.Fatalf("first Consume = %v, %v; want ok", ok, err)
	}
	if _, ok, err := s.Consume(ctx, "tok-once"); err != nil || ok {
		t.Fatalf("second Consume = %v, %v; want ok=false, nil", ok, err)
	}
}

func TestConsumeUnknownToken(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, ok, err := s.Consume(ctx, "never-saved"); err != nil || ok {
		t.Fatalf("Consume(unknown) = %v, %v; want ok=false, nil", ok, err)
	}
}

func TestConsumeExpiredToken(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	exp := time.Now().Add(-1 * time.Minute)
	if err := s.Save(ctx, "tok-old", IntentGmail, "", "u1", exp); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, ok, err := s.Consume(ctx, "tok-old"); err != nil || ok {
		t.Fatalf("Consume(expired) = %v, %v; want ok=false, nil", ok, err)
	}
}

func TestConsumeCarriesUserID(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	exp := time.Now().Add(10 * time.Minute)
	if err := s.Save(ctx, "tok-gmail", IntentGmail, "", "u1", exp); err != nil {
		t.Fatalf("Save: %v", err)
	}

	st, ok, err := s.Consume(ctx, "tok-gmail")
	if err != nil || !ok {
		t.Fatalf("Consume = %v, %v; want ok", ok, err)
	}
	if st.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", st.UserID)
	}
}

func TestCleanupExpired(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := s.Save(ctx, "tok-live", IntentSignIn, "", "", time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, "tok-dead-1", IntentSignIn, "", "", time.Now().Add(-1*time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, "tok-dead-2", IntentRegister, "", "", time.Now().Add(-2*time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	n, err := s.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if n != 2 {
		t.Errorf("CleanupExpired removed %d, want 2", n)
	}

	if _, ok, err := s.Consume(ctx, "tok-live"); err != nil || !ok {
		t.Errorf("live token should survive cleanup, got ok=%v err=%v", ok, err)
	}
}
