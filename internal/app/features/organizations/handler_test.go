package organizations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	organizationstore "github.com/buildrite/buildrite/internal/app/store/organizations"
	subscriptionstore "github.com/buildrite/buildrite/internal/app/store/subscriptions"
	userstore "github.com/buildrite/buildrite/internal/app/store/users"
	"github.com/buildrite/buildrite/internal/app/system/billing"
	"github.com/buildrite/buildrite/internal/app/system/provision"
	"github.com/buildrite/buildrite/internal/domain/models"
	"github.com/buildrite/buildrite/internal/testutil"
	"go.uber.org/zap"
)

type fakeGateway struct {
	customerID string
	createErr  error
	attachErr  error

	deleteCalls int
}

func (g *fakeGateway) CreateCustomer(_ context.Context, _, _ string) (billing.Customer, error) {
	if g.createErr != nil {
		return billing.Customer{}, g.createErr
	}
	return billing.Customer{ID: g.customerID}, nil
}

func (g *fakeGateway) DeleteCustomer(_ context.Context, _ string) error {
	g.deleteCalls++
	return nil
}

func (g *fakeGateway) AttachPaymentMethod(_ context.Context, _, pmID string) (billing.PaymentMethod, error) {
	if g.attachErr != nil {
		return billing.PaymentMethod{}, g.attachErr
	}
	return billing.PaymentMethod{ID: pmID, CardBrand: "visa", Last4: "4242"}, nil
}

type testEnv struct {
	handler  *Handler
	gateway  *fakeGateway
	orgs     *organizationstore.Store
	users    *userstore.Store
	fixtures *testutil.Fixtures
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	orgs := organizationstore.New(db)
	users := userstore.New(db)
	plans := subscriptionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := orgs.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	fixtures.CreateSubscription(ctx, "team")
	if _, err := users.Create(ctx, models.User{
		ID:       testutil.TestUser.ID,
		FullName: testutil.TestUser.Name,
		Email:    testutil.TestUser.Email,
	}); err != nil {
		t.Fatalf("Create user: %v", err)
	}

	gw := &fakeGateway{customerID: "cus_123"}
	p := provision.New(gw, orgs, users, plans, zap.NewNop())

	return &testEnv{
		handler:  NewHandler(p, orgs, gw, zap.NewNop()),
		gateway:  gw,
		orgs:     orgs,
		users:    users,
		fixtures: fixtures,
	}
}

func validCreateBody() map[string]string {
	return map[string]string{
		"name":         "Acme Builders",
		"industry":     "Construction",
		"size":         "11-50",
		"subscription": "team",
	}
}

func TestHandleCreate(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/organizations", validCreateBody())
	rec := httptest.NewRecorder()
	env.handler.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got orgResponse
	testutil.DecodeJSON(t, rec, &got)
	if got.Owner != testutil.TestUser.ID {
		t.Errorf("Owner = %q, want the requesting user", got.Owner)
	}
	if len(got.Members) != 1 || got.Members[0] != testutil.TestUser.ID {
		t.Errorf("Members = %v, want exactly the owner", got.Members)
	}
	if got.StripeCustomerID != "cus_123" {
		t.Errorf("StripeCustomerID = %q, want cus_123", got.StripeCustomerID)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	persisted, err := env.orgs.GetByID(ctx, got.ID)
	if err != nil {
		t.Fatalf("organization not persisted: %v", err)
	}
	if persisted.Name != "Acme Builders" {
		t.Errorf("persisted Name = %q", persisted.Name)
	}
}

func TestHandleCreateRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.NewRequest(t, http.MethodPost, "/organizations", validCreateBody())
	rec := httptest.NewRecorder()
	env.handler.HandleCreate(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleCreateInvalidBody(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/organizations", nil)
	rec := httptest.NewRecorder()
	env.handler.HandleCreate(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for empty body", rec.Code)
	}
}

func TestHandleCreateRejectsBadSize(t *testing.T) {
	env := newTestEnv(t)

	body := validCreateBody()
	body["size"] = "huge"
	req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/organizations", body)
	rec := httptest.NewRecorder()
	env.handler.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp map[string]any
	testutil.DecodeJSON(t, rec, &resp)
	if resp["error"] == "" {
		t.Error("validation failure should carry a reason")
	}
}

func TestHandleCreateBillingDown(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.createErr = errors.New("stripe timeout")

	req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/organizations", validCreateBody())
	rec := httptest.NewRecorder()
	env.handler.HandleCreate(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	var resp map[string]any
	testutil.DecodeJSON(t, rec, &resp)
	if resp["error"] != "billing service unavailable" {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestHandleCreateDuplicateNameCompensates(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/organizations", validCreateBody())
	rec := httptest.NewRecorder()
	env.handler.HandleCreate(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create: status = %d", rec.Code)
	}

	req = testutil.NewAuthenticatedRequest(t, http.MethodPost, "/organizations", validCreateBody())
	rec = httptest.NewRecorder()
	env.handler.HandleCreate(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("duplicate create: status = %d, want 500", rec.Code)
	}
	if env.gateway.deleteCalls != 1 {
		t.Errorf("DeleteCustomer calls = %d, want 1 compensating delete", env.gateway.deleteCalls)
	}
}

func TestServeView(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := env.fixtures.CreateOrganization(ctx, "Acme", testutil.TestUser.ID)

	req := testutil.NewAuthenticatedRequest(t, http.MethodGet, "/organizations/"+org.ID, nil)
	req = testutil.WithChiURLParam(req, "id", org.ID)
	rec := httptest.NewRecorder()
	env.handler.ServeView(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got orgResponse
	testutil.DecodeJSON(t, rec, &got)
	if got.ID != org.ID || got.Name != "Acme" {
		t.Errorf("got %+v, want the created organization", got)
	}
}

func TestServeViewNonMemberForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := env.fixtures.CreateOrganization(ctx, "Acme", "someone-else")

	req := testutil.NewAuthenticatedRequest(t, http.MethodGet, "/organizations/"+org.ID, nil)
	req = testutil.WithChiURLParam(req, "id", org.ID)
	rec := httptest.NewRecorder()
	env.handler.ServeView(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for non-member", rec.Code)
	}
}

func TestServeViewNotFound(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.NewAuthenticatedRequest(t, http.MethodGet, "/organizations/missing", nil)
	req = testutil.WithChiURLParam(req, "id", "missing")
	rec := httptest.NewRecorder()
	env.handler.ServeView(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeList(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	env.fixtures.CreateOrganization(ctx, "Acme", testutil.TestUser.ID)
	other := env.fixtures.CreateOrganization(ctx, "Globex", "someone-else")
	if err := env.orgs.EnsureMember(ctx, other.ID, testutil.TestUser.ID); err != nil {
		t.Fatalf("EnsureMember: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(t, http.MethodGet, "/organizations", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Organizations []orgResponse `json:"organizations"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Organizations) != 2 {
		t.Errorf("listed %d organizations, want 2", len(resp.Organizations))
	}
}

func TestHandleAttachPaymentMethod(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, err := env.orgs.Create(ctx, models.Organization{
		Owner:            testutil.TestUser.ID,
		Name:             "Acme",
		StripeCustomerID: "cus_123",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/organizations/"+org.ID+"/payment-method",
		map[string]string{"payment_method_id": "pm_456"})
	req = testutil.WithChiURLParam(req, "id", org.ID)
	rec := httptest.NewRecorder()
	env.handler.HandleAttachPaymentMethod(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got orgResponse
	testutil.DecodeJSON(t, rec, &got)
	if got.StripePaymentMethodID != "pm_456" || got.StripeCardBrand != "visa" || got.StripePaymentLast4 != "4242" {
		t.Errorf("card fields = %q/%q/%q, want pm_456/visa/4242",
			got.StripePaymentMethodID, got.StripeCardBrand, got.StripePaymentLast4)
	}
}

func TestHandleAttachPaymentMethodOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, err := env.orgs.Create(ctx, models.Organization{
		Owner:   "someone-else",
		Name:    "Acme",
		Members: []string{testutil.TestUser.ID},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/organizations/"+org.ID+"/payment-method",
		map[string]string{"payment_method_id": "pm_456"})
	req = testutil.WithChiURLParam(req, "id", org.ID)
	rec := httptest.NewRecorder()
	env.handler.HandleAttachPaymentMethod(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for a non-owner member", rec.Code)
	}
}

func TestHandleAttachPaymentMethodMissingID(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/organizations/x/payment-method",
		map[string]string{})
	req = testutil.WithChiURLParam(req, "id", "x")
	rec := httptest.NewRecorder()
	env.handler.HandleAttachPaymentMethod(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without payment_method_id", rec.Code)
	}
}

func TestHandleAttachPaymentMethodBillingDown(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.attachErr = errors.New("stripe timeout")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, err := env.orgs.Create(ctx, models.Organization{
		Owner:            testutil.TestUser.ID,
		Name:             "Acme",
		StripeCustomerID: "cus_123",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/organizations/"+org.ID+"/payment-method",
		map[string]string{"payment_method_id": "pm_456"})
	req = testutil.WithChiURLParam(req, "id", org.ID)
	rec := httptest.NewRecorder()
	env.handler.HandleAttachPaymentMethod(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}
